/*
 * Copyright 2026 Cisco Systems, Inc. and its affiliates.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bot is the chat framework: command registry, webhook receiver,
// and reply posting against the Spark messages API.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/httpretry"
	"github.com/meraki/spark-operations-bot/pkg/logger"
)

const defaultAPIBaseURL = "https://api.ciscospark.com/v1"

// Message is one chat message as returned by the messages API.
type Message struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	PersonEmail string `json:"personEmail"`
	Text        string `json:"text"`
}

// Handler produces the reply for one incoming message.
type Handler func(ctx context.Context, msg Message) string

// Command is one registered chat command.
type Command struct {
	Name    string
	Help    string
	Handler Handler
}

// Config holds the bot identity and webhook settings.
type Config struct {
	AppName string
	Email   string
	Token   string
	URL     string
	HelpMsg string

	// Endpoint override for tests.
	APIBaseURL string
}

// Bot dispatches incoming webhook deliveries to registered commands.
type Bot struct {
	config     Config
	httpClient *http.Client
	help       HelpRenderer
	log        zerolog.Logger

	mu       sync.RWMutex
	commands map[string]Command
}

// New creates a bot. A nil help renderer selects the default one.
func New(config Config, help HelpRenderer) *Bot {
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}

	b := &Bot{
		config:     config,
		httpClient: httpretry.NewClient(),
		help:       help,
		log:        logger.WithComponent("bot"),
		commands:   map[string]Command{},
	}

	if b.help == nil {
		b.help = &DefaultHelp{Greeting: config.HelpMsg}
	}

	b.Add("help", "Get help.", func(_ context.Context, _ Message) string {
		return b.help.RenderHelp(b.Commands())
	})

	return b
}

// Add registers a command. Re-adding a name replaces it.
func (b *Bot) Add(name, help string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name = strings.ToLower(name)
	b.commands[name] = Command{Name: name, Help: help, Handler: handler}
}

// Remove unregisters a command.
func (b *Bot) Remove(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.commands, strings.ToLower(name))
}

// Commands lists the registered commands sorted by name.
func (b *Bot) Commands() []Command {
	b.mu.RLock()
	defer b.mu.RUnlock()

	commands := make([]Command, 0, len(b.commands))
	for _, command := range b.commands {
		commands = append(commands, command)
	}

	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })

	return commands
}

// lookup finds the first token of the message naming a registered
// command. Room messages lead with the bot mention, so every token is
// considered.
func (b *Bot) lookup(text string) (Command, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, token := range strings.Fields(text) {
		if command, ok := b.commands[strings.ToLower(token)]; ok {
			return command, true
		}
	}

	return Command{}, false
}

// Identifier extracts the lookup target from a command message: the last
// whitespace-delimited token. A message carrying only the command word
// yields an empty identifier.
func Identifier(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return ""
	}

	return tokens[len(tokens)-1]
}

// Router builds the webhook HTTP surface.
func (b *Bot) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", b.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/", b.handleWebhook).Methods(http.MethodPost)
	router.HandleFunc("/health", b.handleHealth).Methods(http.MethodGet)

	return router
}

func (b *Bot) handleRoot(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "%s is up and running.", b.config.AppName)
}

func (b *Bot) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type webhookDelivery struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	log := b.log.With().Str("request_id", requestID).Logger()

	var delivery webhookDelivery
	if err := json.NewDecoder(r.Body).Decode(&delivery); err != nil {
		log.Warn().Err(err).Msg("Rejecting malformed webhook delivery")
		http.Error(w, "bad request", http.StatusBadRequest)

		return
	}

	msg, err := b.fetchMessage(r.Context(), delivery.Data.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch message")
		http.Error(w, "upstream error", http.StatusBadGateway)

		return
	}

	// The bot's own replies also arrive as webhook deliveries.
	if strings.EqualFold(msg.PersonEmail, b.config.Email) {
		w.WriteHeader(http.StatusOK)
		return
	}

	command, ok := b.lookup(msg.Text)
	if !ok {
		command, _ = b.lookup("help")
	}

	log.Info().Str("command", command.Name).Str("from", msg.PersonEmail).Msg("Dispatching command")

	reply := command.Handler(r.Context(), msg)

	if err := b.postReply(r.Context(), msg.RoomID, reply); err != nil {
		log.Error().Err(err).Msg("Failed to post reply")
		http.Error(w, "upstream error", http.StatusBadGateway)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (b *Bot) fetchMessage(ctx context.Context, id string) (Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.APIBaseURL+"/messages/"+id, http.NoBody)
	if err != nil {
		return Message{}, err
	}

	req.Header.Set("Authorization", "Bearer "+b.config.Token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return Message{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Message{}, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return Message{}, err
	}

	return msg, nil
}

func (b *Bot) postReply(ctx context.Context, roomID, html string) error {
	payload, err := json.Marshal(map[string]string{
		"roomId":   roomID,
		"markdown": html,
		"html":     html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.APIBaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+b.config.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	return nil
}

type webhook struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	TargetURL string `json:"targetUrl"`
	Resource  string `json:"resource"`
	Event     string `json:"event"`
}

// RegisterWebhook points the messages webhook at the configured URL,
// replacing any stale registration under the bot's name.
func (b *Bot) RegisterWebhook(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.APIBaseURL+"/webhooks", http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+b.config.Token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var listing struct {
		Items []webhook `json:"items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return err
	}

	for _, hook := range listing.Items {
		if hook.Name != b.config.AppName {
			continue
		}

		if err := b.deleteWebhook(ctx, hook.ID); err != nil {
			return err
		}
	}

	return b.createWebhook(ctx)
}

func (b *Bot) deleteWebhook(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.config.APIBaseURL+"/webhooks/"+id, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+b.config.Token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

func (b *Bot) createWebhook(ctx context.Context) error {
	payload, err := json.Marshal(webhook{
		Name:      b.config.AppName,
		TargetURL: b.config.URL,
		Resource:  "messages",
		Event:     "created",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.APIBaseURL+"/webhooks", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+b.config.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	return nil
}
