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

// Package amp is the endpoint-security integration. Threat events are
// fetched from the events API and bucketed per endpoint hostname.
package amp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/httpretry"
	"github.com/meraki/spark-operations-bot/pkg/logger"
	"github.com/meraki/spark-operations-bot/pkg/models"
)

// Threat event type identifiers of interest.
const (
	eventThreatDetected       = 1090519054
	eventThreatQuarantined    = 553648143
	eventQuarantineFailure    = 2164260880
	eventDetectionInExclusion = 553648145
)

const defaultBaseURL = "https://api.amp.cisco.com/v1"

// Config holds the endpoint-security integration settings.
type Config struct {
	ClientID     string
	ClientSecret string

	// Endpoint override for tests.
	BaseURL string
}

// Client talks to the endpoint-security events API.
type Client struct {
	config     Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates an endpoint-security API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &Client{
		config:     config,
		httpClient: httpretry.NewClient(),
		log:        logger.WithComponent("amp"),
	}
}

type eventsResponse struct {
	Metadata struct {
		Results struct {
			CurrentItemCount int `json:"current_item_count"`
		} `json:"results"`
	} `json:"metadata"`
	Data []struct {
		EventTypeID int64 `json:"event_type_id"`
		Computer    struct {
			Hostname string `json:"hostname"`
		} `json:"computer"`
	} `json:"data"`
}

func (c *Client) getEvents(ctx context.Context) (*eventsResponse, error) {
	eventsURL := c.config.BaseURL + "/events?event_type[]=" +
		fmt.Sprint(eventThreatDetected) + "&event_type[]=" +
		fmt.Sprint(eventThreatQuarantined) + "&event_type[]=" +
		fmt.Sprint(eventQuarantineFailure) + "&event_type[]=" +
		fmt.Sprint(eventDetectionInExclusion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eventsURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	// The transport negotiates gzip and decompresses transparently.
	req.SetBasicAuth(c.config.ClientID, c.config.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	var events eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, err
	}

	return &events, nil
}

// GetStats fetches the threat events and buckets the counters per
// uppercased endpoint hostname.
func (c *Client) GetStats(ctx context.Context) (*models.EndpointStats, error) {
	events, err := c.getEvents(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.EndpointStats{
		Aggregate: models.EndpointAggregate{
			TotalEvents: events.Metadata.Results.CurrentItemCount,
		},
		Clients: map[string]*models.EndpointCounters{},
	}

	for _, event := range events.Data {
		hostname := strings.ToUpper(event.Computer.Hostname)

		counters, ok := stats.Clients[hostname]
		if !ok {
			counters = &models.EndpointCounters{}
			stats.Clients[hostname] = counters
		}

		switch event.EventTypeID {
		case eventThreatDetected:
			counters.ThreatDetected++
		case eventThreatQuarantined:
			counters.ThreatQuarantined++
		case eventQuarantineFailure:
			counters.ThreatQuarantineFailed++
		case eventDetectionInExclusion:
			counters.ThreatDetectedExcluded++
		}

		stats.Aggregate.ProcessedEvents++
	}

	return stats, nil
}

// NormalizeHostname strips the domain suffix from an endpoint hostname.
// "HOST1.DOMAIN" and "HOST1" both normalize to "HOST1".
func NormalizeHostname(hostname string) string {
	if idx := strings.Index(hostname, "."); idx >= 0 {
		return hostname[:idx]
	}

	return hostname
}
