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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/meraki/spark-operations-bot/pkg/aggregator"
	"github.com/meraki/spark-operations-bot/pkg/bot"
	"github.com/meraki/spark-operations-bot/pkg/config"
	"github.com/meraki/spark-operations-bot/pkg/integrations/amp"
	"github.com/meraki/spark-operations-bot/pkg/integrations/meraki"
	"github.com/meraki/spark-operations-bot/pkg/integrations/sparkcall"
	"github.com/meraki/spark-operations-bot/pkg/integrations/umbrella"
	"github.com/meraki/spark-operations-bot/pkg/logger"
	"github.com/meraki/spark-operations-bot/pkg/logsync"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Local development keeps credentials in a .env file.
	_ = godotenv.Load()

	cfg := config.FromEnv()

	if err := logger.Init(logger.Config{Level: "info"}); err != nil {
		panic(err)
	}

	log := logger.GetLogger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Missing environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources := aggregator.Sources{}

	var merakiClient *meraki.Client

	if cfg.MerakiSupport() {
		log.Info().Msg("Meraki support enabled")

		merakiClient = meraki.NewClient(meraki.Config{
			APIToken:          cfg.Meraki.APIToken,
			Org:               cfg.Meraki.Org,
			ClientTimespan:    cfg.Meraki.ClientTimespan,
			OverrideDashboard: cfg.Meraki.OverrideDashboard,
		})
		sources.Network = merakiClient

		if cfg.MerakiDashboardSupport() {
			log.Info().Msg("Resolving dashboard cross-launch references")

			linkMap, err := merakiClient.BuildLinkMap(ctx, meraki.ScrapeConfig{
				Username: cfg.Meraki.HTTPUsername,
				Password: cfg.Meraki.HTTPPassword,
			})
			if err != nil {
				log.Warn().Err(err).Msg("Dashboard scrape failed, links disabled")
			} else {
				merakiClient.SetLinkMap(linkMap)
			}
		}
	}

	var sparkClient *sparkcall.Client

	if cfg.SparkCallSupport() {
		log.Info().Msg("Spark Call support enabled")

		sparkClient = sparkcall.NewClient(sparkcall.Config{
			APIToken:          cfg.SparkCall.APIToken,
			OverrideDashboard: cfg.SparkCall.OverrideDashboard,
		})
		sources.Telephony = sparkClient
	}

	var umbrellaClient *umbrella.Client

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.UmbrellaSupport() {
		log.Info().Msg("Umbrella support enabled, beginning log collection")

		umbrellaClient = umbrella.NewClient(umbrella.Config{
			LogDir:            cfg.Umbrella.LogDir,
			OverrideDashboard: cfg.Umbrella.OverrideDashboard,
		})
		sources.DNS = umbrellaClient

		syncer, err := logsync.New(ctx, logsync.Config{
			Bucket:          cfg.Umbrella.S3Bucket,
			AccessKeyID:     cfg.Umbrella.S3AccessKeyID,
			SecretAccessKey: cfg.Umbrella.S3SecretAccessKey,
			LocalDir:        cfg.Umbrella.LogDir,
			Interval:        cfg.Umbrella.SyncInterval,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create log syncer")
		}

		group.Go(func() error {
			if err := syncer.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		})
	}

	var ampClient *amp.Client

	if cfg.AmpSupport() {
		log.Info().Msg("AMP for Endpoints support enabled")

		ampClient = amp.NewClient(amp.Config{
			ClientID:     cfg.Amp.ClientID,
			ClientSecret: cfg.Amp.ClientSecret,
		})
		sources.Endpoint = ampClient
	}

	agg := aggregator.New(sources)

	chatBot := bot.New(bot.Config{
		AppName: cfg.Bot.AppName,
		Email:   cfg.Bot.Email,
		Token:   cfg.Bot.Token,
		URL:     cfg.Bot.URL,
		HelpMsg: cfg.Bot.HelpMsg,
	}, nil)

	registerCommands(chatBot, agg, merakiClient, sparkClient, umbrellaClient, ampClient)

	if err := chatBot.RegisterWebhook(ctx); err != nil {
		log.Warn().Err(err).Msg("Webhook registration failed")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Bot.Port),
		Handler:           chatBot.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		log.Info().Int("port", cfg.Bot.Port).Msg("Starting bot")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Bot terminated")
	}
}

func registerCommands(chatBot *bot.Bot, agg *aggregator.Aggregator,
	merakiClient *meraki.Client, sparkClient *sparkcall.Client,
	umbrellaClient *umbrella.Client, ampClient *amp.Client) {
	if merakiClient != nil {
		chatBot.Add("meraki-health", "Get health of Meraki environment.",
			func(ctx context.Context, _ bot.Message) string {
				return merakiClient.HealthHTML(ctx)
			})
		chatBot.Add("meraki-check", "Check Meraki user status.",
			func(ctx context.Context, msg bot.Message) string {
				return merakiClient.ClientsHTML(ctx, bot.Identifier(msg.Text))
			})
	}

	if sparkClient != nil {
		chatBot.Add("spark-health", "Get health of Spark environment.",
			func(ctx context.Context, _ bot.Message) string {
				return sparkClient.HealthHTML(ctx)
			})
		chatBot.Add("spark-check", "Check Spark user status.",
			func(ctx context.Context, msg bot.Message) string {
				return sparkClient.ClientsHTML(ctx, bot.Identifier(msg.Text))
			})
	}

	if umbrellaClient != nil {
		chatBot.Add("umbrella-health", "Get health of Umbrella environment.",
			func(_ context.Context, _ bot.Message) string {
				return umbrellaClient.HealthHTML()
			})
		chatBot.Add("umbrella-check", "Check Umbrella user status.",
			func(_ context.Context, msg bot.Message) string {
				return umbrellaClient.ClientsHTML(bot.Identifier(msg.Text))
			})
	}

	if ampClient != nil {
		chatBot.Add("a4e-health", "Get health of AMP for Endpoints environment.",
			func(ctx context.Context, _ bot.Message) string {
				return ampClient.HealthHTML(ctx)
			})
		chatBot.Add("a4e-check", "Check AMP for Endpoints user status.",
			func(ctx context.Context, msg bot.Message) string {
				return ampClient.ClientsHTML(ctx, bot.Identifier(msg.Text))
			})
	}

	chatBot.Add("health", "Get health of entire environment.",
		func(ctx context.Context, _ bot.Message) string {
			return agg.Health(ctx)
		})
	chatBot.Add("check", "Get user status.",
		func(ctx context.Context, msg bot.Message) string {
			return agg.Clients(ctx, bot.Identifier(msg.Text))
		})
}
