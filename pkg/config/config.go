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

// Package config builds the immutable process configuration from
// environment variables. Each optional subsystem is enabled only when its
// full variable set is present; a partially configured subsystem is
// treated as absent rather than an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort           = 5000
	defaultClientTimespan = "86400"
	defaultLogDir         = "/tmp/dnslogs"
	defaultSyncInterval   = 5 * time.Minute
)

var errMissingBotVars = errors.New("missing bot environment variables")

// BotConfig is the chat-bot identity. All four required fields must be set
// for the process to start.
type BotConfig struct {
	AppName string
	Email   string
	Token   string
	URL     string
	Port    int
	HelpMsg string
}

// MerakiConfig covers the network dashboard API plus the optional
// dashboard HTTP credentials used to build cross-launch links.
type MerakiConfig struct {
	APIToken          string
	Org               string
	ClientTimespan    string
	OverrideDashboard string
	HTTPUsername      string
	HTTPPassword      string
}

// SparkCallConfig covers the cloud telephony API.
type SparkCallConfig struct {
	APIToken          string
	OverrideDashboard string
}

// UmbrellaConfig covers the DNS-security log store (S3) and the local
// directory the collector materializes logs into.
type UmbrellaConfig struct {
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	OverrideDashboard string
	LogDir            string
	SyncInterval      time.Duration
}

// AmpConfig covers the endpoint-security events API.
type AmpConfig struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	Bot       BotConfig
	Meraki    MerakiConfig
	SparkCall SparkCallConfig
	Umbrella  UmbrellaConfig
	Amp       AmpConfig
}

// FromEnv reads the full configuration from the environment.
func FromEnv() *Config {
	cfg := &Config{
		Bot: BotConfig{
			AppName: os.Getenv("SPARK_BOT_APP_NAME"),
			Email:   os.Getenv("SPARK_BOT_EMAIL"),
			Token:   os.Getenv("SPARK_BOT_TOKEN"),
			URL:     os.Getenv("SPARK_BOT_URL"),
			Port:    defaultPort,
			HelpMsg: os.Getenv("SPARK_BOT_HELP_MSG"),
		},
		Meraki: MerakiConfig{
			APIToken:          os.Getenv("MERAKI_API_TOKEN"),
			Org:               os.Getenv("MERAKI_ORG"),
			ClientTimespan:    os.Getenv("MERAKI_CLIENT_TIMESPAN"),
			OverrideDashboard: os.Getenv("MERAKI_OVERRIDE_DASHBOARD"),
			HTTPUsername:      os.Getenv("MERAKI_HTTP_USERNAME"),
			HTTPPassword:      os.Getenv("MERAKI_HTTP_PASSWORD"),
		},
		SparkCall: SparkCallConfig{
			APIToken:          os.Getenv("SPARK_API_TOKEN"),
			OverrideDashboard: os.Getenv("SPARK_OVERRIDE_DASHBOARD"),
		},
		Umbrella: UmbrellaConfig{
			S3Bucket:          os.Getenv("S3_BUCKET"),
			S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			OverrideDashboard: os.Getenv("UMBRELLA_OVERRIDE_DASHBOARD"),
			LogDir:            os.Getenv("UMBRELLA_LOG_DIR"),
			SyncInterval:      defaultSyncInterval,
		},
		Amp: AmpConfig{
			ClientID:     os.Getenv("A4E_CLIENT_ID"),
			ClientSecret: os.Getenv("A4E_CLIENT_SECRET"),
		},
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Bot.Port = p
		}
	}

	if cfg.Meraki.ClientTimespan == "" {
		cfg.Meraki.ClientTimespan = defaultClientTimespan
	}

	if cfg.Umbrella.LogDir == "" {
		cfg.Umbrella.LogDir = defaultLogDir
	}

	return cfg
}

// Validate checks the bot identity. Subsystem variables are never
// validated here; a missing subsystem disables its commands instead.
func (c *Config) Validate() error {
	var missing []string

	if c.Bot.Email == "" {
		missing = append(missing, "SPARK_BOT_EMAIL")
	}

	if c.Bot.Token == "" {
		missing = append(missing, "SPARK_BOT_TOKEN")
	}

	if c.Bot.URL == "" {
		missing = append(missing, "SPARK_BOT_URL")
	}

	if c.Bot.AppName == "" {
		missing = append(missing, "SPARK_BOT_APP_NAME")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", errMissingBotVars, missing)
	}

	return nil
}

// MerakiSupport reports whether the network dashboard subsystem is
// configured. The org is optional; it is auto-selected when absent.
func (c *Config) MerakiSupport() bool {
	return c.Meraki.APIToken != ""
}

// MerakiDashboardSupport reports whether the optional dashboard HTTP
// credentials for cross-launch link generation are configured.
func (c *Config) MerakiDashboardSupport() bool {
	return c.Meraki.HTTPUsername != "" && c.Meraki.HTTPPassword != ""
}

// SparkCallSupport reports whether the telephony subsystem is configured.
func (c *Config) SparkCallSupport() bool {
	return c.SparkCall.APIToken != ""
}

// UmbrellaSupport reports whether the DNS-security subsystem is configured.
func (c *Config) UmbrellaSupport() bool {
	return c.Umbrella.S3Bucket != "" && c.Umbrella.S3AccessKeyID != "" && c.Umbrella.S3SecretAccessKey != ""
}

// AmpSupport reports whether the endpoint-security subsystem is configured.
func (c *Config) AmpSupport() bool {
	return c.Amp.ClientID != "" && c.Amp.ClientSecret != ""
}
