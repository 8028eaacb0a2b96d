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

package aggregator

import (
	"context"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

// NetworkSource provides the network-dashboard view: health, the client
// inventory, and the per-sighting formatting helpers.
type NetworkSource interface {
	HealthHTML(ctx context.Context) string
	ClientInventory(ctx context.Context) (*models.ClientInventory, error)
	PersonBlock(inv *models.ClientInventory, netID string, devInfo models.Device, cli models.Client) string
	ClientLinks(devInfo models.Device, cli models.Client) (showDev, showPort, showCli string)
}

// TelephonySource provides phone registration health and a user's phone
// and number assignments.
type TelephonySource interface {
	HealthHTML(ctx context.Context) string
	UserInfoByIdentifier(ctx context.Context, identifier string) (*models.UserPhones, error)
}

// DNSSource provides the log-derived DNS-security stats.
type DNSSource interface {
	HealthHTML() string
	ParseLogs() (*models.DNSStats, error)
}

// EndpointSource provides the endpoint-security threat counters.
type EndpointSource interface {
	HealthHTML(ctx context.Context) string
	GetStats(ctx context.Context) (*models.EndpointStats, error)
}
