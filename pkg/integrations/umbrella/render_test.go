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

package umbrella

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

func TestRenderHealth(t *testing.T) {
	client := NewClient(Config{})

	stats := &models.DNSStats{
		Aggregate: map[string]int{"Total": 4, "Malware": 1, "Phishing": 1},
	}

	html := client.RenderHealth(stats)

	assert.Contains(t, html, "<h3>Umbrella Details (Last 24 hours):</h3>")
	assert.Contains(t, html, "<a href='https://login.umbrella.com/'>Umbrella Dashboard</a><br><ul>")
	assert.Contains(t, html, "<li>Total Requests: 4</li>")
	assert.Contains(t, html, "<li>Malware: 1 (25.0%)</li>")
	assert.Contains(t, html, "<li>Phishing: 1 (25.0%)</li>")
}

func TestRenderHealthDashboardOverride(t *testing.T) {
	client := NewClient(Config{OverrideDashboard: "https://dash.example.com"})

	html := client.RenderHealth(&models.DNSStats{Aggregate: map[string]int{"Total": 0}})

	assert.Contains(t, html, "<a href='https://dash.example.com'>Umbrella Dashboard</a>")
}

func TestRenderUser(t *testing.T) {
	user := &models.UserDNSStats{
		Blocked: []models.BlockedRequest{
			{Timestamp: "2020-01-01 00:00:00", Domain: "bad.example.com.", Categories: "Malware"},
		},
		Aggregate: map[string]int{"Total": 2, "Malware": 1},
	}

	html := RenderUser(user)

	assert.Contains(t, html, "<h3>Umbrella Client Stats (Last 24 hours):</h3>")
	assert.Contains(t, html, "<li>Total Requests: 2</li>")
	assert.Contains(t, html, "<li>Malware: 1 (50.0%)</li>")
	assert.Contains(t, html, "<h4>Last 5 Blocked Requests:</h4>")
	assert.Contains(t, html, "<li>2020-01-01 00:00:00 bad.example.com. Malware</li>")
}

func TestRenderUserUnknownIdentifier(t *testing.T) {
	html := RenderUser(UserStats(nil, "nobody"))

	assert.Contains(t, html, "<li>Total Requests: 0</li>")
	assert.NotContains(t, html, "Last 5 Blocked Requests")
}
