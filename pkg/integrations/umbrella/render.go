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
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

// DashboardURL is the dashboard landing link shown in health output.
func (c *Client) DashboardURL() string {
	if c.config.OverrideDashboard != "" {
		return c.config.OverrideDashboard
	}

	return "https://login.umbrella.com/"
}

// formatPercent renders a share as a percentage rounded to two decimal
// places, always keeping at least one decimal digit.
func formatPercent(count, total int) string {
	pct := math.Round(float64(count)/float64(total)*100*100) / 100

	out := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}

	return out
}

// categoryLines renders the per-category counters of an aggregate, Total
// excluded, ordered by category name.
func categoryLines(b *strings.Builder, aggregate map[string]int) {
	total := aggregate["Total"]

	categories := make([]string, 0, len(aggregate))

	for category := range aggregate {
		if category != "Total" {
			categories = append(categories, category)
		}
	}

	sort.Strings(categories)

	for _, category := range categories {
		b.WriteString("<li>" + category + ": " + strconv.Itoa(aggregate[category]))

		if total > 0 {
			b.WriteString(" (" + formatPercent(aggregate[category], total) + "%)")
		}

		b.WriteString("</li>")
	}
}

// RenderHealth formats the organization-wide request counters.
func (c *Client) RenderHealth(stats *models.DNSStats) string {
	var b strings.Builder

	b.WriteString("<h3>Umbrella Details (Last 24 hours):</h3>")
	b.WriteString("<a href='" + c.DashboardURL() + "'>Umbrella Dashboard</a><br><ul>")
	b.WriteString("<li>Total Requests: " + strconv.Itoa(stats.Aggregate["Total"]) + "</li>")

	categoryLines(&b, stats.Aggregate)

	b.WriteString("</ul></b>")

	return b.String()
}

// HealthHTML reduces the logs and formats the organization view.
// Failures yield an empty section.
func (c *Client) HealthHTML() string {
	stats, err := c.ParseLogs()
	if err != nil {
		c.log.Error().Err(err).Msg("Unable to load DNS data from log files")
		return ""
	}

	return c.RenderHealth(stats)
}

// RenderUser formats one user's request counters and most recent blocked
// requests.
func RenderUser(user *models.UserDNSStats) string {
	var b strings.Builder

	b.WriteString("<h3>Umbrella Client Stats (Last 24 hours):</h3>")
	b.WriteString("<li>Total Requests: " + strconv.Itoa(user.Aggregate["Total"]) + "</li>")

	categoryLines(&b, user.Aggregate)

	b.WriteString("</ul></b>")

	if len(user.Blocked) > 0 {
		b.WriteString("<h4>Last 5 Blocked Requests:</h4>")

		for _, req := range user.Blocked {
			b.WriteString("<li>" + req.Timestamp + " " + req.Domain + " " + req.Categories + "</li>")
		}
	}

	return b.String()
}

// RenderUserSection formats the per-user block of the combined client
// view. A nil user yields the no-stats line.
func RenderUserSection(user *models.UserDNSStats) string {
	var b strings.Builder

	b.WriteString("<h3>Umbrella Client Stats (Last 24 hours):</h3><ul>")

	if user == nil {
		b.WriteString("<li>No stats available for this user.</li></ul>")
		return b.String()
	}

	b.WriteString("<li>Total Requests: " + strconv.Itoa(user.Aggregate["Total"]) + "</li>")

	categoryLines(&b, user.Aggregate)

	b.WriteString("</ul></b>")

	if len(user.Blocked) > 0 {
		b.WriteString("<h4>Last 5 Blocked Requests:</h4><ul>")

		for _, req := range user.Blocked {
			b.WriteString("<li>" + req.Timestamp + " " + req.Domain + " " + req.Categories + "</li>")
		}

		b.WriteString("</ul>")
	}

	return b.String()
}

// ClientsHTML reduces the logs and formats the per-user view. Failures
// and unknown identifiers yield an empty-but-valid section.
func (c *Client) ClientsHTML(identifier string) string {
	stats, err := c.ParseLogs()
	if err != nil {
		c.log.Error().Err(err).Msg("Unable to load DNS data from log files")

		stats = nil
	}

	return RenderUser(UserStats(stats, identifier))
}
