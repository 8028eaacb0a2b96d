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

package amp

import (
	"context"
	"strconv"
	"strings"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

const warnIcon = "❗️"

// CounterLines formats one endpoint's threat counters.
func CounterLines(counters *models.EndpointCounters) string {
	var b strings.Builder

	icon := ""
	if counters.ThreatQuarantineFailed > 0 {
		icon = warnIcon
	}

	b.WriteString("<li><b>" + strconv.Itoa(counters.ThreatDetected) + " threat(s) detected. (" +
		strconv.Itoa(counters.ThreatDetectedExcluded) + " in excluded locations.)</b></li>")
	b.WriteString("<li><b>" + strconv.Itoa(counters.ThreatQuarantined) + " threat(s) quarantined.</b></li>")
	b.WriteString("<li><b>" + strconv.Itoa(counters.ThreatQuarantineFailed) + " threat(s) quarantine failed." + icon + "</b></li>")

	return b.String()
}

// ProcessedLine formats the processed/total footer.
func ProcessedLine(aggregate models.EndpointAggregate) string {
	return "Processed " + strconv.Itoa(aggregate.ProcessedEvents) + " of " +
		strconv.Itoa(aggregate.TotalEvents) + " threat event(s)."
}

// RenderHealth formats the organization-wide threat counters.
func RenderHealth(stats *models.EndpointStats) string {
	total := &models.EndpointCounters{}

	for _, counters := range stats.Clients {
		total.ThreatDetected += counters.ThreatDetected
		total.ThreatQuarantined += counters.ThreatQuarantined
		total.ThreatQuarantineFailed += counters.ThreatQuarantineFailed
		total.ThreatDetectedExcluded += counters.ThreatDetectedExcluded
	}

	var b strings.Builder

	b.WriteString("<h3>AMP for Endpoints Details:</h3>")
	b.WriteString("<a href='https://console.amp.cisco.com'>AMP for Endpoints Dashboard</a><br><ul>")
	b.WriteString(CounterLines(total))
	b.WriteString("</ul>" + ProcessedLine(stats.Aggregate))

	return b.String()
}

// HealthHTML fetches the threat events and formats the organization
// view. Failures yield an empty section.
func (c *Client) HealthHTML(ctx context.Context) string {
	stats, err := c.GetStats(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Unable to show endpoint-security data")
		return ""
	}

	return RenderHealth(stats)
}

// RenderClient formats the counters of the endpoint whose uppercased
// hostname equals the identifier. Unknown identifiers yield the empty
// section.
func RenderClient(stats *models.EndpointStats, identifier string) string {
	var b strings.Builder

	b.WriteString("<h3>AMP for Endpoints Stats:</h3><ul>")

	if counters, ok := stats.Clients[identifier]; ok {
		b.WriteString(CounterLines(counters))
	}

	b.WriteString("</ul>" + ProcessedLine(stats.Aggregate))

	return b.String()
}

// ClientsHTML fetches the threat events and formats the per-endpoint
// view. Failures yield an empty section.
func (c *Client) ClientsHTML(ctx context.Context, identifier string) string {
	stats, err := c.GetStats(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Unable to show endpoint-security client data")
		return ""
	}

	return RenderClient(stats, identifier)
}
