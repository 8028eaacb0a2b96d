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

package sparkcall

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

const warnIcon = "❗️"

// DashboardURL is the admin landing link shown in health output.
func (c *Client) DashboardURL() string {
	if c.config.OverrideDashboard != "" {
		return c.config.OverrideDashboard
	}

	return "https://admin.ciscospark.com"
}

// RenderHealth formats the per-model registration report. Device
// templates and other placeholder rows surface in the listing, so only
// models naming Cisco hardware are shown.
func (c *Client) RenderHealth(report models.PhoneReport) string {
	var b strings.Builder

	b.WriteString("<h3>Spark Details:</h3>")
	b.WriteString("<a href='" + c.DashboardURL() + "'>Spark Dashboard</a><br><ul>")

	modelNames := make([]string, 0, len(report))
	for model := range report {
		modelNames = append(modelNames, model)
	}

	sort.Strings(modelNames)

	for _, model := range modelNames {
		if !strings.Contains(model, "Cisco") {
			continue
		}

		count := report[model]

		icon := ""
		if count.Offline > 0 {
			icon = warnIcon
		}

		b.WriteString("<li>" + strconv.Itoa(count.Offline) + " offline out of " +
			strconv.Itoa(count.Num) + " " + model + "(s)." + icon + "</li>")
	}

	total := report["Total"]
	if total == nil {
		total = &models.ModelCount{}
	}

	b.WriteString("</ul><strong>" + strconv.Itoa(total.Offline) + " phone(s) offline out of a total of " +
		strconv.Itoa(total.Num) + " phone(s).</strong>")

	return b.String()
}

// HealthHTML fetches the device report and formats it. Failures yield an
// empty section.
func (c *Client) HealthHTML(ctx context.Context) string {
	report, err := c.GetDeviceReport(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Unable to show telephony data")
		return ""
	}

	return c.RenderHealth(report)
}

// PhoneBlock formats one phone record.
func PhoneBlock(phone models.Phone) string {
	var b strings.Builder

	b.WriteString(phone.Description + " [<em>" + phone.RegistrationStatus + "</em>]<br>")
	b.WriteString("<i>IP:</i> " + phone.IPAddress + "<br>")
	b.WriteString("<i>MAC:</i> " + phone.MAC + "<br>")

	return b.String()
}

// NumberLine formats one number assignment.
func NumberLine(num models.NumberAssignment) string {
	if num.External != nil {
		return *num.External + " (x" + num.Internal + ")\n"
	}

	return "Extension " + num.Internal + "<br>"
}

// RenderClients formats the telephony-only view of a user lookup.
func RenderClients(info *models.UserPhones) string {
	var b strings.Builder

	b.WriteString("<h3>Collaboration:</h3>")
	b.WriteString("<strong>Phones:</strong><br>")

	for _, mac := range sortedPhoneMACs(info) {
		b.WriteString(PhoneBlock(info.Phones[mac]))
	}

	for _, internal := range sortedInternalNumbers(info) {
		b.WriteString("<br><strong>Numbers:</strong><br>")
		b.WriteString(NumberLine(info.Numbers[internal]))
	}

	return b.String()
}

// ClientsHTML resolves the identifier and formats the telephony view.
// Failures and empty identifiers yield the empty section headers.
func (c *Client) ClientsHTML(ctx context.Context, identifier string) string {
	info, err := c.UserInfoByIdentifier(ctx, identifier)
	if err != nil {
		c.log.Error().Err(err).Msg("Unable to show telephony client data")

		info = &models.UserPhones{}
	}

	return RenderClients(info)
}

func sortedPhoneMACs(info *models.UserPhones) []string {
	macs := make([]string, 0, len(info.Phones))
	for mac := range info.Phones {
		macs = append(macs, mac)
	}

	sort.Strings(macs)

	return macs
}

func sortedInternalNumbers(info *models.UserPhones) []string {
	internals := make([]string, 0, len(info.Numbers))
	for internal := range info.Numbers {
		internals = append(internals, internal)
	}

	sort.Strings(internals)

	return internals
}
