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

// Package aggregator merges the per-system views into one chat reply.
// The client view correlates a single identifier across the network
// inventory, phone registrations, DNS logs, and endpoint threat events.
package aggregator

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/integrations/amp"
	"github.com/meraki/spark-operations-bot/pkg/integrations/meraki"
	"github.com/meraki/spark-operations-bot/pkg/integrations/sparkcall"
	"github.com/meraki/spark-operations-bot/pkg/integrations/umbrella"
	"github.com/meraki/spark-operations-bot/pkg/logger"
	"github.com/meraki/spark-operations-bot/pkg/models"
)

// Sources holds the enabled integrations. A nil source is a disabled
// system and contributes nothing to any combined view.
type Sources struct {
	Network   NetworkSource
	Telephony TelephonySource
	DNS       DNSSource
	Endpoint  EndpointSource
}

// Aggregator builds the combined health and client views.
type Aggregator struct {
	sources Sources
	log     zerolog.Logger
}

// New creates an aggregator over the enabled sources.
func New(sources Sources) *Aggregator {
	return &Aggregator{
		sources: sources,
		log:     logger.WithComponent("aggregator"),
	}
}

// Health concatenates the per-system health sections in fixed order,
// separating sections once output has accumulated.
func (a *Aggregator) Health(ctx context.Context) string {
	var b strings.Builder

	appendSection := func(section string) {
		if b.Len() > 0 {
			b.WriteString("<br><br>")
		}

		b.WriteString(section)
	}

	if a.sources.Network != nil {
		appendSection(a.sources.Network.HealthHTML(ctx))
	}

	if a.sources.Telephony != nil {
		appendSection(a.sources.Telephony.HealthHTML(ctx))
	}

	if a.sources.DNS != nil {
		appendSection(a.sources.DNS.HealthHTML())
	}

	if a.sources.Endpoint != nil {
		appendSection(a.sources.Endpoint.HealthHTML(ctx))
	}

	return b.String()
}

// Clients correlates the identifier across every enabled system and
// assembles the combined client view.
func (a *Aggregator) Clients(ctx context.Context, identifier string) string {
	inv := a.fetchInventory(ctx)
	phones := a.fetchPhones(ctx, identifier)
	dnsStats := a.fetchDNSStats()
	endpointStats := a.fetchEndpointStats(ctx)

	network, telephony := a.correlate(inv, phones, endpointStats, identifier)

	var b strings.Builder

	if a.sources.Network != nil {
		b.WriteString(network)

		if a.sources.DNS != nil || a.sources.Telephony != nil {
			b.WriteString("<hr>")
		}
	}

	if a.sources.DNS != nil {
		b.WriteString(a.dnsSection(dnsStats, identifier))

		if a.sources.Telephony != nil {
			b.WriteString("<hr>")
		}
	}

	if a.sources.Telephony != nil {
		b.WriteString(telephony + "<br>" + numbersSection(phones))
	}

	return b.String()
}

// correlate walks the client topology once, attributing each sighting to
// the person view or the phone view. A single sighting feeds at most one
// of the two.
func (a *Aggregator) correlate(inv *models.ClientInventory, phones *models.UserPhones, endpointStats *models.EndpointStats, identifier string) (network, telephony string) {
	var netB, scB strings.Builder

	netB.WriteString("<h3>Associated Clients:</h3>")
	scB.WriteString("<h3>Collaboration:</h3><b>Phones:</b>")

	if inv == nil {
		return netB.String(), scB.String()
	}

	devCount := 0

	if len(inv.Networks) > 0 {
		for _, netID := range meraki.SortedNetworkIDs(inv) {
			netClients := inv.Networks[netID]

			for _, serial := range sortedKeys(netClients.Devices) {
				devClients := netClients.Devices[serial]

				for _, cli := range devClients.Clients {
					switch {
					case identifier != "" && cli.Description == identifier && cli.Switchport != nil:
						if devCount > 0 {
							netB.WriteString("<br>")
						}

						devCount++

						netB.WriteString(a.sources.Network.PersonBlock(inv, netID, devClients.Info, cli))

						if a.sources.Endpoint != nil {
							netB.WriteString(endpointSection(endpointStats, cli.DHCPHostname))
						}
					case phones != nil && cli.Switchport != nil && hasPhone(phones, cli.MAC):
						scB.WriteString(a.phoneBlock(phones.Phones[cli.MAC], devClients.Info, cli))
					}
				}
			}
		}

		return netB.String(), scB.String()
	}

	// No networks visible. Fall back to the systems-management
	// inventory for identity matching.
	if smNet, ok := inv.SM[inv.SMNetID]; ok {
		for _, mac := range sortedKeys(smNet.Devices) {
			sm := smNet.Devices[mac]
			if !meraki.MatchesSMDevice(sm, identifier) {
				continue
			}

			if devCount > 0 {
				netB.WriteString("<br>")
			}

			devCount++

			netB.WriteString(meraki.SMFallbackBlock(sm))
		}
	}

	return netB.String(), scB.String()
}

// phoneBlock formats a phone sighting: the registration record joined
// with the network's view of where it is attached.
func (a *Aggregator) phoneBlock(phone models.Phone, devInfo models.Device, cli models.Client) string {
	showDev, showPort, showCli := a.sources.Network.ClientLinks(devInfo, cli)

	var b strings.Builder

	b.WriteString("<br>" + phone.Description + " (<i>" + phone.RegistrationStatus + "</i>)<br>")
	b.WriteString("<i>Device Name:</i> " + showCli + "<br>")
	b.WriteString("<i>IP:</i> " + cli.IP + "<br>")
	b.WriteString("<i>MAC:</i> " + cli.MAC + "<br>")
	b.WriteString("<i>VLAN:</i> " + strconv.Itoa(cli.VLAN) + "<br>")
	b.WriteString("<i>Connected To:</i> " + showDev + " (" + devInfo.Model + "), Port " + showPort + "<br>")

	return b.String()
}

// endpointSection formats the threat counters for the endpoint matching
// the client's DHCP hostname, or the no-stats line.
func endpointSection(stats *models.EndpointStats, dhcpHostname string) string {
	matched := false

	if stats != nil {
		for hostname := range stats.Clients {
			if strings.Contains(hostname, dhcpHostname) {
				matched = true
				break
			}
		}
	}

	if !matched {
		return "<h3>AMP for Endpoints Stats:</h3><ul><li>No stats available for this user.</li></ul>"
	}

	var b strings.Builder

	b.WriteString("<h3>AMP for Endpoints Stats:</h3><ul>")

	for _, hostname := range sortedKeys(stats.Clients) {
		if amp.NormalizeHostname(hostname) == dhcpHostname {
			b.WriteString(amp.CounterLines(stats.Clients[hostname]))
		}
	}

	b.WriteString("</ul>" + amp.ProcessedLine(stats.Aggregate))

	return b.String()
}

// dnsSection formats the identifier's DNS stats, or the no-stats line
// when the logs carry nothing for them.
func (a *Aggregator) dnsSection(stats *models.DNSStats, identifier string) string {
	if stats != nil && identifier != "" {
		if user, ok := stats.Users[identifier]; ok {
			return umbrella.RenderUserSection(user)
		}
	}

	return umbrella.RenderUserSection(nil)
}

// numbersSection formats the identifier's number assignments.
func numbersSection(phones *models.UserPhones) string {
	if phones == nil || len(phones.Numbers) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("<b>Numbers:</b><br>")

	internals := make([]string, 0, len(phones.Numbers))
	for internal := range phones.Numbers {
		internals = append(internals, internal)
	}

	sort.Strings(internals)

	for _, internal := range internals {
		b.WriteString(sparkcall.NumberLine(phones.Numbers[internal]))
	}

	return b.String()
}

func hasPhone(phones *models.UserPhones, mac string) bool {
	_, ok := phones.Phones[mac]
	return ok
}

func (a *Aggregator) fetchInventory(ctx context.Context) *models.ClientInventory {
	if a.sources.Network == nil {
		return nil
	}

	inv, err := a.sources.Network.ClientInventory(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to fetch network client inventory")

		return &models.ClientInventory{
			Networks: map[string]*models.NetworkClients{},
			SM:       map[string]*models.SMNetwork{},
		}
	}

	return inv
}

func (a *Aggregator) fetchPhones(ctx context.Context, identifier string) *models.UserPhones {
	if a.sources.Telephony == nil {
		return nil
	}

	phones, err := a.sources.Telephony.UserInfoByIdentifier(ctx, identifier)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to fetch telephony user info")

		return &models.UserPhones{
			Phones:  map[string]models.Phone{},
			Numbers: map[string]models.NumberAssignment{},
		}
	}

	return phones
}

func (a *Aggregator) fetchDNSStats() *models.DNSStats {
	if a.sources.DNS == nil {
		return nil
	}

	stats, err := a.sources.DNS.ParseLogs()
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to reduce DNS logs")
		return nil
	}

	return stats
}

func (a *Aggregator) fetchEndpointStats(ctx context.Context) *models.EndpointStats {
	if a.sources.Endpoint == nil {
		return nil
	}

	stats, err := a.sources.Endpoint.GetStats(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to fetch endpoint threat events")
		return nil
	}

	return stats
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
