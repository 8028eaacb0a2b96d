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

package meraki

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

const warnIcon = "❗️"

// RenderHealth formats the per-network offline summary.
func (c *Client) RenderHealth(split map[string][]models.DeviceStatus) string {
	var b strings.Builder

	b.WriteString("<h3>Meraki Details:</h3>")
	b.WriteString("<a href='" + c.DashboardURL() + "'>Meraki Dashboard</a><br><ul>")

	totalDev := 0
	totalOff := 0

	for _, name := range sortedKeys(split) {
		devices := split[name]
		offline := 0

		for _, dev := range devices {
			if dev.Status != "online" {
				offline++
				totalOff++
			}
		}

		icon := ""
		if offline > 0 {
			icon = warnIcon
		}

		totalDev += len(devices)

		b.WriteString("<li>Network '" + c.NetworkLink(name) + "' has " + strconv.Itoa(offline) +
			" device(s) offline out of " + strconv.Itoa(len(devices)) + " device(s)." + icon + "</li>")
	}

	b.WriteString("</ul><b>" + strconv.Itoa(totalOff) + " device(s) offline out of a total of " +
		strconv.Itoa(totalDev) + " device(s).</b>")

	return b.String()
}

// HealthHTML fetches and formats the network health summary. Upstream
// failures degrade to an empty network list rather than an error.
func (c *Client) HealthHTML(ctx context.Context) string {
	split := map[string][]models.DeviceStatus{}

	networks, err := c.GetNetworks(ctx)
	if err == nil {
		statuses, serr := c.GetOrgDeviceStatuses(ctx, networks)
		if serr == nil {
			split = SplitNetworks(statuses)
		}
	}

	return c.RenderHealth(split)
}

// PersonBlock formats the matched client's details: cross-launch name
// link, systems-management enrichment when the MAC is known there, then
// addressing and the switch/port the client was seen on.
func (c *Client) PersonBlock(inv *models.ClientInventory, netID string, devInfo models.Device, cli models.Client) string {
	var b strings.Builder

	showDev, showPort, showCli := c.ClientLinks(devInfo, cli)

	b.WriteString("<i>Computer Name:</i> " + showCli + "<br>")

	if smNet, ok := inv.SM[netID]; ok {
		if sm, ok := smNet.Devices[cli.MAC]; ok {
			b.WriteString("<i>Model:</i> " + sm.SystemModel + "<br>")
			b.WriteString("<i>OS:</i> " + sm.OSName + "<br>")
		}
	}

	b.WriteString("<i>IP:</i> " + cli.IP + "<br>")
	b.WriteString("<i>MAC:</i> " + cli.MAC + "<br>")
	b.WriteString("<i>VLAN:</i> " + strconv.Itoa(cli.VLAN) + "<br>")
	b.WriteString("<i>Connected To:</i> " + showDev + " (" + devInfo.Model + "), Port " + showPort + "<br>")

	return b.String()
}

// ClientLinks builds the device, port, and client cross-launch links for
// one client sighting.
func (c *Client) ClientLinks(devInfo models.Device, cli models.Client) (showDev, showPort, showCli string) {
	showDev = c.DeviceLink(devInfo.MAC, devInfo.Name, "?timespan="+c.config.ClientTimespan, false)

	port := ""
	if cli.Switchport != nil {
		port = *cli.Switchport
	}

	showPort = c.DeviceLink(devInfo.MAC, port, "/ports/"+port+"?timespan="+c.config.ClientTimespan, true)
	showCli = c.ClientLink(showDev, cli.ID, cli.DHCPHostname)

	return showDev, showPort, showCli
}

// SMFallbackBlock formats a systems-management inventory record used when
// no network client matched the identifier.
func SMFallbackBlock(sm models.SMDevice) string {
	var b strings.Builder

	ssid := "N/A"
	if sm.SSID != nil {
		ssid = *sm.SSID
	}

	b.WriteString("<i>Client Name:</i> " + sm.Name + "<br>")
	b.WriteString("<i>Model:</i> " + sm.SystemModel + "<br>")
	b.WriteString("<i>OS:</i> " + sm.OSName + "<br>")
	b.WriteString("<i>MAC:</i> " + sm.WifiMAC + "<br>")
	b.WriteString("<i>Wireless SSID:</i> " + ssid + "<br>")

	return b.String()
}

// MatchesSMDevice reports whether the identifier matches a
// systems-management record by case-insensitive substring against its
// display name or any tag.
func MatchesSMDevice(sm models.SMDevice, identifier string) bool {
	if identifier == "" {
		return false
	}

	needle := strings.ToLower(identifier)

	if strings.Contains(strings.ToLower(sm.Name), needle) {
		return true
	}

	for _, tag := range sm.Tags {
		if strings.ToLower(tag) == needle {
			return true
		}
	}

	return false
}

// RenderClients formats the network-only view of a user lookup: every
// access-layer client whose description equals the identifier, or the
// systems-management fallback when the dashboard returned no networks.
func (c *Client) RenderClients(inv *models.ClientInventory, identifier string) string {
	var b strings.Builder

	b.WriteString("<h3>Associated Clients:</h3>")

	devCount := 0

	if len(inv.Networks) > 0 {
		for _, netID := range SortedNetworkIDs(inv) {
			netClients := inv.Networks[netID]

			for _, serial := range sortedKeys(netClients.Devices) {
				devClients := netClients.Devices[serial]

				for _, cli := range devClients.Clients {
					if identifier == "" || cli.Description != identifier || cli.Switchport == nil {
						continue
					}

					if devCount > 0 {
						b.WriteString("<br>")
					}

					devCount++

					b.WriteString(c.PersonBlock(inv, netID, devClients.Info, cli))
				}
			}
		}

		return b.String()
	}

	smNet, ok := inv.SM[inv.SMNetID]
	if !ok {
		return b.String()
	}

	for _, mac := range sortedKeys(smNet.Devices) {
		sm := smNet.Devices[mac]
		if !MatchesSMDevice(sm, identifier) {
			continue
		}

		if devCount > 0 {
			b.WriteString("<br>")
		}

		devCount++

		b.WriteString(SMFallbackBlock(sm))
	}

	return b.String()
}

// ClientsHTML fetches the inventory and formats the user lookup.
func (c *Client) ClientsHTML(ctx context.Context, identifier string) string {
	inv, err := c.ClientInventory(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to fetch client inventory")

		inv = &models.ClientInventory{
			Networks: map[string]*models.NetworkClients{},
			SM:       map[string]*models.SMNetwork{},
		}
	}

	return c.RenderClients(inv, identifier)
}

// SortedNetworkIDs orders networks by display name, IDs breaking ties.
// Display ordering only.
func SortedNetworkIDs(inv *models.ClientInventory) []string {
	ids := sortedKeys(inv.Networks)

	sort.SliceStable(ids, func(i, j int) bool {
		return inv.Networks[ids[i]].Info.Name < inv.Networks[ids[j]].Info.Name
	})

	return ids
}
