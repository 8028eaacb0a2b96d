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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

func strPtr(s string) *string { return &s }

func testInventory() *models.ClientInventory {
	return &models.ClientInventory{
		Networks: map[string]*models.NetworkClients{
			"N1": {
				Info: models.Network{ID: "N1", Name: "HQ", Type: "combined"},
				Devices: map[string]*models.DeviceClients{
					"S1": {
						Info: models.Device{Name: "SW1", Serial: "S1", MAC: "AA:BB", Model: "MS220"},
						Clients: []models.Client{
							{
								ID:           "c1",
								MAC:          "11:22",
								IP:           "10.0.0.5",
								VLAN:         10,
								Description:  "jdoe",
								DHCPHostname: "JDOE-PC",
								Switchport:   strPtr("3"),
							},
							{
								ID:          "c2",
								MAC:         "33:44",
								IP:          "10.0.0.6",
								Description: "jdoe",
								Switchport:  nil,
							},
						},
					},
				},
			},
		},
		SM: map[string]*models.SMNetwork{
			"N1": {
				Devices: map[string]models.SMDevice{
					"11:22": {
						Name:        "JDOE-PC",
						WifiMAC:     "11:22",
						SystemModel: "Latitude 7420",
						OSName:      "Windows 10",
						Tags:        []string{"staff"},
					},
				},
			},
		},
		SMNetID: "N1",
	}
}

func TestRenderClientsMatchesPerson(t *testing.T) {
	client := NewClient(Config{APIToken: "key", ClientTimespan: "86400"})

	html := client.RenderClients(testInventory(), "jdoe")

	assert.Contains(t, html, "<h3>Associated Clients:</h3>")
	assert.Contains(t, html, "Computer Name:")
	assert.Contains(t, html, "10.0.0.5")
	assert.Contains(t, html, "<i>VLAN:</i> 10")
	assert.Contains(t, html, "Port 3")
	// SM enrichment found by hardware address.
	assert.Contains(t, html, "Latitude 7420")
	assert.Contains(t, html, "Windows 10")
}

func TestRenderClientsSkipsNilSwitchport(t *testing.T) {
	client := NewClient(Config{APIToken: "key"})
	inv := testInventory()

	// Drop the wired entry; only the switchport-less record remains.
	devs := inv.Networks["N1"].Devices["S1"]
	devs.Clients = devs.Clients[1:]

	html := client.RenderClients(inv, "jdoe")

	assert.NotContains(t, html, "10.0.0.6")
}

func TestRenderClientsUnknownIdentifier(t *testing.T) {
	client := NewClient(Config{APIToken: "key"})

	html := client.RenderClients(testInventory(), "nobody")

	require.NotContains(t, html, "Computer Name:")
	require.NotContains(t, html, "Client Name:")
}

func TestRenderClientsSMFallback(t *testing.T) {
	client := NewClient(Config{APIToken: "key"})
	inv := testInventory()
	inv.Networks = map[string]*models.NetworkClients{}

	html := client.RenderClients(inv, "jdoe")

	assert.Contains(t, html, "<i>Client Name:</i> JDOE-PC")
	assert.Contains(t, html, "<i>Model:</i> Latitude 7420")
	assert.Contains(t, html, "<i>OS:</i> Windows 10")
}

func TestMatchesSMDevice(t *testing.T) {
	sm := models.SMDevice{Name: "JDOE-PC", Tags: []string{"staff", "exec"}}

	tests := []struct {
		name       string
		identifier string
		want       bool
	}{
		{"substring of name", "jdoe", true},
		{"case insensitive", "JDOE", true},
		{"tag equality", "exec", true},
		{"tag substring is not enough", "exe", false},
		{"no match", "asmith", false},
		{"empty identifier", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSMDevice(sm, tt.identifier))
		})
	}
}

func TestSMFallbackBlockDefaultsSSID(t *testing.T) {
	html := SMFallbackBlock(models.SMDevice{Name: "PHONE-1", WifiMAC: "55:66"})

	assert.Contains(t, html, "<i>Client Name:</i> PHONE-1")
	assert.Contains(t, html, "<i>MAC:</i> 55:66")
	assert.Contains(t, html, "<i>Wireless SSID:</i> N/A")

	html = SMFallbackBlock(models.SMDevice{Name: "PHONE-1", SSID: strPtr("corp")})
	assert.Contains(t, html, "<i>Wireless SSID:</i> corp")
}

func TestClientLink(t *testing.T) {
	client := NewClient(Config{APIToken: "key"})

	generic := client.ClientLink("", "c1", "jdoe")
	assert.Equal(t, "<a href='https://dashboard.meraki.com/manage/usage/list#c=c1'>jdoe</a>", generic)

	devLink := "<a href='https://n1.meraki.com/HQ/n/abc/manage/nodes/show/AA:BB'>SW1</a>"
	rewritten := client.ClientLink(devLink, "c1", "jdoe")
	assert.Contains(t, rewritten, "/manage/usage/list#c=c1'>jdoe</a>")
	assert.Contains(t, rewritten, "https://n1.meraki.com/HQ/n/abc")
}

func TestDeviceLinkUsesLinkMap(t *testing.T) {
	client := NewClient(Config{APIToken: "key"})
	client.SetLinkMap(&LinkMap{
		Devices: map[string]LinkTarget{
			"AA:BB": {BaseURL: "https://n1.meraki.com/HQ/n/abc/manage/nodes/new_list/1", Desc: "SW1"},
		},
	})

	link := client.DeviceLink("AA:BB", "SW1", "?timespan=86400", false)
	assert.Equal(t, "<a href='https://n1.meraki.com/HQ/n/abc/manage/nodes/new_list/1?timespan=86400'>SW1</a>", link)

	// Unknown devices fall back to the generic node link.
	link = client.DeviceLink("CC:DD", "SW2", "", false)
	assert.Equal(t, "<a href='https://dashboard.meraki.com/manage/nodes/show/CC:DD'>SW2</a>", link)

	// Port links never use the generic fallback.
	link = client.DeviceLink("CC:DD", "3", "/ports/3", true)
	assert.Equal(t, "3", link)
}
