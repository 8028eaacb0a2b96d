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

// Package models contains the shared record types exchanged between the
// vendor integrations and the aggregator.
package models

import "encoding/json"

// Organization is a dashboard tenant visible to the configured API key.
type Organization struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Network is a single network within the selected organization.
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Device is a fabric device (switch, AP, appliance) in a network.
type Device struct {
	Name      string `json:"name"`
	Serial    string `json:"serial"`
	MAC       string `json:"mac"`
	Model     string `json:"model"`
	NetworkID string `json:"networkId"`
}

// DeviceStatus joins a device's reported status with its inventory record.
type DeviceStatus struct {
	Name      string `json:"name"`
	Serial    string `json:"serial"`
	MAC       string `json:"mac"`
	Status    string `json:"status"`
	NetworkID string `json:"networkId"`
	Info      Device `json:"info"`
}

// Client is a connected end-device as seen by the network fabric.
//
// Switchport is nil for duplicate sightings reported by the security
// appliance; only access-layer sightings carry a port. That distinction is
// load-bearing for person matching, so the field stays a pointer.
type Client struct {
	ID           string  `json:"id"`
	MAC          string  `json:"mac"`
	IP           string  `json:"ip"`
	VLAN         int     `json:"vlan"`
	Description  string  `json:"description"`
	DHCPHostname string  `json:"dhcpHostname"`
	Switchport   *string `json:"switchport"`
}

// ClientList decodes a client array while dropping placeholder entries.
// The dashboard API occasionally emits bare strings in the client array;
// those are not client records and are skipped at decode time.
type ClientList []Client

func (l *ClientList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]Client, 0, len(raw))

	for _, entry := range raw {
		var c Client
		if err := json.Unmarshal(entry, &c); err != nil {
			// Placeholder (string or otherwise malformed) entry.
			continue
		}

		out = append(out, c)
	}

	*l = out

	return nil
}

// SMDevice is a systems-management inventory record.
type SMDevice struct {
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	WifiMAC     string   `json:"wifiMac"`
	SystemModel string   `json:"systemModel"`
	OSName      string   `json:"osName"`
	SSID        *string  `json:"ssid"`
}

// DeviceClients is one device together with its attached clients.
type DeviceClients struct {
	Info    Device
	Clients ClientList
}

// NetworkClients is one network's devices keyed by serial.
type NetworkClients struct {
	Info    Network
	Devices map[string]*DeviceClients
}

// SMNetwork is one network's systems-management devices keyed by wifi MAC.
type SMNetwork struct {
	Devices map[string]SMDevice
}

// ClientInventory is the full client-side topology snapshot used by the
// correlator: dashboard clients grouped network -> device -> client, plus
// the systems-management listing grouped network -> wifi MAC.
type ClientInventory struct {
	Networks  map[string]*NetworkClients
	SM        map[string]*SMNetwork
	SMNetID   string
	LinkedOrg string
}
