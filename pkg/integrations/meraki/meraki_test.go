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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

func newFakeDashboard(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		if r.Header.Get("X-Cisco-Meraki-API-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestOrgIDSelectsAlphabeticallyFirst(t *testing.T) {
	srv := newFakeDashboard(t, map[string]string{
		"/organizations": `[
			{"id": 300, "name": "zeta org"},
			{"id": 100, "name": "Acme"},
			{"id": 200, "name": "beta"}
		]`,
	})
	defer srv.Close()

	client := NewClient(Config{APIToken: "key", BaseURL: srv.URL})

	org, err := client.OrgID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", org)

	// Resolved once; immutable afterwards.
	again, err := client.OrgID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", again)
}

func TestOrgIDConcurrentFirstResolution(t *testing.T) {
	var listCalls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/organizations", r.URL.Path)
		listCalls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 100, "name": "Acme"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIToken: "key", BaseURL: srv.URL})

	var group errgroup.Group
	for i := 0; i < 4; i++ {
		group.Go(func() error {
			org, err := client.OrgID(context.Background())
			if err != nil {
				return err
			}

			assert.Equal(t, "100", org)

			return nil
		})
	}

	require.NoError(t, group.Wait())
	assert.Equal(t, int64(1), listCalls.Load())
}

func TestOrgIDPrefersExplicitConfig(t *testing.T) {
	client := NewClient(Config{APIToken: "key", Org: "42"})

	org, err := client.OrgID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", org)
}

func TestOrgIDNoOrganizations(t *testing.T) {
	srv := newFakeDashboard(t, map[string]string{"/organizations": `[]`})
	defer srv.Close()

	client := NewClient(Config{APIToken: "key", BaseURL: srv.URL})

	_, err := client.OrgID(context.Background())
	assert.ErrorIs(t, err, errNoOrganizations)
}

func TestClientInventory(t *testing.T) {
	srv := newFakeDashboard(t, map[string]string{
		"/organizations":               `[{"id": 1, "name": "Acme"}]`,
		"/organizations/1/networks":    `[{"id": "N1", "name": "HQ", "type": "combined"}]`,
		"/networks/N1/devices":         `[{"name": "SW1", "serial": "S1", "mac": "AA:BB", "model": "MS220", "networkId": "N1"}]`,
		"/networks/N1/sm/devices/":     `{"devices": [{"name": "JDOE-PC", "wifiMac": "11:22", "systemModel": "Latitude", "osName": "Windows 10", "tags": ["staff"]}]}`,
		"/devices/S1/clients":          `[{"id": "c1", "mac": "11:22", "ip": "10.0.0.5", "vlan": 10, "description": "jdoe", "dhcpHostname": "JDOE-PC", "switchport": "3"}, "placeholder"]`,
	})
	defer srv.Close()

	client := NewClient(Config{APIToken: "key", BaseURL: srv.URL})

	inv, err := client.ClientInventory(context.Background())
	require.NoError(t, err)

	require.Contains(t, inv.Networks, "N1")
	assert.Equal(t, "N1", inv.SMNetID)

	dev := inv.Networks["N1"].Devices["S1"]
	require.NotNil(t, dev)
	assert.Equal(t, "SW1", dev.Info.Name)

	// The bare-string placeholder entry is dropped at decode time.
	require.Len(t, dev.Clients, 1)
	assert.Equal(t, "jdoe", dev.Clients[0].Description)
	require.NotNil(t, dev.Clients[0].Switchport)
	assert.Equal(t, "3", *dev.Clients[0].Switchport)

	require.Contains(t, inv.SM, "N1")
	assert.Contains(t, inv.SM["N1"].Devices, "11:22")
}

func TestClientInventoryToleratesFailedDeviceFetch(t *testing.T) {
	srv := newFakeDashboard(t, map[string]string{
		"/organizations":            `[{"id": 1, "name": "Acme"}]`,
		"/organizations/1/networks": `[{"id": "N1", "name": "HQ", "type": "combined"}]`,
		// No device or SM routes: both per-network fetches 404.
	})
	defer srv.Close()

	client := NewClient(Config{APIToken: "key", BaseURL: srv.URL})

	inv, err := client.ClientInventory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, inv.Networks)
	assert.Empty(t, inv.SM)
}

func TestDecodeModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"MX64", "appliance"},
		{"MS220-8P", "switch"},
		{"MR33", "wireless"},
		{"MV21", "camera"},
		{"MC74", "phone"},
		{"Z1", "Z1"},
		{"GX50-ish", "GX"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeModel(tt.model), tt.model)
	}
}

func TestSplitNetworks(t *testing.T) {
	statuses := map[string]*NetworkStatuses{
		"N1": {
			Info: models.Network{ID: "N1", Name: "HQ", Type: "combined"},
			Devices: map[string]models.DeviceStatus{
				"S1": {Serial: "S1", Status: "online", Info: models.Device{Model: "MS220", Serial: "S1"}},
				"S2": {Serial: "S2", Status: "offline", Info: models.Device{Model: "MR33", Serial: "S2"}},
			},
		},
		"N2": {
			Info: models.Network{ID: "N2", Name: "Branch", Type: "wireless"},
			Devices: map[string]models.DeviceStatus{
				"S3": {Serial: "S3", Status: "online", Info: models.Device{Model: "MR33", Serial: "S3"}},
			},
		},
	}

	split := SplitNetworks(statuses)

	assert.Len(t, split["HQ - switch"], 1)
	assert.Len(t, split["HQ - wireless"], 1)
	// Non-combined networks keep their name.
	assert.Len(t, split["Branch"], 1)
}

func TestRenderHealthCountsOffline(t *testing.T) {
	client := NewClient(Config{APIToken: "key"})

	split := map[string][]models.DeviceStatus{
		"HQ - switch": {
			{Status: "online"},
			{Status: "offline"},
		},
		"Branch": {
			{Status: "online"},
		},
	}

	html := client.RenderHealth(split)

	assert.Contains(t, html, "<h3>Meraki Details:</h3>")
	assert.Contains(t, html, "Network 'Branch' has 0 device(s) offline out of 1 device(s).")
	assert.Contains(t, html, "Network 'HQ - switch' has 1 device(s) offline out of 2 device(s)."+warnIcon)
	assert.Contains(t, html, "<b>1 device(s) offline out of a total of 3 device(s).</b>")
}

func TestDashboardURLOverride(t *testing.T) {
	client := NewClient(Config{APIToken: "key", OverrideDashboard: "https://dash.example.com"})
	assert.Equal(t, "https://dash.example.com", client.DashboardURL())

	client = NewClient(Config{APIToken: "key"})
	assert.Equal(t, "https://dashboard.meraki.com/", client.DashboardURL())
}
