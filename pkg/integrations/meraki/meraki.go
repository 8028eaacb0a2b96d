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

// Package meraki provides the integration with the network dashboard API:
// organization selection, topology and status fetching, the client
// inventory used by the correlator, and dashboard cross-launch links.
package meraki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/httpretry"
	"github.com/meraki/spark-operations-bot/pkg/logger"
	"github.com/meraki/spark-operations-bot/pkg/models"
)

const defaultBaseURL = "https://dashboard.meraki.com/api/v0"

// Config holds the dashboard API settings for one client.
type Config struct {
	APIToken          string
	Org               string
	ClientTimespan    string
	OverrideDashboard string
	BaseURL           string
}

// Client is the dashboard API client. The organization context is resolved
// once on first use and is immutable afterwards.
type Client struct {
	config     Config
	httpClient *http.Client
	log        zerolog.Logger
	linkMap    *LinkMap

	mu  sync.Mutex
	org string
}

// NewClient creates a dashboard API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	if config.ClientTimespan == "" {
		config.ClientTimespan = "86400"
	}

	return &Client{
		config:     config,
		httpClient: httpretry.NewClient(),
		log:        logger.WithComponent("meraki"),
	}
}

// SetLinkMap installs the dashboard cross-launch map built at startup.
func (c *Client) SetLinkMap(m *LinkMap) {
	c.linkMap = m
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("X-Cisco-Meraki-API-Key", c.config.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d for %s", errUnexpectedStatusCode, resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetOrganizations lists all organizations visible to the API key.
func (c *Client) GetOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := c.get(ctx, "/organizations", &orgs); err != nil {
		return nil, err
	}

	return orgs, nil
}

// OrgID returns the selected organization. An explicitly configured org
// wins; otherwise the alphabetically first visible organization is
// selected, case-insensitively, and retained for the process lifetime.
func (c *Client) OrgID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.org != "" {
		return c.org, nil
	}

	if c.config.Org != "" {
		c.org = c.config.Org
		return c.org, nil
	}

	orgs, err := c.GetOrganizations(ctx)
	if err != nil {
		return "", err
	}

	if len(orgs) == 0 {
		return "", errNoOrganizations
	}

	selected := orgs[0]
	for _, org := range orgs[1:] {
		if strings.ToLower(org.Name) < strings.ToLower(selected.Name) {
			selected = org
		}
	}

	c.org = selected.ID.String()
	c.log.Info().
		Str("org", selected.Name).
		Str("org_id", c.org).
		Msg("Selected alphabetically first organization")

	return c.org, nil
}

// OrgName looks up the display name of the selected organization.
func (c *Client) OrgName(ctx context.Context) (string, error) {
	orgID, err := c.OrgID(ctx)
	if err != nil {
		return "", err
	}

	orgs, err := c.GetOrganizations(ctx)
	if err != nil {
		return "", err
	}

	for _, org := range orgs {
		if org.ID.String() == orgID {
			return org.Name, nil
		}
	}

	return "", fmt.Errorf("%w: %s", errOrgNotFound, orgID)
}

// GetNetworks lists the networks of the selected organization. An
// organization with zero networks yields an empty list, not an error.
func (c *Client) GetNetworks(ctx context.Context) ([]models.Network, error) {
	orgID, err := c.OrgID(ctx)
	if err != nil {
		return nil, err
	}

	var networks []models.Network
	if err := c.get(ctx, "/organizations/"+orgID+"/networks", &networks); err != nil {
		c.log.Error().Err(err).Msg("Error retrieving networks")
		return nil, err
	}

	return networks, nil
}

func (c *Client) getOrgDevices(ctx context.Context) ([]models.Device, error) {
	orgID, err := c.OrgID(ctx)
	if err != nil {
		return nil, err
	}

	var devices []models.Device
	if err := c.get(ctx, "/organizations/"+orgID+"/devices", &devices); err != nil {
		return nil, err
	}

	return devices, nil
}

// NetworkStatuses is one network's device statuses keyed by serial.
type NetworkStatuses struct {
	Info    models.Network
	Devices map[string]models.DeviceStatus
}

// GetOrgDeviceStatuses fetches all device statuses, joins each status to
// its inventory record by serial, and groups the result by network.
func (c *Client) GetOrgDeviceStatuses(ctx context.Context, networks []models.Network) (map[string]*NetworkStatuses, error) {
	devices, err := c.getOrgDevices(ctx)
	if err != nil {
		return nil, err
	}

	orgID, err := c.OrgID(ctx)
	if err != nil {
		return nil, err
	}

	var statuses []models.DeviceStatus
	if err := c.get(ctx, "/organizations/"+orgID+"/deviceStatuses", &statuses); err != nil {
		c.log.Error().Err(err).Msg("Error retrieving device statuses")
		return nil, err
	}

	out := make(map[string]*NetworkStatuses)

	for _, status := range statuses {
		for _, dev := range devices {
			if dev.Serial == status.Serial {
				status.Info = dev
				break
			}
		}

		netStatuses, ok := out[status.NetworkID]
		if !ok {
			netStatuses = &NetworkStatuses{Devices: make(map[string]models.DeviceStatus)}
			out[status.NetworkID] = netStatuses
		}

		netStatuses.Devices[status.Serial] = status
	}

	for netID, netStatuses := range out {
		for _, network := range networks {
			if network.ID == netID {
				netStatuses.Info = network
				break
			}
		}
	}

	return out, nil
}

// decodeModel maps a hardware model number to its general device type.
func decodeModel(model string) string {
	switch {
	case strings.Contains(model, "MX"):
		return "appliance"
	case strings.Contains(model, "MS"):
		return "switch"
	case strings.Contains(model, "MR"):
		return "wireless"
	case strings.Contains(model, "MV"):
		return "camera"
	case strings.Contains(model, "MC"):
		return "phone"
	}

	if len(model) >= 2 {
		return model[:2]
	}

	return model
}

// SplitNetworks breaks combined networks into per-device-type networks
// named "<network> - <device type>", matching how the dashboard presents
// them. Non-combined networks keep their name.
func SplitNetworks(statuses map[string]*NetworkStatuses) map[string][]models.DeviceStatus {
	out := make(map[string][]models.DeviceStatus)

	for _, netStatuses := range statuses {
		baseName := netStatuses.Info.Name

		for _, dev := range netStatuses.Devices {
			name := baseName
			if netStatuses.Info.Type == "combined" {
				name = baseName + " - " + decodeModel(dev.Info.Model)
			}

			out[name] = append(out[name], dev)
		}
	}

	return out
}

// sortedKeys returns map keys in lexicographic order. Display ordering
// only; correlation does not depend on it.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
