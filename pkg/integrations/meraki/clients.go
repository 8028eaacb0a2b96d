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
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meraki/spark-operations-bot/pkg/models"
)

const fetchConcurrency = 8

type smDeviceResponse struct {
	Devices []models.SMDevice `json:"devices"`
}

// ClientInventory builds the full client-side topology snapshot: every
// network's devices, every device's attached clients, and the
// systems-management listing regrouped by wifi MAC.
//
// Per-device fetches are fanned out concurrently purely for latency;
// results are merged by serial, and an individual failed fetch simply
// yields no data for that device.
func (c *Client) ClientInventory(ctx context.Context) (*models.ClientInventory, error) {
	networks, err := c.GetNetworks(ctx)
	if err != nil {
		return nil, err
	}

	inv := &models.ClientInventory{
		Networks: make(map[string]*models.NetworkClients),
		SM:       make(map[string]*models.SMNetwork),
	}

	if len(networks) > 0 {
		inv.SMNetID = networks[0].ID
	}

	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(fetchConcurrency)

	for _, network := range networks {
		network := network
		group.Go(func() error {
			var devices []models.Device
			if err := c.get(gctx, "/networks/"+network.ID+"/devices", &devices); err != nil {
				c.log.Warn().Err(err).Str("network", network.Name).Msg("Failed to fetch network devices")
				return nil
			}

			if len(devices) == 0 {
				return nil
			}

			netClients := &models.NetworkClients{
				Info:    network,
				Devices: make(map[string]*models.DeviceClients, len(devices)),
			}

			for _, dev := range devices {
				netClients.Devices[dev.Serial] = &models.DeviceClients{Info: dev}
			}

			mu.Lock()
			inv.Networks[network.ID] = netClients
			mu.Unlock()

			return nil
		})

		group.Go(func() error {
			var sm smDeviceResponse
			if err := c.get(gctx, "/networks/"+network.ID+"/sm/devices/", &sm); err != nil {
				c.log.Warn().Err(err).Str("network", network.Name).Msg("Failed to fetch SM devices")
				return nil
			}

			if len(sm.Devices) == 0 {
				return nil
			}

			smNet := &models.SMNetwork{Devices: make(map[string]models.SMDevice, len(sm.Devices))}
			for _, dev := range sm.Devices {
				smNet.Devices[dev.WifiMAC] = dev
			}

			mu.Lock()
			inv.SM[network.ID] = smNet
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	c.fetchDeviceClients(ctx, inv)

	return inv, nil
}

// fetchDeviceClients fans out the per-device client listings and attaches
// them to the inventory.
func (c *Client) fetchDeviceClients(ctx context.Context, inv *models.ClientInventory) {
	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(fetchConcurrency)

	for _, netClients := range inv.Networks {
		for serial, devClients := range netClients.Devices {
			serial, devClients := serial, devClients
			group.Go(func() error {
				var clients models.ClientList

				path := "/devices/" + serial + "/clients?timespan=" + c.config.ClientTimespan
				if err := c.get(gctx, path, &clients); err != nil {
					c.log.Warn().Err(err).Str("serial", serial).Msg("Failed to fetch device clients")
					return nil
				}

				mu.Lock()
				devClients.Clients = clients
				mu.Unlock()

				return nil
			})
		}
	}

	_ = group.Wait()
}
