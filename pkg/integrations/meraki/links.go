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

import "strings"

// LinkTarget is the resolved dashboard location for one network or device.
type LinkTarget struct {
	BaseURL string `json:"baseurl"`
	Desc    string `json:"desc,omitempty"`
}

// LinkMap holds the dashboard cross-launch targets scraped at startup:
// networks keyed by name, devices keyed by hardware address.
type LinkMap struct {
	Networks map[string]LinkTarget `json:"networks"`
	Devices  map[string]LinkTarget `json:"devices"`
}

const (
	linkTypeNetworks = "networks"
	linkTypeDevices  = "devices"
)

// dashboardLink builds an <a> cross-launch hyperlink for a network or
// device. Without a link map, devices still get a generic node link, but
// only at the device level; there is no generic link to a specific port
// (portLevel true).
func (c *Client) dashboardLink(linkType, linkName, displayVal, urlAppend string, portLevel bool) string {
	shown := displayVal

	if c.linkMap != nil {
		var targets map[string]LinkTarget

		switch linkType {
		case linkTypeNetworks:
			targets = c.linkMap.Networks
		case linkTypeDevices:
			targets = c.linkMap.Devices
		}

		if target, ok := targets[linkName]; ok {
			if displayVal == "" {
				displayVal = linkName
			}

			shown = "<a href='" + target.BaseURL + urlAppend + "'>" + displayVal + "</a>"
		}
	}

	if shown == displayVal && linkType == linkTypeDevices && !portLevel {
		shown = "<a href='https://dashboard.meraki.com/manage/nodes/show/" + linkName + "'>" + displayVal + "</a>"
	}

	return shown
}

// NetworkLink builds the cross-launch link for a network name.
func (c *Client) NetworkLink(name string) string {
	return c.dashboardLink(linkTypeNetworks, name, name, "", false)
}

// DeviceLink builds the cross-launch link for a device by hardware
// address. portLevel marks links that point at a specific switch port.
func (c *Client) DeviceLink(mac, display, urlAppend string, portLevel bool) string {
	return c.dashboardLink(linkTypeDevices, mac, display, urlAppend, portLevel)
}

// ClientLink rewrites a device link into a client usage-list link. Without
// a device link, a generic dashboard client link is produced.
func (c *Client) ClientLink(deviceLink, clientID, clientDesc string) string {
	if deviceLink == "" {
		return "<a href='https://dashboard.meraki.com/manage/usage/list#c=" + clientID + "'>" + clientDesc + "</a>"
	}

	if idx := strings.Index(deviceLink, "/manage"); idx >= 0 {
		return deviceLink[:idx] + "/manage/usage/list#c=" + clientID + "'>" + clientDesc + "</a>"
	}

	return clientDesc
}

// DashboardURL is the dashboard landing link shown in health output.
func (c *Client) DashboardURL() string {
	if c.config.OverrideDashboard != "" {
		return c.config.OverrideDashboard
	}

	return "https://dashboard.meraki.com/"
}
