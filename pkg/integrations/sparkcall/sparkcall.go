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

// Package sparkcall is the cloud-telephony integration. Phone registration
// state and number assignments come from the calling-management API scoped
// to the organization behind the configured token.
package sparkcall

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/httpretry"
	"github.com/meraki/spark-operations-bot/pkg/logger"
	"github.com/meraki/spark-operations-bot/pkg/models"
)

const (
	defaultAPIBaseURL  = "https://api.ciscospark.com/v1"
	defaultCMIBaseURL  = "https://cmi.huron-dev.com/api/v2"
	defaultSCIMBaseURL = "https://identity.webex.com/identity/scim"

	orgURIPrefix = "ciscospark://us/ORGANIZATION/"
)

// Config holds the telephony integration settings.
type Config struct {
	APIToken          string
	OverrideDashboard string

	// Endpoint overrides for tests.
	APIBaseURL  string
	CMIBaseURL  string
	SCIMBaseURL string
}

// Client talks to the telephony APIs for one organization.
type Client struct {
	config     Config
	httpClient *http.Client
	log        zerolog.Logger

	mu    sync.Mutex
	orgID string
}

// NewClient creates a telephony API client.
func NewClient(config Config) *Client {
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}

	if config.CMIBaseURL == "" {
		config.CMIBaseURL = defaultCMIBaseURL
	}

	if config.SCIMBaseURL == "" {
		config.SCIMBaseURL = defaultSCIMBaseURL
	}

	return &Client{
		config:     config,
		httpClient: httpretry.NewClient(),
		log:        logger.WithComponent("sparkcall"),
	}
}

type apiErrorEnvelope struct {
	Error *struct {
		Key     string `json:"key"`
		Message string `json:"message"`
	} `json:"error"`
}

// getJSON issues an authenticated GET and decodes the response body into
// out, surfacing API error envelopes as errors.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w '%d - %s", errServerStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if envelope.Error != nil {
		return fmt.Errorf("%w '%s - %s", errServerMessage, envelope.Error.Key, envelope.Error.Message)
	}

	return json.Unmarshal(body, out)
}

// decodeBase64 decodes base64 data whose padding may have been stripped.
func decodeBase64(data string) ([]byte, error) {
	if missing := len(data) % 4; missing != 0 {
		data += strings.Repeat("=", 4-missing)
	}

	return base64.StdEncoding.DecodeString(data)
}

// OrgID resolves the organization UUID behind the configured token. The
// people endpoint returns the org as an encoded URI; the UUID is the part
// after the organization prefix. Resolved once per process.
func (c *Client) OrgID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.orgID != "" {
		return c.orgID, nil
	}

	var me struct {
		OrgID string `json:"orgId"`
	}

	if err := c.getJSON(ctx, c.config.APIBaseURL+"/people/me", &me); err != nil {
		return "", err
	}

	if me.OrgID == "" {
		return "", errNoOrgID
	}

	decoded, err := decodeBase64(me.OrgID)
	if err != nil {
		return "", err
	}

	c.orgID = strings.TrimPrefix(string(decoded), orgURIPrefix)

	return c.orgID, nil
}

type cmiPhone struct {
	Description        string  `json:"description"`
	RegistrationStatus string  `json:"registrationStatus"`
	IPAddress          *string `json:"ipAddress"`
	MAC                string  `json:"mac"`
}

// phoneModel extracts the model from a phone description, which has the
// shape "desc (MODEL SIP)". Descriptions without parentheses are used
// whole.
func phoneModel(description string) string {
	open := strings.Index(description, "(")
	if open < 0 {
		return description
	}

	closing := strings.Index(description, ")")
	if closing < open {
		closing = len(description)
	}

	return strings.ReplaceAll(description[open+1:closing], " SIP", "")
}

// GetDeviceReport tallies every phone in the organization into per-model
// registered/offline counters, plus a Total entry.
func (c *Client) GetDeviceReport(ctx context.Context) (models.PhoneReport, error) {
	orgID, err := c.OrgID(ctx)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Users []struct {
			Phones []cmiPhone `json:"phones"`
		} `json:"users"`
	}

	if err := c.getJSON(ctx, c.config.CMIBaseURL+"/customers/"+orgID+"/users?wide=true", &listing); err != nil {
		return nil, err
	}

	report := models.PhoneReport{}
	total := &models.ModelCount{}

	for _, user := range listing.Users {
		for _, phone := range user.Phones {
			total.Num++

			model := phoneModel(phone.Description)

			count, ok := report[model]
			if !ok {
				count = &models.ModelCount{}
				report[model] = count
			}

			count.Num++

			if phone.RegistrationStatus != "Registered" {
				count.Offline++
				total.Offline++
			}
		}
	}

	report["Total"] = total

	return report, nil
}

// SearchUsers finds active users whose username, given name, family name,
// or display name starts with the given text. Returns matching user IDs.
func (c *Client) SearchUsers(ctx context.Context, username string) ([]string, error) {
	orgID, err := c.OrgID(ctx)
	if err != nil {
		return nil, err
	}

	quoted := "%22" + url.QueryEscape(username) + "%22"
	filter := "active%20eq%20true%20and%20(userName%20sw%20" + quoted +
		"%20or%20name.givenName%20sw%20" + quoted +
		"%20or%20name.familyName%20sw%20" + quoted +
		"%20or%20displayName%20sw%20" + quoted + ")"

	searchURL := c.config.SCIMBaseURL + "/" + orgID + "/v1/Users?filter=" + filter +
		"&attributes=name,userName,userStatus,entitlements,displayName,photos,roles,active," +
		"trainSiteNames,licenseID,userSettings&count=100&sortBy=name&sortOrder=ascending"

	var result struct {
		Resources []struct {
			ID string `json:"id"`
		} `json:"Resources"`
	}

	if err := c.getJSON(ctx, searchURL, &result); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Resources))
	for _, resource := range result.Resources {
		ids = append(ids, resource.ID)
	}

	return ids, nil
}

// GetUserInfo fetches the phones and number assignments for one user.
func (c *Client) GetUserInfo(ctx context.Context, userID string) (*models.UserPhones, error) {
	orgID, err := c.OrgID(ctx)
	if err != nil {
		return nil, err
	}

	var detail struct {
		Phones  []cmiPhone `json:"phones"`
		Numbers []struct {
			Internal string  `json:"internal"`
			External *string `json:"external"`
		} `json:"numbers"`
	}

	if err := c.getJSON(ctx, c.config.CMIBaseURL+"/customers/"+orgID+"/users/"+userID+"?wide=true", &detail); err != nil {
		return nil, err
	}

	info := &models.UserPhones{
		Phones:  make(map[string]models.Phone, len(detail.Phones)),
		Numbers: make(map[string]models.NumberAssignment, len(detail.Numbers)),
	}

	for _, phone := range detail.Phones {
		ip := "N/A"
		if phone.IPAddress != nil {
			ip = *phone.IPAddress
		}

		info.Phones[phone.MAC] = models.Phone{
			MAC:                phone.MAC,
			Description:        phone.Description,
			RegistrationStatus: phone.RegistrationStatus,
			IPAddress:          ip,
		}
	}

	for _, number := range detail.Numbers {
		info.Numbers[number.Internal] = models.NumberAssignment{
			Internal: number.Internal,
			External: number.External,
		}
	}

	return info, nil
}

// UserInfoByIdentifier searches for the identifier and fetches the last
// matching user's phones and numbers. No match yields an empty record.
func (c *Client) UserInfoByIdentifier(ctx context.Context, identifier string) (*models.UserPhones, error) {
	ids, err := c.SearchUsers(ctx, identifier)
	if err != nil {
		return nil, err
	}

	info := &models.UserPhones{
		Phones:  map[string]models.Phone{},
		Numbers: map[string]models.NumberAssignment{},
	}

	for _, id := range ids {
		info, err = c.GetUserInfo(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return info, nil
}
