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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// The dashboard has no API for the per-shard management URLs, so the link
// map is built by walking the HTML login flow the way a browser would and
// reading the org_json XHR payload.

const scrapeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.12; rv:51.0) Gecko/20100101 Firefox/51.0"

// ScrapeConfig holds the dashboard HTTP credentials used to build the
// cross-launch link map.
type ScrapeConfig struct {
	Username string
	Password string
	LoginURL string
}

type orgChoice struct {
	ID   string
	Name string
}

type orgJSONNetwork struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Tag  string      `json:"tag"`
	EID  string      `json:"eid"`
	Type string      `json:"t"`
}

type orgJSONNode struct {
	ID   json.Number `json:"id"`
	NGID json.Number `json:"ng_id"`
	MAC  string      `json:"mac"`
	Name string      `json:"name"`
}

type orgJSON struct {
	Networks map[string]orgJSONNetwork `json:"networks"`
	Nodes    map[string]orgJSONNode    `json:"nodes"`
}

// scrapeBetween extracts the text between a marker and a terminator.
func scrapeBetween(content, marker, end string) string {
	start := strings.Index(content, marker)
	if start < 0 {
		return ""
	}

	rest := content[start+len(marker):]

	stop := strings.Index(rest, end)
	if stop < 0 {
		return ""
	}

	return rest[:stop]
}

// loginToken pulls the hidden authenticity_token out of the login page.
// Login POSTs without it are rejected.
func loginToken(content string) string {
	return scrapeBetween(content, `<input name="authenticity_token" type="hidden" value="`, `" />`)
}

// mkiconfSetting pulls a Mkiconf.<name> setting out of a dashboard page.
func mkiconfSetting(content, name string) string {
	return scrapeBetween(content, "Mkiconf."+name+` = "`, `";`)
}

// orgChoices parses the post-login organization chooser page.
func orgChoices(content string) []orgChoice {
	const marker = `<a href="/login/org_choose?eid=`

	parts := strings.Split(content, marker)

	choices := make([]orgChoice, 0, len(parts))

	for _, part := range parts[1:] {
		end := strings.Index(part, "</a>")
		if end < 0 {
			continue
		}

		fields := strings.SplitN(part[:end], `">`, 2)
		if len(fields) != 2 {
			continue
		}

		choices = append(choices, orgChoice{ID: fields[0], Name: fields[1]})
	}

	return choices
}

// wwwPath maps a network type to its management URL path. Device-level
// paths append the node ID.
func wwwPath(netType, nodeID string) string {
	suffix := ""
	if nodeID != "" {
		suffix = "/" + nodeID
	}

	switch netType {
	case "wired":
		return "/manage/nodes/new_wired_status"
	case "systems_manager":
		return "/manage/pcc/list" + suffix
	default:
		return "/manage/nodes/new_list" + suffix
	}
}

// BuildLinkMap logs into the dashboard with the configured HTTP
// credentials and assembles the cross-launch link map for the selected
// organization.
func (c *Client) BuildLinkMap(ctx context.Context, scrape ScrapeConfig) (*LinkMap, error) {
	if scrape.LoginURL == "" {
		scrape.LoginURL = "https://dashboard.meraki.com/login/login"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	session := &http.Client{Jar: jar}

	loginPage, _, err := c.scrapeGet(ctx, session, scrape.LoginURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load login page: %w", err)
	}

	token := loginToken(loginPage)
	if token == "" {
		return nil, errLoginTokenNotFound
	}

	form := url.Values{
		"utf8":               {"&#x2713;"},
		"email":              {scrape.Username},
		"password":           {scrape.Password},
		"authenticity_token": {token},
		"commit":             {"Log+in"},
		"goto":               {"manage"},
	}

	chooserPage, _, err := c.scrapePost(ctx, session, scrape.LoginURL, form)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	orgURL, err := c.orgChooseURL(ctx, scrape.LoginURL, chooserPage)
	if err != nil {
		return nil, err
	}

	orgPage, finalURL, err := c.scrapeGet(ctx, session, orgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization page: %w", err)
	}

	xhrToken := mkiconfSetting(orgPage, "authenticity_token")
	baseURL := mkiconfSetting(orgPage, "base_url")
	host := finalURL.Host

	payload, err := c.fetchOrgJSON(ctx, session, host, baseURL, xhrToken)
	if err != nil {
		return nil, err
	}

	return buildLinkMap(payload, host), nil
}

// orgChooseURL finds the org_choose link matching the selected
// organization's API name.
func (c *Client) orgChooseURL(ctx context.Context, loginURL, chooserPage string) (string, error) {
	orgName, err := c.OrgName(ctx)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(loginURL)
	if err != nil {
		return "", err
	}

	for _, choice := range orgChoices(chooserPage) {
		if choice.Name == orgName {
			return base.Scheme + "://" + base.Host + "/login/org_choose?eid=" + choice.ID, nil
		}
	}

	return "", errOrgChooserNotFound
}

// fetchOrgJSON requests the org_json XHR payload and strips the JSONP
// wrapper.
func (c *Client) fetchOrgJSON(ctx context.Context, session *http.Client, host, baseURL, xhrToken string) (*orgJSON, error) {
	now := time.Now()
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	s := strconv.FormatInt(now.Unix(), 10)

	xhrURL := "https://" + host + baseURL + "manage/organization/org_json" +
		"?jsonp=jQuery" + ms + "&t0=" + s + ".000&t1=" + s + ".000&primary_load=true&_=" + ms

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, xhrURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("X-CSRF-Token", xhrToken)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	content := string(body)

	// JSONP: callback({...}) -> {...}
	start := strings.Index(content, "({")
	if start < 0 || !strings.HasSuffix(content, ")") {
		return nil, fmt.Errorf("%w: unexpected org_json payload", errUnexpectedStatusCode)
	}

	var payload orgJSON
	if err := json.Unmarshal([]byte(content[start+1:len(content)-1]), &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func buildLinkMap(payload *orgJSON, host string) *LinkMap {
	out := &LinkMap{
		Networks: make(map[string]LinkTarget, len(payload.Networks)),
		Devices:  make(map[string]LinkTarget),
	}

	for _, network := range payload.Networks {
		netBase := "https://" + host + "/" + network.Tag + "/n/" + network.EID

		out.Networks[network.Name] = LinkTarget{BaseURL: netBase + wwwPath(network.Type, "")}

		for _, node := range payload.Nodes {
			if node.NGID.String() != network.ID.String() {
				continue
			}

			out.Devices[node.MAC] = LinkTarget{
				BaseURL: netBase + wwwPath(network.Type, node.ID.String()),
				Desc:    node.Name,
			}
		}
	}

	return out
}

func (c *Client) scrapeGet(ctx context.Context, session *http.Client, rawURL string, _ url.Values) (string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", nil, err
	}

	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := session.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	// Request URL after redirects identifies the org's shard host.
	return string(body), resp.Request.URL, nil
}

func (c *Client) scrapePost(ctx context.Context, session *http.Client, rawURL string, form url.Values) (string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", nil, err
	}

	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := session.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	return string(body), resp.Request.URL, nil
}
