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

package models

// BlockedRequest is one blocked DNS request retained for display.
type BlockedRequest struct {
	Timestamp  string
	InternalIP string
	Domain     string
	Categories string
}

// UserDNSStats aggregates one user's DNS activity. Aggregate is keyed by
// block category plus the "Total" request counter; Blocked holds at most
// the five most recent blocked requests.
type UserDNSStats struct {
	Blocked   []BlockedRequest
	Aggregate map[string]int
}

// DNSStats is the reduction of the materialized DNS-security logs.
// Aggregate is keyed by block category plus "Total"; Users is keyed by the
// log's actor field.
type DNSStats struct {
	Aggregate map[string]int
	Users     map[string]*UserDNSStats
}
