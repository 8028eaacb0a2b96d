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

// EndpointCounters bucket threat events for one hostname.
type EndpointCounters struct {
	ThreatDetected         int `json:"threat_detected_count"`
	ThreatQuarantined      int `json:"threat_quarantined_count"`
	ThreatQuarantineFailed int `json:"threat_quarantine_failed_count"`
	ThreatDetectedExcluded int `json:"threat_detected_excluded_count"`
}

// EndpointAggregate carries the event-feed processing totals.
type EndpointAggregate struct {
	TotalEvents     int `json:"total_events"`
	ProcessedEvents int `json:"processed_events"`
}

// EndpointStats is the per-hostname view of the endpoint-security event
// feed. Clients is keyed by uppercased hostname as reported by the feed.
type EndpointStats struct {
	Aggregate EndpointAggregate            `json:"aggregate"`
	Clients   map[string]*EndpointCounters `json:"clients"`
}
