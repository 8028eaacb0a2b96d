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

// Phone is a registered telephony endpoint keyed by hardware address.
type Phone struct {
	MAC                string `json:"mac"`
	Description        string `json:"description"`
	RegistrationStatus string `json:"registrationStatus"`
	IPAddress          string `json:"ipAddress"`
}

// NumberAssignment maps an internal extension to an optional external number.
type NumberAssignment struct {
	Internal string  `json:"internal"`
	External *string `json:"external"`
}

// UserPhones is the telephony view of a single user: phones keyed by MAC
// and numbers keyed by internal extension.
type UserPhones struct {
	Phones  map[string]Phone
	Numbers map[string]NumberAssignment
}

// ModelCount tracks how many phones of one model exist and how many of
// those are not registered.
type ModelCount struct {
	Num     int
	Offline int
}

// PhoneReport is the org-wide registration report keyed by phone model.
// The "Total" key carries the overall counts.
type PhoneReport map[string]*ModelCount
