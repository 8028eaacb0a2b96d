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

import "errors"

var (
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errNoOrganizations      = errors.New("no organizations visible to API key")
	errOrgNotFound          = errors.New("organization not found")
	errLoginTokenNotFound   = errors.New("authenticity token not found in login page")
	errOrgChooserNotFound   = errors.New("organization chooser not found after login")
)
