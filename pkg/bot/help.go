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

package bot

import (
	"fmt"
	"strings"
)

// HelpRenderer formats the help reply. Supplied at construction so the
// greeting and layout can be replaced without touching dispatch.
type HelpRenderer interface {
	RenderHelp(commands []Command) string
}

// DefaultHelp lists every visible command under a greeting. A command
// whose help text starts with "*" is hidden from the listing.
type DefaultHelp struct {
	Greeting string
}

// RenderHelp implements HelpRenderer.
func (h *DefaultHelp) RenderHelp(commands []Command) string {
	var b strings.Builder

	if h.Greeting != "" {
		b.WriteString(h.Greeting + "\n")
	} else {
		b.WriteString("Hello!  I understand the following commands:  \n")
	}

	for _, command := range commands {
		if strings.HasPrefix(command.Help, "*") {
			continue
		}

		fmt.Fprintf(&b, "* **%s**: %s \n", command.Name, command.Help)
	}

	return b.String()
}
