// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package instruction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/session"
)

// placeholderRegex matches {field}, { field? } and similar.
// One or more opening braces, content without braces, one or more closing braces.
var placeholderRegex = regexp.MustCompile(`{+[^{}]*}+`)

// Template represents an instruction template with placeholders.
type Template struct {
	raw string
}

// New creates a new instruction template.
func New(template string) *Template {
	return &Template{raw: template}
}

// Raw returns the raw template string.
func (t *Template) Raw() string {
	return t.raw
}

// Render resolves all placeholders in the template using the context.
func (t *Template) Render(ctx agent.ReadonlyContext) (string, error) {
	return InjectState(ctx, t.raw)
}

// InjectState populates field values in an instruction template.
//
// A field that was never written renders as the empty string. Accumulator
// fields render as a bullet list. A state backend failure is returned as
// an error unless the placeholder is optional. Placeholders whose name is
// not an identifier are left as-is.
func InjectState(ctx agent.ReadonlyContext, template string) (string, error) {
	if template == "" {
		return "", nil
	}

	var result strings.Builder
	lastIndex := 0
	for _, m := range placeholderRegex.FindAllStringIndex(template, -1) {
		result.WriteString(template[lastIndex:m[0]])

		replacement, err := replaceMatch(ctx, template[m[0]:m[1]])
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)
		lastIndex = m[1]
	}
	result.WriteString(template[lastIndex:])
	return result.String(), nil
}

func replaceMatch(ctx agent.ReadonlyContext, match string) (string, error) {
	name, optional := parsePlaceholder(match)
	if !isIdentifier(name) {
		return match, nil
	}

	state := ctx.ReadonlyState()
	if state == nil {
		return "", nil
	}

	value, err := state.Get(name)
	if err != nil {
		if optional {
			return "", nil
		}
		return "", fmt.Errorf("field %q: %w", name, err)
	}
	return session.Text(value), nil
}

func parsePlaceholder(match string) (name string, optional bool) {
	name = strings.TrimSpace(strings.Trim(match, "{}"))
	if trimmed, ok := strings.CutSuffix(name, "?"); ok {
		return strings.TrimSpace(trimmed), true
	}
	return name, false
}

// isIdentifier reports whether s starts with a letter or underscore and
// continues with letters, digits or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// Fields returns the distinct field names referenced by the template, in
// order of first appearance.
func Fields(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderRegex.FindAllString(template, -1) {
		name, _ := parsePlaceholder(match)
		if isIdentifier(name) && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	return names
}
