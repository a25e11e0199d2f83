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

package functiontool

import (
	"github.com/mitchellh/mapstructure"
)

// decodeArgs converts model-supplied arguments into a typed struct.
// Unknown keys are rejected. Numbers arrive from JSON as float64, so weak
// typing is enabled for scalar conversions.
func decodeArgs(m map[string]any, target any) error {
	if m == nil {
		m = map[string]any{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(m)
}

// missingRequired lists the schema's required properties absent from args.
func missingRequired(schema map[string]any, args map[string]any) []string {
	var missing []string
	for _, name := range requiredNames(schema) {
		if v, ok := args[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func requiredNames(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}
