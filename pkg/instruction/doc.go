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

// Package instruction renders agent instructions from run state.
//
// # Placeholder Syntax
//
//	{field}      - value of a state field
//	{ field? }   - same, but state backend errors render empty
//
// Whitespace inside the braces is ignored. Fields that have never been
// written render as the empty string, so an instruction can reference
// feedback that only exists from the second loop iteration on.
//
// # Usage
//
//	tmpl := instruction.New("Topic: { TOPIC? }\nFeedback: { JUDGE_FEEDBACK? }")
//	resolved, err := tmpl.Render(ctx)
//
// llmagent renders its instruction this way before every model call.
package instruction
