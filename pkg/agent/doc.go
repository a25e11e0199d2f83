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

// Package agent defines the core agent interfaces and types for Tribunal.
//
// # Agent Interface
//
// Every node of a workflow tree is an Agent:
//
//	type Agent interface {
//	    Name() string
//	    Description() string
//	    Run(InvocationContext) iter.Seq2[*Event, error]
//	    SubAgents() []Agent
//	}
//
// Leaf units live in the llmagent subpackage, composites (sequential,
// parallel, loop) in workflowagent, and the session entry point in
// entryagent.
//
// # Context Hierarchy
//
//   - InvocationContext: full access during agent execution
//   - CallbackContext: state modification for callbacks and tools
//   - ReadonlyContext: read-only access
//
// # Shared State
//
// All agents of one run share a single State. Scalar fields are written
// with Set, accumulator fields with Append. Reading a field that was never
// written yields nil, never an error.
//
// # Loop Control
//
// A loop composite hands its children a LoopSignal through the
// InvocationContext. Raising it asks the enclosing loop to stop after the
// current iteration body completes.
package agent
