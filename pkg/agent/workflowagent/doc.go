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

// Package workflowagent provides composite agents that orchestrate other
// agents without calling a model themselves.
//
// # SequentialAgent
//
// Runs sub-agents once, in the order they are listed. Child i+1 starts
// only after child i has completed; the first failure stops the sequence.
//
//	system, _ := workflowagent.NewSequential(workflowagent.SequentialConfig{
//	    Name:      "historical_court_system",
//	    SubAgents: []agent.Agent{trial, writer},
//	})
//
// # ParallelAgent
//
// Runs sub-agents concurrently over the same state. A failing child does
// not cancel its siblings; failures are reported together once every
// child has finished.
//
//	investigation, _ := workflowagent.NewParallel(workflowagent.ParallelConfig{
//	    Name:      "investigation",
//	    SubAgents: []agent.Agent{admirer, critic},
//	})
//
// # LoopAgent
//
// Runs its sub-agents as a sequential body until a descendant raises the
// loop's exit signal or MaxIterations bodies have run:
//
//	trial, _ := workflowagent.NewLoop(workflowagent.LoopConfig{
//	    Name:          "trial_and_review",
//	    SubAgents:     []agent.Agent{investigation, judge},
//	    MaxIterations: 4,
//	})
//
// The signal is reset at the start of every iteration and read only after
// the whole body has completed. The loop's last event carries its final
// state; see LoopOutcome. Under LimitFail an exhausted loop then fails with
// ErrIterationLimit, wrapped in an agent.RunError naming the loop.
package workflowagent
