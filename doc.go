// Package tribunal is a small workflow orchestration core for LLM agents,
// and a historical court built on it.
//
// Agents form a tree. Leaf agents call a model and its tools; composite
// agents order their children:
//
//   - Sequential runs children one after another.
//   - Parallel runs children concurrently over the shared state.
//   - Loop repeats its children until one calls exit_loop or the
//     iteration bound is hit.
//
// Every agent of a run reads and writes one state store. Fields are either
// scalars or accumulators; append_to_state grows an accumulator and
// instructions render it as a bullet list through {field} placeholders.
//
// # Quick Start
//
//	go install github.com/kadirpekel/tribunal/cmd/tribunal@latest
//	export GOOGLE_API_KEY=...
//	tribunal run --topic "Cold War"
//
// Without a key, a canned session runs offline:
//
//	tribunal run --topic "Cold War" --model scripted
//
// # Using as Go Library
//
//	import (
//	    "github.com/kadirpekel/tribunal/pkg/agent/workflowagent"
//	    "github.com/kadirpekel/tribunal/pkg/court"
//	    "github.com/kadirpekel/tribunal/pkg/runner"
//	)
//
// court.Build assembles the court from a config.CourtConfig and a set of
// models; runner.Execute runs it and returns a run report.
package tribunal
