// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package court assembles the historical court: a workflow that puts a
// historical topic on trial and writes a balanced verdict.
//
//	court_clerk (entry)
//	└── historical_court_system (sequential)
//	    ├── trial_and_review (loop, max_iterations)
//	    │   ├── investigation_team (parallel)
//	    │   │   ├── admirer -> pos_data
//	    │   │   └── critic  -> neg_data
//	    │   └── judge -> JUDGE_FEEDBACK or exit_loop
//	    └── verdict_writer -> <output_dir>/<Topic>_verdict.txt
package court

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/agent/entryagent"
	"github.com/kadirpekel/tribunal/pkg/agent/llmagent"
	"github.com/kadirpekel/tribunal/pkg/agent/workflowagent"
	"github.com/kadirpekel/tribunal/pkg/config"
	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/observability"
	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/controltool"
	"github.com/kadirpekel/tribunal/pkg/tool/filetool"
	"github.com/kadirpekel/tribunal/pkg/tool/statetool"
	"github.com/kadirpekel/tribunal/pkg/tool/wikitool"
)

// Agent names.
const (
	Clerk          = "court_clerk"
	System         = "historical_court_system"
	TrialAndReview = "trial_and_review"
	Investigation  = "investigation_team"
	Admirer        = "admirer"
	Critic         = "critic"
	Judge          = "judge"
	VerdictWriter  = "verdict_writer"
)

// State fields.
const (
	FieldTopic           = entryagent.DefaultTopicKey
	FieldJudgeFeedback   = "JUDGE_FEEDBACK"
	FieldPositive        = "pos_data"
	FieldNegative        = "neg_data"
	FieldVerdictFilename = "verdict_filename"
)

// Models assigns a model to every role. Roles may share one model.
type Models struct {
	Admirer model.LLM
	Critic  model.LLM
	Judge   model.LLM
	Writer  model.LLM

	// Clerk greets the user when no topic is given. Optional.
	Clerk model.LLM
}

// Shared returns Models using llm for every role.
func Shared(llm model.LLM) Models {
	return Models{Admirer: llm, Critic: llm, Judge: llm, Writer: llm, Clerk: llm}
}

func (m Models) validate() error {
	for role, llm := range map[string]model.LLM{
		Admirer:       m.Admirer,
		Critic:        m.Critic,
		Judge:         m.Judge,
		VerdictWriter: m.Writer,
	} {
		if llm == nil {
			return fmt.Errorf("no model for %s", role)
		}
	}
	return nil
}

// Deps carries what the court needs besides its configuration.
type Deps struct {
	Models Models

	// WorkingDirectory anchors the verdict output directory.
	// Default: "."
	WorkingDirectory string

	// Metrics and Tracer instrument every agent. Optional.
	Metrics observability.Metrics
	Tracer  *observability.Tracer
}

// VerdictFilename derives the verdict file name from a topic: spaces
// become underscores and "_verdict.txt" is appended. Path separators are
// replaced too so the name always stays inside the output directory.
func VerdictFilename(topic string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(topic))
	return name + "_verdict.txt"
}

// VerdictPath is where the verdict for topic is written.
func VerdictPath(workingDir, outputDir, topic string) string {
	return filepath.Join(workingDir, outputDir, VerdictFilename(topic))
}

// Build assembles the court from cfg and returns its root agent.
func Build(cfg config.CourtConfig, deps Deps) (agent.Agent, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Models.validate(); err != nil {
		return nil, err
	}

	b := &builder{cfg: cfg, deps: deps}
	return b.build()
}

type builder struct {
	cfg  config.CourtConfig
	deps Deps
}

func (b *builder) build() (agent.Agent, error) {
	investigatorTools := []tool.CallableTool{statetool.AppendToState()}
	if b.cfg.Wikipedia.IsEnabled() {
		wiki, err := wikitool.New(wikitool.Config{
			BaseURL:    b.cfg.Wikipedia.BaseURL,
			MaxResults: b.cfg.Wikipedia.MaxResults,
		})
		if err != nil {
			return nil, err
		}
		investigatorTools = append(investigatorTools, wiki)
	}

	investigatorGen := &model.GenerateConfig{Temperature: model.Temperature(*b.cfg.InvestigatorTemperature)}
	judgeGen := &model.GenerateConfig{Temperature: model.Temperature(*b.cfg.JudgeTemperature)}

	admirer, err := b.llm(llmagent.Config{
		Name:           Admirer,
		Description:    "Researches the positive achievements and historical contributions.",
		Model:          b.deps.Models.Admirer,
		Instruction:    admirerInstruction(b.cfg.Wikipedia.IsEnabled()),
		GenerateConfig: investigatorGen,
		Tools:          investigatorTools,
	})
	if err != nil {
		return nil, err
	}

	critic, err := b.llm(llmagent.Config{
		Name:           Critic,
		Description:    "Researches the controversies, failures, and negative aspects.",
		Model:          b.deps.Models.Critic,
		Instruction:    criticInstruction(b.cfg.Wikipedia.IsEnabled()),
		GenerateConfig: investigatorGen.Clone(),
		Tools:          investigatorTools,
	})
	if err != nil {
		return nil, err
	}

	team, err := workflowagent.NewParallel(workflowagent.ParallelConfig{
		Name:        Investigation,
		Description: "Runs the admirer and the critic in parallel to gather both sides of the history.",
		SubAgents:   []agent.Agent{admirer, critic},
	})
	if err != nil {
		return nil, err
	}

	judge, err := b.llm(llmagent.Config{
		Name:                 Judge,
		Description:          "Evaluates the gathered evidence for balance and depth.",
		Model:                b.deps.Models.Judge,
		Instruction:          judgeInstruction,
		GenerateConfig:       judgeGen,
		Tools:                []tool.CallableTool{statetool.AppendToState(), controltool.ExitLoop()},
		BeforeModelCallbacks: []llmagent.BeforeModelCallback{LogModelRequest},
		AfterModelCallbacks:  []llmagent.AfterModelCallback{LogModelResponse},
	})
	if err != nil {
		return nil, err
	}

	trial, err := workflowagent.NewLoop(workflowagent.LoopConfig{
		Name:          TrialAndReview,
		Description:   "Iterates between investigation and judging until the evidence is balanced.",
		SubAgents:     []agent.Agent{team, judge},
		MaxIterations: uint(b.cfg.MaxIterations),
		LimitPolicy:   workflowagent.LimitPolicy(b.cfg.LimitPolicy),
		FlagKey:       b.cfg.FlagKey,
		Metrics:       b.deps.Metrics,
	})
	if err != nil {
		return nil, err
	}

	writeFile, err := filetool.NewWriteFile(filetool.Config{
		WorkingDirectory: b.deps.WorkingDirectory,
		OutputRoots:      []string{b.cfg.OutputDir},
	})
	if err != nil {
		return nil, err
	}
	writer, err := b.llm(llmagent.Config{
		Name:           VerdictWriter,
		Description:    "Writes the final neutral historical report and saves it.",
		Model:          b.deps.Models.Writer,
		Instruction:    writerInstruction(b.cfg.OutputDir, b.flagKey()),
		GenerateConfig: investigatorGen.Clone(),
		Tools:          []tool.CallableTool{writeFile},
	})
	if err != nil {
		return nil, err
	}

	system, err := workflowagent.NewSequential(workflowagent.SequentialConfig{
		Name:        System,
		Description: "The main sequential flow from investigation to verdict.",
		SubAgents:   []agent.Agent{trial, writer},
	})
	if err != nil {
		return nil, err
	}

	return entryagent.New(entryagent.Config{
		Name:        Clerk,
		Description: "Greets the user and gets the historical topic.",
		TopicKey:    FieldTopic,
		Derived: map[string]entryagent.DeriveFunc{
			FieldVerdictFilename: VerdictFilename,
		},
		Workflow:            system,
		Greeter:             b.deps.Models.Clerk,
		GreetingInstruction: clerkInstruction,
		GenerateConfig:      judgeGen.Clone(),
	})
}

// flagKey is the field the writer checks for an unfinished trial, or ""
// when the limit policy never sets one.
func (b *builder) flagKey() string {
	if b.cfg.LimitPolicy == config.LimitPolicyFlag {
		return b.cfg.FlagKey
	}
	return ""
}

func (b *builder) llm(cfg llmagent.Config) (agent.Agent, error) {
	cfg.Metrics = b.deps.Metrics
	cfg.Tracer = b.deps.Tracer
	return llmagent.New(cfg)
}
