package court_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/agent/workflowagent"
	"github.com/kadirpekel/tribunal/pkg/config"
	"github.com/kadirpekel/tribunal/pkg/court"
	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/model/scripted"
	"github.com/kadirpekel/tribunal/pkg/runner"
	"github.com/kadirpekel/tribunal/pkg/session"
)

func courtConfig(maxIterations int, policy string) config.CourtConfig {
	disabled := false
	cfg := config.CourtConfig{
		MaxIterations: maxIterations,
		LimitPolicy:   policy,
		Wikipedia:     config.WikipediaConfig{Enabled: &disabled},
	}
	cfg.SetDefaults()
	return cfg
}

func appendStep(field, text string) scripted.Step {
	return scripted.CallTool("append_to_state", map[string]any{"field": field, "response": text})
}

// reportWriter saves a report that quotes the evidence from its instruction.
func reportWriter() *scripted.LLM {
	return scripted.New("writer",
		func(req *model.Request) (*model.Response, error) {
			return scripted.CallTool("write_file", map[string]any{
				"directory": "historical_verdicts",
				"filename":  "Cold_War_verdict.txt",
				"content":   "REPORT\n" + req.SystemInstruction,
			})(req)
		},
		scripted.Reply("Report saved."),
	)
}

func execute(t *testing.T, root agent.Agent, topic string) (*runner.Report, error) {
	t.Helper()
	r, err := runner.New(runner.Config{AppName: "tribunal", Agent: root, SessionService: session.InMemoryService()})
	require.NoError(t, err)
	return r.Execute(context.Background(), "user", agent.NewTextContent(topic, a2a.MessageRoleUser))
}

func TestColdWar_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	admirer := scripted.New("admirer",
		appendStep(court.FieldPositive, "Marshall Plan rebuilt Western Europe"),
		scripted.Reply("Found the Marshall Plan."),
		appendStep(court.FieldPositive, "Space race advanced science"),
		scripted.Reply("Added science."),
	)
	critic := scripted.New("critic",
		appendStep(court.FieldNegative, "Proxy wars in Korea and Vietnam"),
		scripted.Reply("Found proxy wars."),
		appendStep(court.FieldNegative, "Nuclear brinkmanship in Cuba"),
		scripted.Reply("Added Cuba."),
	)
	judge := scripted.New("judge",
		appendStep(court.FieldJudgeFeedback, "Critic: cover the Cuban missile crisis."),
		scripted.Reply("Unbalanced, one more round."),
		scripted.CallTool("exit_loop", map[string]any{}),
	)
	writer := reportWriter()

	root, err := court.Build(courtConfig(4, config.LimitPolicyAccept), court.Deps{
		Models:           court.Models{Admirer: admirer, Critic: critic, Judge: judge, Writer: writer},
		WorkingDirectory: dir,
	})
	require.NoError(t, err)

	report, err := execute(t, root, "Cold War")
	require.NoError(t, err)

	assert.Equal(t, runner.LoopResult{State: workflowagent.LoopExited, Iterations: 2}, report.Loops[court.TrialAndReview])

	path := filepath.Join(dir, "historical_verdicts", "Cold_War_verdict.txt")
	assert.Equal(t, []string{path}, report.Files)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	verdict := string(data)
	for _, evidence := range []string{
		"Marshall Plan rebuilt Western Europe",
		"Space race advanced science",
		"Proxy wars in Korea and Vietnam",
		"Nuclear brinkmanship in Cuba",
	} {
		assert.Contains(t, verdict, evidence)
	}

	assert.Equal(t, "Cold War", report.State[court.FieldTopic])
	assert.Equal(t, "Cold_War_verdict.txt", report.State[court.FieldVerdictFilename])
	assert.Len(t, report.State[court.FieldPositive], 2)
	assert.Len(t, report.State[court.FieldNegative], 2)
	assert.Equal(t, []string{"Critic: cover the Cuban missile crisis."}, report.State[court.FieldJudgeFeedback])

	// Second-round investigators see the judge's feedback.
	criticReqs := critic.Requests()
	require.Len(t, criticReqs, 4)
	assert.NotContains(t, criticReqs[0].SystemInstruction, "Cuban missile crisis")
	assert.Contains(t, criticReqs[2].SystemInstruction, "Cuban missile crisis")

	// The judge rules on both sides.
	judgeReqs := judge.Requests()
	require.Len(t, judgeReqs, 3)
	assert.Contains(t, judgeReqs[0].SystemInstruction, "- Marshall Plan rebuilt Western Europe")
	assert.Contains(t, judgeReqs[0].SystemInstruction, "- Proxy wars in Korea and Vietnam")
	assert.Zero(t, *judgeReqs[0].Config.Temperature)

	writerReqs := writer.Requests()
	require.Len(t, writerReqs, 2)
	assert.Contains(t, writerReqs[0].SystemInstruction, "filename: 'Cold_War_verdict.txt'")
	assert.Contains(t, writerReqs[0].SystemInstruction, "directory: 'historical_verdicts'")
	assert.InDelta(t, 0.2, *writerReqs[0].Config.Temperature, 1e-9)

	assert.Zero(t, admirer.Remaining()+critic.Remaining()+judge.Remaining()+writer.Remaining())
}

func TestTrial_IterationLimitPolicies(t *testing.T) {
	tests := []struct {
		policy       string
		wantErr      error
		wantVerdict  bool
		wantFlagText bool
	}{
		{policy: config.LimitPolicyAccept, wantVerdict: true},
		{policy: config.LimitPolicyFlag, wantVerdict: true, wantFlagText: true},
		{policy: config.LimitPolicyFail, wantErr: workflowagent.ErrIterationLimit},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			dir := t.TempDir()
			quiet := func(name string) *scripted.LLM {
				return scripted.New(name).WithFallback(scripted.Reply("Nothing new."))
			}
			judge := scripted.New("judge").WithFallback(scripted.Reply("Still unbalanced."))
			writer := reportWriter()

			root, err := court.Build(courtConfig(2, tt.policy), court.Deps{
				Models:           court.Models{Admirer: quiet("admirer"), Critic: quiet("critic"), Judge: judge, Writer: writer},
				WorkingDirectory: dir,
			})
			require.NoError(t, err)

			report, err := execute(t, root, "Cold War")
			assert.Len(t, judge.Requests(), 2, "judge runs once per iteration")
			assert.Equal(t, runner.LoopResult{State: workflowagent.LoopIterationLimitReached, Iterations: 2}, report.Loops[court.TrialAndReview])

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, writer.Requests())
				assert.Equal(t, court.TrialAndReview, report.FailedAgent)
				return
			}
			require.NoError(t, err)
			require.Len(t, writer.Requests(), 2)
			instr := writer.Requests()[0].SystemInstruction
			if tt.wantFlagText {
				assert.Contains(t, instr, "INVESTIGATION_INCOMPLETE:\ntrue")
				assert.Equal(t, "true", report.State["loop_exhausted"])
			} else {
				assert.NotContains(t, instr, "INVESTIGATION_INCOMPLETE")
			}
			assert.FileExists(t, filepath.Join(dir, "historical_verdicts", "Cold_War_verdict.txt"))
		})
	}
}

func TestJudge_ToolMisuseIsReportedToModel(t *testing.T) {
	quiet := func(name string) *scripted.LLM {
		return scripted.New(name).WithFallback(scripted.Reply("Done."))
	}
	judge := scripted.New("judge",
		scripted.CallTool("summon_witness", map[string]any{"name": "Khrushchev"}),
		scripted.CallTool("append_to_state", map[string]any{"field": court.FieldJudgeFeedback}),
		scripted.CallTool("exit_loop", map[string]any{}),
	)

	root, err := court.Build(courtConfig(4, config.LimitPolicyAccept), court.Deps{
		Models:           court.Models{Admirer: quiet("admirer"), Critic: quiet("critic"), Judge: judge, Writer: reportWriter()},
		WorkingDirectory: t.TempDir(),
	})
	require.NoError(t, err)

	report, err := execute(t, root, "Cold War")
	require.NoError(t, err)
	assert.Equal(t, runner.LoopResult{State: workflowagent.LoopExited, Iterations: 1}, report.Loops[court.TrialAndReview])

	reqs := judge.Requests()
	require.Len(t, reqs, 3)
	unknown := scripted.LastToolResults(reqs[1])
	require.Len(t, unknown, 1)
	assert.True(t, unknown[0].IsError)
	assert.Contains(t, unknown[0].Content, "summon_witness")

	missing := scripted.LastToolResults(reqs[2])
	require.Len(t, missing, 1)
	assert.True(t, missing[0].IsError)
	assert.Nil(t, report.State[court.FieldJudgeFeedback])
}

func TestWriter_FailureNamesUnitAndTool(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the output directory should be makes the
	// destination unwritable.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "historical_verdicts"), nil, 0o644))

	quiet := func(name string) *scripted.LLM {
		return scripted.New(name).WithFallback(scripted.Reply("Done."))
	}
	judge := scripted.New("judge", scripted.CallTool("exit_loop", map[string]any{}))
	root, err := court.Build(courtConfig(4, config.LimitPolicyAccept), court.Deps{
		Models:           court.Models{Admirer: quiet("admirer"), Critic: quiet("critic"), Judge: judge, Writer: reportWriter()},
		WorkingDirectory: dir,
	})
	require.NoError(t, err)

	report, err := execute(t, root, "Cold War")
	require.Error(t, err)
	assert.Equal(t, court.VerdictWriter, report.FailedAgent)
	assert.Equal(t, "write_file", report.FailedTool)
	assert.True(t, strings.HasPrefix(err.Error(), court.Clerk+": "+court.System+": "), err.Error())
}

func TestDryRun(t *testing.T) {
	dir := t.TempDir()
	root, err := court.Build(courtConfig(4, config.LimitPolicyAccept), court.Deps{
		Models:           court.DryRun("Genghis Khan", "historical_verdicts"),
		WorkingDirectory: dir,
	})
	require.NoError(t, err)

	report, err := execute(t, root, "Genghis Khan")
	require.NoError(t, err)
	assert.Equal(t, runner.LoopResult{State: workflowagent.LoopExited, Iterations: 2}, report.Loops[court.TrialAndReview])

	data, err := os.ReadFile(court.VerdictPath(dir, "historical_verdicts", "Genghis Khan"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Achievements: first account of Genghis Khan.")
	assert.Contains(t, string(data), "Criticisms: detail requested by the judge on Genghis Khan.")
}

func TestVerdictFilename(t *testing.T) {
	tests := map[string]string{
		"Cold War":                     "Cold_War_verdict.txt",
		"Genghis Khan":                 "Genghis_Khan_verdict.txt",
		"  Napoleon ":                  "Napoleon_verdict.txt",
		"AC/DC":                        "AC_DC_verdict.txt",
		"The Fall of the Roman Empire": "The_Fall_of_the_Roman_Empire_verdict.txt",
	}
	for topic, want := range tests {
		assert.Equal(t, want, court.VerdictFilename(topic), topic)
	}
}

func TestBuild_Validation(t *testing.T) {
	llm := scripted.New("m")

	_, err := court.Build(courtConfig(4, config.LimitPolicyAccept), court.Deps{Models: court.Models{Admirer: llm}})
	assert.ErrorContains(t, err, "no model for")

	_, err = court.Build(courtConfig(4, "retry"), court.Deps{Models: court.Shared(llm)})
	assert.ErrorContains(t, err, "invalid limit_policy")
}

func TestBuild_Tree(t *testing.T) {
	root, err := court.Build(courtConfig(4, config.LimitPolicyAccept), court.Deps{Models: court.Shared(scripted.New("m"))})
	require.NoError(t, err)

	parents, err := agent.BuildParentMap(root)
	require.NoError(t, err)
	assert.Equal(t, court.Clerk, root.Name())
	assert.Equal(t, court.System, parents[court.TrialAndReview].Name())
	assert.Equal(t, court.Investigation, parents[court.Admirer].Name())
	assert.Equal(t, court.Investigation, parents[court.Critic].Name())
	assert.Equal(t, court.TrialAndReview, parents[court.Judge].Name())
	assert.Equal(t, court.System, parents[court.VerdictWriter].Name())
}

func TestNewModels(t *testing.T) {
	models, err := court.NewModels(context.Background(), config.ModelConfig{Provider: config.ProviderScripted}, "Cold War", "out")
	require.NoError(t, err)
	assert.NotNil(t, models.Judge)
	assert.Equal(t, model.ProviderScripted, models.Writer.Provider())

	_, err = court.NewModels(context.Background(), config.ModelConfig{Provider: "openai"}, "Cold War", "out")
	assert.ErrorContains(t, err, "unknown model provider")
}
