package court

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/model/scripted"
)

// DryRun returns scripted models that hold a two-round trial on topic
// without calling any provider: the judge asks for more detail once, then
// closes the investigation, and the writer saves a report built from the
// evidence it was shown.
func DryRun(topic, outputDir string) Models {
	investigator := func(name, field, side string) *scripted.LLM {
		return scripted.New(name,
			scripted.CallTool("append_to_state", map[string]any{
				"field":    field,
				"response": fmt.Sprintf("%s: first account of %s.", side, topic),
			}),
			scripted.Reply(fmt.Sprintf("Recorded the %s of %s.", strings.ToLower(side), topic)),
			scripted.CallTool("append_to_state", map[string]any{
				"field":    field,
				"response": fmt.Sprintf("%s: detail requested by the judge on %s.", side, topic),
			}),
			scripted.Reply("Added the requested detail."),
		).WithFallback(scripted.Reply("Nothing further to add."))
	}

	judge := scripted.New("dry-run-judge",
		scripted.CallTool("append_to_state", map[string]any{
			"field":    FieldJudgeFeedback,
			"response": "Both sides need more specific examples.",
		}),
		scripted.Reply("The evidence is thin; another round is needed."),
		scripted.CallTool("exit_loop", map[string]any{}),
	).WithFallback(scripted.CallTool("exit_loop", map[string]any{}))

	writer := scripted.New("dry-run-writer",
		func(req *model.Request) (*model.Response, error) {
			return scripted.CallTool("write_file", map[string]any{
				"directory": outputDir,
				"filename":  VerdictFilename(topic),
				"content":   "Verdict on " + topic + "\n\n" + req.SystemInstruction,
			})(req)
		},
		scripted.Reply("The verdict has been filed."),
	)

	return Models{
		Admirer: investigator("dry-run-admirer", FieldPositive, "Achievements"),
		Critic:  investigator("dry-run-critic", FieldNegative, "Criticisms"),
		Judge:   judge,
		Writer:  writer,
		Clerk:   scripted.New("dry-run-clerk").WithFallback(scripted.Reply("Welcome to The Historical Court. Whom shall we put on trial?")),
	}
}
