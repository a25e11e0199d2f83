package court

import (
	"fmt"
	"strings"
)

func investigatorInstruction(role, goal, keywords, field string, wiki bool) string {
	var b strings.Builder
	b.WriteString(`TOPIC:
{ TOPIC? }

JUDGE_FEEDBACK:
{ JUDGE_FEEDBACK? }

INSTRUCTIONS:
`)
	fmt.Fprintf(&b, "You are '%s'. Your job is to find %s of the TOPIC.\n", role, goal)
	if wiki {
		b.WriteString("- Use the 'wikipedia' tool to search.\n")
		fmt.Fprintf(&b, "- Add specific keywords to your search query, such as %s, to reach the right branch of information.\n", keywords)
		b.WriteString("- If JUDGE_FEEDBACK asks for more specific details on your side, search for those specifically.\n")
	} else {
		b.WriteString("- Rely on your own historical knowledge.\n")
		b.WriteString("- If JUDGE_FEEDBACK asks for more specific details on your side, address those specifically.\n")
	}
	fmt.Fprintf(&b, "- Once you have gathered the facts, use the 'append_to_state' tool to save your findings to the field '%s'.\n", field)
	b.WriteString("- Summarize what you found briefly.\n")
	return b.String()
}

func admirerInstruction(wiki bool) string {
	return investigatorInstruction(
		"The Admirer",
		"the positive achievements, successes, and great contributions",
		`"{TOPIC} achievements", "{TOPIC} positive impact" or "{TOPIC} successful campaigns"`,
		FieldPositive,
		wiki,
	)
}

func criticInstruction(wiki bool) string {
	return investigatorInstruction(
		"The Critic",
		"the controversies, mistakes, failures, and negative criticisms",
		`"{TOPIC} controversy", "{TOPIC} failures", "{TOPIC} criticism" or "{TOPIC} human rights violations"`,
		FieldNegative,
		wiki,
	)
}

const judgeInstruction = `TOPIC:
{ TOPIC? }

POSITIVE_EVIDENCE (Admirer):
{ pos_data? }

NEGATIVE_EVIDENCE (Critic):
{ neg_data? }

INSTRUCTIONS:
You are 'The Judge'. Review the POSITIVE_EVIDENCE and NEGATIVE_EVIDENCE to ensure a fair and balanced trial.
1. Check whether both sides have enough detail for a comprehensive historical report.
2. Check whether one side is severely lacking compared to the other.

- If the evidence is balanced and complete enough, you MUST use the 'exit_loop' tool to end the investigation.
- If the evidence is lacking or unbalanced, use the 'append_to_state' tool to add specific instructions to the field 'JUDGE_FEEDBACK' describing what the Admirer or the Critic must search for next. Do NOT use 'exit_loop' in this case.

Explain your reasoning before calling any tools.
`

func writerInstruction(outputDir, flagKey string) string {
	var b strings.Builder
	b.WriteString(`TOPIC:
{ TOPIC? }

POSITIVE_EVIDENCE:
{ pos_data? }

NEGATIVE_EVIDENCE:
{ neg_data? }
`)
	if flagKey != "" {
		fmt.Fprintf(&b, "\nINVESTIGATION_INCOMPLETE:\n{ %s? }\n", flagKey)
	}
	b.WriteString(`
INSTRUCTIONS:
You are the 'Court Reporter'. Write a comprehensive, highly objective, and neutral historical report about the TOPIC.
- Compare and contrast the positive and negative aspects.
- Conclude with a balanced summary of its historical impact.
`)
	if flagKey != "" {
		b.WriteString("- If INVESTIGATION_INCOMPLETE is true, state at the top of the report that the judge never declared the evidence balanced.\n")
	}
	fmt.Fprintf(&b, `
Use the 'write_file' tool to save the report:
- directory: '%s'
- filename: '{ verdict_filename }'
- content: the full report you just generated.
`, outputDir)
	return b.String()
}

const clerkInstruction = `- Greet the user to 'The Historical Court'.
- Ask them for a historical figure or event they want to put on trial (for example Genghis Khan or The Cold War).
`
