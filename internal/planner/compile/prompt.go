package compile

import (
	"fmt"
	"strings"

	"github.com/teerev/llm-contract-harness/internal/planner/validate"
)

const (
	placeholderSpec      = "{{PRODUCT_SPEC}}"
	placeholderDoctrine  = "{{DOCTRINE}}"
	placeholderRepoHints = "{{REPO_HINTS}}"
)

// maxRevisionResponseChars bounds how much of a prior raw response is
// replayed into a revision prompt, so a runaway first attempt never blows
// the context budget of the next one.
const maxRevisionResponseChars = 20_000

// RenderPrompt substitutes named placeholders in templateText.
// {{PRODUCT_SPEC}} is required; {{DOCTRINE}} and {{REPO_HINTS}} are
// optional and replaced with "" when absent from the template or when the
// caller passes "".
func RenderPrompt(templateText, specText, doctrine, repoHints string) (string, error) {
	if !strings.Contains(templateText, placeholderSpec) {
		return "", fmt.Errorf("compile: template is missing required placeholder %s", placeholderSpec)
	}
	out := strings.ReplaceAll(templateText, placeholderSpec, specText)
	out = strings.ReplaceAll(out, placeholderDoctrine, doctrine)
	out = strings.ReplaceAll(out, placeholderRepoHints, repoHints)
	return out, nil
}

// BuildRevisionPrompt constructs the follow-up prompt: the original spec,
// the previous response (truncated), and the structured error list
// rendered as "[CODE] WO-NN: message" lines. Modeled on plancritic's
// prompt.BuildRepair, which pairs a validation-error list with the original
// output and asks for a corrected JSON-only response.
func BuildRevisionPrompt(specText, previousResponse string, errs []validate.ValidationError) string {
	var b strings.Builder
	b.WriteString("The manifest JSON you returned failed validation. Fix every error listed below and return ONLY the corrected JSON — no markdown fences, no prose.\n\n")
	b.WriteString("## Original product spec\n\n")
	b.WriteString(specText)
	b.WriteString("\n\n## Validation errors\n\n")
	for _, e := range errs {
		wo := e.WorkOrder
		if wo == "" {
			wo = "-"
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Code, wo, e.Message)
	}
	b.WriteString("\n## Your previous response\n\n```json\n")
	b.WriteString(truncateForRevision(previousResponse))
	b.WriteString("\n```\n")
	return b.String()
}

func truncateForRevision(s string) string {
	r := []rune(s)
	if len(r) <= maxRevisionResponseChars {
		return s
	}
	return string(r[:maxRevisionResponseChars]) + "\n...[truncated]"
}
