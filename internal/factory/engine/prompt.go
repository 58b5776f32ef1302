package engine

import (
	"fmt"
	"strings"

	"github.com/teerev/llm-contract-harness/internal/schema"
)

// renderSEPrompt builds the proposing prompt: the work order's own fields,
// the context files with their base-hash hints, and the prior attempt's
// FailureBrief when this is a retry. Modeled on planner/compile.RenderPrompt's
// section-building shape, generalized from named-placeholder substitution to
// direct composition since the SE prompt has no caller-supplied template.
func renderSEPrompt(wo schema.WorkOrder, ctxFiles []contextFile, prior *schema.FailureBrief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Work order %s: %s\n\n", wo.ID, wo.Title)
	b.WriteString(wo.Intent)
	b.WriteString("\n\n## Allowed files (the only paths you may write)\n\n")
	for _, p := range wo.AllowedFiles {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if len(wo.Forbidden) > 0 {
		b.WriteString("\n## Forbidden (advisory, not enforced)\n\n")
		for _, p := range wo.Forbidden {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	b.WriteString("\n## Context files\n\n")
	if len(ctxFiles) == 0 {
		b.WriteString("(none)\n")
	}
	for _, cf := range ctxFiles {
		fmt.Fprintf(&b, "\n### %s (base_sha256=%s)\n\n```\n%s\n```\n", cf.Path, cf.SHA256, cf.Content)
		if cf.Truncated {
			b.WriteString("\n[truncated: aggregate context budget exceeded]\n")
		}
	}

	if prior != nil {
		fmt.Fprintf(&b, "\n## Previous attempt failed (stage=%s)\n\n%s\n\n%s\n", prior.Stage, prior.PrimaryErrorExcerpt, prior.ConstraintsReminder)
	}

	b.WriteString("\n## Response format\n\n")
	b.WriteString("Return ONLY JSON matching {\"summary\": string, \"writes\": [{\"path\": string, \"base_sha256\": string, \"content\": string}]}. " +
		"base_sha256 must be the SHA-256 hex digest you believe the file currently holds (the empty-bytes digest for a new file). " +
		"content must be the complete new file contents, not a diff. No markdown fences, no prose.\n")
	return b.String()
}

// stripMarkdownFences removes a single leading/trailing fence pair around an
// LLM response. Duplicated from planner/compile.stripMarkdownFences rather
// than imported, keeping the planner and factory subsystems free of a
// cross-import for a small string helper.
func stripMarkdownFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	lines := strings.Split(t, "\n")
	if len(lines) < 2 {
		return s
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		return s
	}
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) != "```" {
		return s
	}
	return strings.Join(lines[1:last], "\n")
}
