package formatter

import (
	"fmt"
	"strings"

	"github.com/mrwogu/promptscript/internal/document"
)

// Claude renders CLAUDE.md.
type Claude struct{}

func (Claude) Name() string     { return "claude" }
func (Claude) Filename() string { return "CLAUDE.md" }

func (Claude) Render(tree *document.ResolvedTree) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# " + title(tree) + "\n\n")
	if desc := metaLine(tree, "description"); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	sb.WriteString(renderBody(tree, renderOptions{
		heading: func(t string) string { return "## " + t },
	}))
	return []byte(sb.String()), nil
}

// Copilot renders .github/copilot-instructions.md.
type Copilot struct{}

func (Copilot) Name() string     { return "copilot" }
func (Copilot) Filename() string { return ".github/copilot-instructions.md" }

func (Copilot) Render(tree *document.ResolvedTree) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# Copilot instructions: " + title(tree) + "\n\n")
	if desc := metaLine(tree, "description"); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	sb.WriteString(renderBody(tree, renderOptions{
		heading: func(t string) string { return "## " + t },
	}))
	return []byte(sb.String()), nil
}

// Cursor renders .cursorrules, which is plain text rather than
// Markdown, so sections use underlined headers.
type Cursor struct{}

func (Cursor) Name() string     { return "cursor" }
func (Cursor) Filename() string { return ".cursorrules" }

func (Cursor) Render(tree *document.ResolvedTree) ([]byte, error) {
	var sb strings.Builder
	t := title(tree)
	sb.WriteString(t + "\n" + strings.Repeat("=", len(t)) + "\n\n")
	if desc := metaLine(tree, "description"); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	sb.WriteString(renderBody(tree, renderOptions{
		heading: func(t string) string { return fmt.Sprintf("%s\n%s", t, strings.Repeat("-", len(t))) },
	}))
	return []byte(sb.String()), nil
}

// Agents renders AGENTS.md.
type Agents struct{}

func (Agents) Name() string     { return "agents" }
func (Agents) Filename() string { return "AGENTS.md" }

func (Agents) Render(tree *document.ResolvedTree) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# " + title(tree) + "\n\n")
	if desc := metaLine(tree, "description"); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	sb.WriteString(renderBody(tree, renderOptions{
		heading: func(t string) string { return "## " + t },
	}))
	return []byte(sb.String()), nil
}
