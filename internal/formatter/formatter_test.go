package formatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/formatter"
)

func sampleTree() *document.ResolvedTree {
	return document.NewResolvedTree("team/backend", map[string]*document.BlockContent{
		"meta": document.NewObject(cty.ObjectVal(map[string]cty.Value{
			"id":          cty.StringVal("team/backend"),
			"description": cty.StringVal("Backend conventions."),
		})),
		"standards":    document.NewText("Write table-driven tests.\n\nRun the linter."),
		"restrictions": document.NewArray([]cty.Value{cty.StringVal("never commit secrets")}),
		"shortcuts": document.NewKeyedMap(map[string]cty.Value{
			"/test": cty.StringVal("go test ./..."),
			"/lint": cty.StringVal("golangci-lint run"),
		}),
		"identity": document.NewObject(cty.ObjectVal(map[string]cty.Value{
			"role": cty.StringVal("backend engineer"),
			"voice": cty.ObjectVal(map[string]cty.Value{
				"tone": cty.StringVal("direct"),
			}),
		})),
		"workflow": document.NewText("Branch from main."),
	}, []string{"meta", "workflow", "shortcuts", "standards", "restrictions", "identity"})
}

func TestClaudeRender(t *testing.T) {
	out, err := formatter.Claude{}.Render(sampleTree())
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "# team/backend\n\nBackend conventions.\n\n"))

	// Canonical sections first, then the rest lexically; block
	// declaration order does not leak into the output.
	wantOrder := []string{"## Identity", "## Standards", "## Restrictions", "## Shortcuts", "## Workflow"}
	last := -1
	for _, heading := range wantOrder {
		idx := strings.Index(text, heading)
		require.GreaterOrEqual(t, idx, 0, "missing %s", heading)
		assert.Greater(t, idx, last, "%s out of order", heading)
		last = idx
	}

	// Meta never renders as its own section.
	assert.NotContains(t, text, "## Meta")

	assert.Contains(t, text, "- never commit secrets\n")
	assert.Contains(t, text, "Write table-driven tests.\n\nRun the linter.\n")
	assert.Contains(t, text, "- **role**: backend engineer\n")
	assert.Contains(t, text, "- **voice**:\n  - **tone**: direct\n")

	// Keyed map entries sort by key.
	lintIdx := strings.Index(text, "- `/lint`")
	testIdx := strings.Index(text, "- `/test`")
	require.GreaterOrEqual(t, lintIdx, 0)
	assert.Greater(t, testIdx, lintIdx)
}

func TestRenderDeterministic(t *testing.T) {
	first, err := formatter.Claude{}.Render(sampleTree())
	require.NoError(t, err)
	second, err := formatter.Claude{}.Render(sampleTree())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCursorRenderPlainText(t *testing.T) {
	out, err := formatter.Cursor{}.Render(sampleTree())
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "team/backend\n============\n"))
	assert.Contains(t, text, "Standards\n---------\n")
	assert.NotContains(t, text, "## ")
}

func TestCopilotRender(t *testing.T) {
	out, err := formatter.Copilot{}.Render(sampleTree())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Copilot instructions: team/backend\n"))
}

func TestAgentsRender(t *testing.T) {
	out, err := formatter.Agents{}.Render(sampleTree())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# team/backend\n"))
}

func TestTitleFallsBackToSourceID(t *testing.T) {
	tree := document.NewResolvedTree("entry", map[string]*document.BlockContent{
		"standards": document.NewText("x"),
	}, nil)

	out, err := formatter.Claude{}.Render(tree)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# entry\n"))
}

func TestRegistry(t *testing.T) {
	reg := formatter.Default()
	assert.Equal(t, []string{"agents", "claude", "copilot", "cursor"}, reg.Names())

	f, err := reg.Get("claude")
	require.NoError(t, err)
	assert.Equal(t, "CLAUDE.md", f.Filename())

	_, err = reg.Get("zed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "zed"`)
}
