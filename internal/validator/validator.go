// Package validator runs pattern-based checks over a resolved tree
// before anything is rendered. The rules focus on content that could
// subvert the assistant consuming the output: instruction-override
// phrases, invisible control characters, and opaque encoded payloads.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// Severity classifies a diagnostic. Errors fail the compile; warnings
// are reported and compilation continues.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one finding against the resolved tree.
type Diagnostic struct {
	Rule     string
	Severity Severity
	Block    string
	Detail   string
	Excerpt  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: [%s] block %q: %s", d.Severity, d.Rule, d.Block, d.Detail)
}

// Rule checks one property of the resolved tree.
type Rule interface {
	ID() string
	Check(tree *document.ResolvedTree) []Diagnostic
}

// Validate runs the rules over the tree and collects all findings
// rather than stopping at the first, so a user sees every problem in
// one pass.
func Validate(tree *document.ResolvedTree, rules []Rule) []Diagnostic {
	var out []Diagnostic
	for _, rule := range rules {
		out = append(out, rule.Check(tree)...)
	}
	return out
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// DefaultRules returns the standard rule set.
func DefaultRules() []Rule {
	return []Rule{
		injectionPhraseRule{},
		hiddenUnicodeRule{},
		encodedPayloadRule{},
		metaRule{},
		restrictionsRule{},
	}
}

// eachText visits every text paragraph in the tree.
func eachText(tree *document.ResolvedTree, fn func(block, paragraph string)) {
	for _, name := range tree.BlockNames() {
		b, _ := tree.Block(name)
		if b.Kind != document.KindText {
			continue
		}
		for _, p := range b.Paragraphs {
			fn(name, p)
		}
	}
}

func excerpt(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}

// injectionPhraseRule flags instruction-override phrasing that has no
// place in legitimate assistant configuration.
type injectionPhraseRule struct{}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\b.{0,30}\b(previous|prior|above|earlier)\b.{0,30}\b(instructions?|rules?|prompts?)\b`),
	regexp.MustCompile(`(?i)\byou are no longer\b`),
	regexp.MustCompile(`(?i)\b(reveal|print|output)\b.{0,30}\bsystem prompt\b`),
	regexp.MustCompile(`(?i)\bdo anything now\b`),
}

func (injectionPhraseRule) ID() string { return "injection-phrase" }

func (injectionPhraseRule) Check(tree *document.ResolvedTree) []Diagnostic {
	var out []Diagnostic
	eachText(tree, func(block, p string) {
		for _, pattern := range injectionPatterns {
			if loc := pattern.FindString(p); loc != "" {
				out = append(out, Diagnostic{
					Rule:     "injection-phrase",
					Severity: SeverityError,
					Block:    block,
					Detail:   "text matches an instruction-override pattern",
					Excerpt:  excerpt(loc),
				})
				return
			}
		}
	})
	return out
}

// hiddenUnicodeRule flags zero-width and bidirectional control
// characters, which can smuggle instructions invisible to review.
type hiddenUnicodeRule struct{}

var hiddenRunes = map[rune]string{
	'\u200b': "zero width space",
	'\u200c': "zero width non-joiner",
	'\u200d': "zero width joiner",
	'\u2060': "word joiner",
	'\ufeff': "zero width no-break space",
	'\u202a': "bidi embedding",
	'\u202b': "bidi embedding",
	'\u202d': "bidi override",
	'\u202e': "bidi override",
	'\u2066': "bidi isolate",
	'\u2067': "bidi isolate",
	'\u2068': "bidi isolate",
}

func (hiddenUnicodeRule) ID() string { return "hidden-unicode" }

func (hiddenUnicodeRule) Check(tree *document.ResolvedTree) []Diagnostic {
	var out []Diagnostic
	eachText(tree, func(block, p string) {
		for _, r := range p {
			if name, ok := hiddenRunes[r]; ok {
				out = append(out, Diagnostic{
					Rule:     "hidden-unicode",
					Severity: SeverityError,
					Block:    block,
					Detail:   fmt.Sprintf("text contains a %s character (U+%04X)", name, r),
					Excerpt:  excerpt(p),
				})
				return
			}
		}
	})
	return out
}

// encodedPayloadRule warns about long base64-looking runs, which hide
// content from review even when benign.
type encodedPayloadRule struct{}

var base64Run = regexp.MustCompile(`[A-Za-z0-9+/]{120,}={0,2}`)

func (encodedPayloadRule) ID() string { return "encoded-payload" }

func (encodedPayloadRule) Check(tree *document.ResolvedTree) []Diagnostic {
	var out []Diagnostic
	eachText(tree, func(block, p string) {
		if run := base64Run.FindString(p); run != "" {
			out = append(out, Diagnostic{
				Rule:     "encoded-payload",
				Severity: SeverityWarning,
				Block:    block,
				Detail:   "text contains a long encoded run that cannot be reviewed",
				Excerpt:  excerpt(run),
			})
		}
	})
	return out
}

// restrictionsRule checks that restriction entries are non-empty
// strings; an empty or non-string restriction silently weakens the
// block it was meant to harden.
type restrictionsRule struct{}

func (restrictionsRule) ID() string { return "restrictions" }

func (restrictionsRule) Check(tree *document.ResolvedTree) []Diagnostic {
	b, ok := tree.Block("restrictions")
	if !ok || b.Kind != document.KindArray {
		return nil
	}
	var out []Diagnostic
	for i, item := range b.Items {
		if item.IsNull() || item.Type() != cty.String || strings.TrimSpace(item.AsString()) == "" {
			out = append(out, Diagnostic{
				Rule:     "restrictions",
				Severity: SeverityError,
				Block:    "restrictions",
				Detail:   fmt.Sprintf("entry %d is not a non-empty string", i),
			})
		}
	}
	return out
}

// metaRule warns when the resolved tree lacks an identifying meta block.
type metaRule struct{}

func (metaRule) ID() string { return "meta" }

func (metaRule) Check(tree *document.ResolvedTree) []Diagnostic {
	meta, ok := tree.Block("meta")
	if !ok {
		return []Diagnostic{{
			Rule:     "meta",
			Severity: SeverityWarning,
			Block:    "meta",
			Detail:   "resolved document has no meta block",
		}}
	}
	if meta.Kind != document.KindObject || !meta.Object.Type().HasAttribute("id") {
		return []Diagnostic{{
			Rule:     "meta",
			Severity: SeverityWarning,
			Block:    "meta",
			Detail:   "meta block does not declare an id",
		}}
	}
	return nil
}
