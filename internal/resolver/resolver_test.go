package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwogu/promptscript/internal/binder"
	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/loader"
	"github.com/mrwogu/promptscript/internal/resolver"
	"github.com/mrwogu/promptscript/internal/testutil"
)

func TestResolveInheritanceChain(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("company/base", `
standards = "Company rule."
restrictions = ["never commit secrets"]
`).
		Add("team/backend", `
inherit "company/base" {}
standards = "Team rule."
restrictions = ["no force pushes"]
`).
		Add("me/profile", `
inherit "team/backend" {}
standards = "Personal rule."
`)

	tree := testutil.Resolve(t, src, "me/profile")

	standards, ok := tree.Block("standards")
	require.True(t, ok)
	assert.Equal(t, []string{"Company rule.", "Team rule.", "Personal rule."}, standards.Paragraphs)

	restrictions, _ := tree.Block("restrictions")
	require.Len(t, restrictions.Items, 2)
	assert.Equal(t, "never commit secrets", restrictions.Items[0].AsString())
	assert.Equal(t, "no force pushes", restrictions.Items[1].AsString())
}

func TestResolveUseWithArguments(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("fragments/service", `
param "port" {
  type    = number
  default = 8080
}
standards = "Listen on port ${port}."
`).
		Add("app/a", `
use "fragments/service" {
  with = { port = 9000 }
}
`).
		Add("app/b", `
use "fragments/service" {}
`)

	a := testutil.Resolve(t, src, "app/a")
	b := testutil.Resolve(t, src, "app/b")

	sa, _ := a.Block("standards")
	assert.Equal(t, "Listen on port 9000.", sa.Paragraphs[0])
	sb, _ := b.Block("standards")
	assert.Equal(t, "Listen on port 8080.", sb.Paragraphs[0])
}

func TestResolveAliasScopedExtend(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("fragments/sec", `
identity = {
  focus = "security"
}
`).
		Add("app/main", `
use "fragments/sec" {
  as = "sec"
}

identity = {
  role = "engineer"
}

extend "sec.identity" {
  focus = "appsec"
}
`)

	tree := testutil.Resolve(t, src, "app/main")

	// The merged block keeps the fragment contribution it picked up
	// before the extend; the alias tree carries the patched copy.
	merged, _ := tree.Block("identity")
	assert.Equal(t, "security", merged.Object.GetAttr("focus").AsString())
	assert.Equal(t, "engineer", merged.Object.GetAttr("role").AsString())

	sub, ok := tree.Alias("sec")
	require.True(t, ok)
	fb, _ := sub.Block("identity")
	assert.Equal(t, "appsec", fb.Object.GetAttr("focus").AsString())
}

func TestResolveCycle(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("a", `inherit "b" {}`).
		Add("b", `use "a" {}`)

	_, err := resolver.New(src).Resolve(context.Background(), "a", "")
	var cycle *resolver.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Chain)
}

func TestResolveSelfCycle(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("a", `inherit "a" {}`)

	_, err := resolver.New(src).Resolve(context.Background(), "a", "")
	var cycle *resolver.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "a"}, cycle.Chain)
}

func TestResolveDiamondLoadsOnce(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("shared", `standards = "Shared rule."`).
		Add("left", `inherit "shared" {}`).
		Add("right", `use "shared" {}`).
		Add("top", `
inherit "left" {}
use "right" {}
`)

	cached := loader.NewCached(src)
	_, err := resolver.New(cached).Resolve(context.Background(), "top", "")
	require.NoError(t, err)

	for _, id := range []string{"shared", "left", "right", "top"} {
		assert.Equal(t, 1, src.Loads(id, ""), "loads for %s", id)
	}
}

func TestResolveVersionConstraintsIndependent(t *testing.T) {
	src := testutil.NewMemorySource().
		AddVersion("lib", "1.0.0", `standards = "Old behavior."`).
		AddVersion("lib", "2.0.0", `standards = "New behavior."`).
		Add("app", `
use "lib" {
  as      = "old"
  version = "1.0.0"
}

use "lib" {
  as      = "new"
  version = "2.0.0"
}
`)

	tree := testutil.Resolve(t, src, "app")

	old, ok := tree.Alias("old")
	require.True(t, ok)
	ob, _ := old.Block("standards")
	assert.Equal(t, "Old behavior.", ob.Paragraphs[0])

	current, ok := tree.Alias("new")
	require.True(t, ok)
	nb, _ := current.Block("standards")
	assert.Equal(t, "New behavior.", nb.Paragraphs[0])

	// Both constraints resolved; the merged text concatenates in use
	// order.
	merged, _ := tree.Block("standards")
	assert.Equal(t, []string{"Old behavior.", "New behavior."}, merged.Paragraphs)
}

func TestResolveFailurePropagatesChain(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("a", `inherit "b" {}`).
		Add("b", `use "missing" {}`)

	_, err := resolver.New(src).Resolve(context.Background(), "a", "")

	var chain *resolver.ChainError
	require.ErrorAs(t, err, &chain)
	assert.Equal(t, []string{"a", "b", "missing"}, chain.Chain)

	var notFound *loader.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Identifier)
}

func TestResolveFailureIsTerminal(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("a", `
use "b" {}
use "c" {}
`).
		Add("c", `use "b" {}`)

	r := resolver.New(loader.NewCached(src))
	_, err := r.Resolve(context.Background(), "a", "")
	require.Error(t, err)

	// A second resolve hits the memoized failure without reloading.
	loadsBefore := src.Loads("b", "")
	_, err = r.Resolve(context.Background(), "a", "")
	require.Error(t, err)
	assert.Equal(t, loadsBefore, src.Loads("b", ""))
}

func TestResolveEntryParamDefaultsApply(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("app", `
param "env" {
  type    = string
  default = "production"
}
standards = "Deploy to ${env}."
`)

	tree := testutil.Resolve(t, src, "app")
	b, _ := tree.Block("standards")
	assert.Equal(t, "Deploy to production.", b.Paragraphs[0])
}

func TestResolveEntryRequiredParamFails(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("app", `
param "env" {
  type     = string
  required = true
}
`)

	_, err := resolver.New(src).Resolve(context.Background(), "app", "")
	var be *binder.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "env", be.Param)
}

func TestResolveArgumentTypeMismatch(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("fragments/service", `
param "port" {
  type = number
}
`).
		Add("app", `
use "fragments/service" {
  with = { port = "abc" }
}
`)

	_, err := resolver.New(src).Resolve(context.Background(), "app", "")
	var chain *resolver.ChainError
	require.ErrorAs(t, err, &chain)
	var be *binder.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "port", be.Param)
}

func TestResolveDeterministic(t *testing.T) {
	build := func() *document.ResolvedTree {
		src := testutil.NewMemorySource().
			Add("base", `
shortcuts = {
  "/test" = "run tests"
  "/lint" = "run linter"
}
restrictions = ["b", "a"]
`).
			Add("app", `
inherit "base" {}
restrictions = ["c"]
`)
		return testutil.Resolve(t, src, "app")
	}

	first := build()
	second := build()

	assert.Equal(t, first.BlockNames(), second.BlockNames())
	for _, name := range first.BlockNames() {
		fb, _ := first.Block(name)
		sb, _ := second.Block(name)
		assert.Equal(t, fb, sb, "block %s", name)
	}
}

func TestResolveEdges(t *testing.T) {
	src := testutil.NewMemorySource().
		Add("base", `standards = "x"`).
		Add("frag", `standards = "y"`).
		Add("app", `
inherit "base" {}
use "frag" {}
`)

	r := resolver.New(src)
	_, err := r.Resolve(context.Background(), "app", "")
	require.NoError(t, err)

	assert.Equal(t, []resolver.Edge{
		{From: "app", To: "base", Kind: document.RefInherit},
		{From: "app", To: "frag", Kind: document.RefUse},
	}, r.Edges())
}
