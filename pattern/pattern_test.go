/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tmgrammar/pattern"
)

func TestNew_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		pattern  *pattern.Pattern
		expected string
	}{
		{"literal", pattern.New(`\w+`), `\w+`},
		{"regexp", pattern.New(regexp.MustCompile(`[0-9]+`)), `[0-9]+`},
		{"tagged", pattern.New(`\w+`, pattern.TagAs("entity.name")), `(\w+)`},
		{"maybe atom", pattern.New(`a`, pattern.Maybe()), `a?`},
		{"maybe sequence", pattern.New(`ab`, pattern.Maybe()), `(?:ab)?`},
		{"zero or more class", pattern.New(`[a-z]`, pattern.ZeroOrMore()), `[a-z]*`},
		{"tagged one or more", pattern.New(`a`, pattern.OneOrMore(), pattern.TagAs("t")), `(a+)`},
		{"bounded", pattern.New(`\d`, pattern.Times(2, 4)), `\d{2,4}`},
		{"exact", pattern.New(`\d`, pattern.Times(3, 3)), `\d{3}`},
		{"at least", pattern.New(`\d`, pattern.Times(2, -1)), `\d{2,}`},
		{"nested", pattern.New(pattern.New("a").Then("b"), pattern.TagAs("t")), `(ab)`},
		{"nested quantified", pattern.New(pattern.New("a").Then("b"), pattern.OneOrMore()), `(?:ab)+`},
		{"chain", pattern.New("use").Then(`\s+`).Then(`\w+`, pattern.TagAs("t")), `use\s+(\w+)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pattern.Evaluate(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNew_UnsupportedMatch(t *testing.T) {
	_, err := pattern.New(42).Evaluate(nil)
	assert.ErrorIs(t, err, pattern.ErrUnsupportedMatch)

	var missing *pattern.Pattern
	_, err = pattern.New(missing).Evaluate(nil)
	assert.ErrorIs(t, err, pattern.ErrUnsupportedMatch)
}

func TestInsert_DoesNotModifyReceiver(t *testing.T) {
	base := pattern.New("a")
	extended := base.Then("b")

	got, err := base.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = extended.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
	assert.Nil(t, base.Next())
}

func TestDeepClone_DiamondIsIndependent(t *testing.T) {
	shared := pattern.New("s", pattern.TagAs("t"))
	p := pattern.OneOf([]any{shared, shared})

	got, err := p.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "(?:(s)|(s))", got)

	groups := p.CollectGroupAttributes(1)
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Group)
	assert.Equal(t, 2, groups[1].Group)

	clone := p.DeepClone()
	scrambled := clone.ScrambleReferences()
	assert.Equal(t, p.String(), clone.String())
	assert.Equal(t, p.String(), scrambled.String())
}

func TestPlaceholder_Unresolved(t *testing.T) {
	p := pattern.Placeholder("foo")

	_, err := p.Evaluate(nil)
	assert.ErrorIs(t, err, pattern.ErrUnresolvedPlaceholder)

	_, err = p.Tag()
	assert.ErrorIs(t, err, pattern.ErrUnresolvedPlaceholder)

	_, err = pattern.OneOf([]any{"a", p}).Tag()
	assert.ErrorIs(t, err, pattern.ErrUnresolvedPlaceholder)

	assert.False(t, p.SingleEntity())
	assert.Equal(t, `Placeholder("foo")`, p.String())
}

func TestPlaceholder_Resolve(t *testing.T) {
	p := pattern.Placeholder("foo")

	resolved, err := p.Resolve(pattern.Repository{"foo": pattern.New(regexp.MustCompile("bar"))})
	require.NoError(t, err)

	got, err := resolved.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "bar", got)
	assert.True(t, resolved.Frozen())

	_, err = p.Evaluate(nil)
	assert.ErrorIs(t, err, pattern.ErrUnresolvedPlaceholder, "template must stay unresolved")
}

func TestPlaceholder_ResolveErrors(t *testing.T) {
	_, err := pattern.Placeholder("foo").Resolve(pattern.Repository{})
	assert.ErrorIs(t, err, pattern.ErrUnresolvedPlaceholder)

	_, err = pattern.Placeholder("foo").Resolve(pattern.Repository{"foo": "bar"})
	assert.ErrorIs(t, err, pattern.ErrNotPattern)
	assert.False(t, errors.Is(err, pattern.ErrUnresolvedPlaceholder))

	_, err = pattern.Placeholder("foo").Resolve(pattern.Repository{"foo": []any{"bar"}})
	assert.ErrorIs(t, err, pattern.ErrNotPattern)
}

func TestPlaceholder_ResolveTransitively(t *testing.T) {
	repo := pattern.Repository{
		"word":       pattern.New(`\w+`, pattern.TagAs("entity.name")),
		"assignment": pattern.Placeholder("word").Then(`\s*=\s*`).Placeholder("word"),
	}

	resolved, err := pattern.New("let ").Placeholder("assignment").Resolve(repo)
	require.NoError(t, err)

	rule, err := resolved.Tag()
	require.NoError(t, err)
	assert.Equal(t, `let (\w+)\s*=\s*(\w+)`, rule["match"])
	assert.Equal(t, map[string]any{
		"1": map[string]any{"name": "entity.name"},
		"2": map[string]any{"name": "entity.name"},
	}, rule["captures"])
}

func TestPlaceholder_CircularReference(t *testing.T) {
	repo := pattern.Repository{
		"a": pattern.Placeholder("b"),
		"b": pattern.New("x").Placeholder("a"),
	}

	_, err := pattern.Placeholder("a").Resolve(repo)
	assert.ErrorIs(t, err, pattern.ErrCircularReference)
}

func TestResolve_DoesNotMutateTemplate(t *testing.T) {
	template := pattern.New("a").OneOf([]any{pattern.Placeholder("x"), "b"}, pattern.TagAs("t"))
	before := template.String()

	first, err := template.Resolve(pattern.Repository{"x": pattern.New("one")})
	require.NoError(t, err)
	second, err := template.Resolve(pattern.Repository{"x": pattern.New("two")})
	require.NoError(t, err)

	assert.Equal(t, before, template.String())
	assert.False(t, template.Frozen())
	_, err = template.Evaluate(nil)
	assert.ErrorIs(t, err, pattern.ErrUnresolvedPlaceholder)

	got, err := first.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "a((?:one)|b)", got)

	got, err = second.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "a((?:two)|b)", got)
}

func TestResolve_ReachesIncludes(t *testing.T) {
	p := pattern.New(`\{.*\}`, pattern.Includes("block", pattern.Placeholder("number")))

	resolved, err := p.Resolve(pattern.Repository{"number": pattern.New(`\d+`, pattern.TagAs("constant.numeric"))})
	require.NoError(t, err)

	rule, err := resolved.Tag()
	require.NoError(t, err)
	assert.Equal(t, `(\{.*\})`, rule["match"])
	assert.Equal(t, map[string]any{
		"1": map[string]any{
			"patterns": []any{
				map[string]any{"include": "#block"},
				pattern.Rule{
					"match":    `(\d+)`,
					"captures": map[string]any{"1": map[string]any{"name": "constant.numeric"}},
				},
			},
		},
	}, rule["captures"])
}

func TestResolve_Frozen(t *testing.T) {
	resolved, err := pattern.New("a").Resolve(pattern.Repository{})
	require.NoError(t, err)

	err = resolved.Map(false, func(*pattern.Pattern) error { return nil })
	assert.ErrorIs(t, err, pattern.ErrFrozen)

	extended := resolved.Then("b")
	assert.False(t, extended.Frozen())
	got, err := extended.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestPlaceholders(t *testing.T) {
	p := pattern.OneOf([]any{pattern.Placeholder("b"), pattern.Placeholder("a")}).Placeholder("b")
	assert.Equal(t, []string{"a", "b"}, p.Placeholders())
}

func TestTag(t *testing.T) {
	p := pattern.New("use", pattern.TagAs("keyword.other.use")).
		Then(`\s+`).
		Then(`\w+`, pattern.TagAs("entity.name.package"))

	rule, err := p.Tag()
	require.NoError(t, err)
	assert.Equal(t, pattern.Rule{
		"match": `(use)\s+(\w+)`,
		"captures": map[string]any{
			"1": map[string]any{"name": "keyword.other.use"},
			"2": map[string]any{"name": "entity.name.package"},
		},
	}, rule)
}

func TestTag_RawGroupsShiftNumbering(t *testing.T) {
	p := pattern.New("(a|b)").
		Then(`\w+`, pattern.TagAs("entity.name"), pattern.Reference("n")).
		MatchResultOf("n")

	rule, err := p.Tag()
	require.NoError(t, err)
	assert.Equal(t, pattern.Rule{
		"match": `(a|b)(\w+)\2`,
		"captures": map[string]any{
			"2": map[string]any{"name": "entity.name"},
		},
	}, rule)
}

func TestCollectGroupAttributes_RawSource(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{`\d+`, 0},
		{"(a)(b)", 2},
		{"((a)b)", 2},
		{"(?:a)(?=b)(?<!c)(?>d)", 0},
		{"(?<year>\\d{4})(?'m'\\d\\d)(?P<d>x)", 3},
		{`\(a\)`, 0},
		{"[(]x[^)(]", 0},
		{"(?#skip ( here)(y)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			groups := pattern.New(tt.src).CollectGroupAttributes(4)
			require.Len(t, groups, tt.want)
			for i, group := range groups {
				assert.Equal(t, pattern.GroupAttributes{Group: 4 + i}, group)
			}
		})
	}
}

func TestTagWithin_BeginReference(t *testing.T) {
	begin := pattern.New("<<").Then(`\w+`, pattern.Reference("delim")).CollectGroupAttributes(1)

	rule, err := pattern.New("^").MatchResultOf("delim").Then("$").TagWithin(begin)
	require.NoError(t, err)
	assert.Equal(t, pattern.Rule{"match": `^\1$`}, rule)

	own := pattern.New("(x)").Then("y", pattern.Reference("delim")).MatchResultOf("delim")
	rule, err = own.TagWithin(begin)
	require.NoError(t, err)
	assert.Equal(t, `(x)(y)\2`, rule["match"], "a name the pattern carries wins over begin")

	_, err = pattern.RecursivelyMatch("delim").TagWithin(begin)
	assert.ErrorIs(t, err, pattern.ErrUnknownReference, "subroutines cannot call begin groups")
}

func TestTag_UntaggedHasNoCaptures(t *testing.T) {
	rule, err := pattern.New(`;`).Tag()
	require.NoError(t, err)
	assert.Equal(t, pattern.Rule{"match": ";"}, rule)
}

func TestIncludeTarget(t *testing.T) {
	tests := map[string]string{
		"numbers":     "#numbers",
		"#numbers":    "#numbers",
		"$self":       "$self",
		"$base":       "$base",
		"$initial":    "#$initial",
		"source.perl": "source.perl",
	}
	for in, want := range tests {
		assert.Equal(t, want, pattern.IncludeTarget(in), in)
	}
}

func TestRender_Chain(t *testing.T) {
	p := pattern.New("a").
		Then("b", pattern.TagAs("t"), pattern.Reference("r"), pattern.Maybe()).
		MatchResultOf("r").
		RecursivelyMatch("r").
		Placeholder("p")

	want := "New(`a`).Then(`b`, TagAs(\"t\"), Reference(\"r\"), Maybe())" +
		".MatchResultOf(\"r\").RecursivelyMatch(\"r\").Placeholder(\"p\")"
	assert.Equal(t, want, p.String())
}
