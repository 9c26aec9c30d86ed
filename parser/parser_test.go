/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tmgrammar/grammar"
	"bennypowers.dev/tmgrammar/internal/logger"
	"bennypowers.dev/tmgrammar/internal/mapfs"
	"bennypowers.dev/tmgrammar/parser"
	"bennypowers.dev/tmgrammar/pattern"
	"bennypowers.dev/tmgrammar/testutil"
)

func matchOf(t *testing.T, out *grammar.Output, name string) any {
	t.Helper()
	rule, ok := out.Repository[name].(pattern.Rule)
	require.True(t, ok, "repository entry %s is %T", name, out.Repository[name])
	return rule["match"]
}

func TestParseFile_YAML(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/perl", "/test")

	g, err := parser.ParseFile(mfs, "/test/perl.yaml")
	require.NoError(t, err)

	out, err := g.Compile()
	require.NoError(t, err)

	assert.Equal(t, "Perl", out.Name)
	assert.Equal(t, "source.perl", out.ScopeName)
	assert.Equal(t, []string{"This code was generated from perl.yaml"}, out.Information)

	assert.Equal(t, `(\d+(?:_\d+)*)`, matchOf(t, out, "numbers"))
	assert.Equal(t, `((?:==)|(?:!=)|(?:=~)|(?:!~)|(?:<=>))`, matchOf(t, out, "operators"))
	assert.Equal(t, `(['"])(.*?)\1`, matchOf(t, out, "quoted"))

	using, ok := out.Repository["using_statement"].(pattern.Rule)
	require.True(t, ok)
	assert.Equal(t, "meta.import", using["name"])
	assert.Equal(t, `(use)\s+(\w+)`, using["begin"])
	assert.Equal(t, `(;)`, using["end"])

	want := []any{
		map[string]any{"include": "#using_statement"},
		map[string]any{"include": "#numbers"},
		map[string]any{"include": "#special_vars"},
		map[string]any{"include": "#operators"},
		map[string]any{"include": "#punctuation"},
		map[string]any{"include": "#strings"},
	}
	if diff := cmp.Diff(want, out.Patterns); diff != "" {
		t.Errorf("patterns mismatch (-want +got):\n%s", diff)
	}

	specialVars := pattern.Rule{"patterns": []any{
		pattern.Rule{
			"match":    `(\$\^[A-Z^_?\[\]])`,
			"captures": map[string]any{"1": map[string]any{"name": "variable.language.special.caret"}},
		},
	}}
	if diff := cmp.Diff(specialVars, out.Repository["special_vars"]); diff != "" {
		t.Errorf("special_vars mismatch (-want +got):\n%s", diff)
	}

	assert.NoError(t, grammar.Validate(out))
}

func TestParseFile_RawRulesAreConverted(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/perl", "/test")

	g, err := parser.ParseFile(mfs, "/test/perl.yaml")
	require.NoError(t, err)

	heredoc, ok := g.Get("heredoc")
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"begin":    `<<(\w+)`,
		"end":      `^\1$`,
		"patterns": []any{map[string]any{"include": "#$initial_context"}},
	}, heredoc)
}

func TestParse_JSONWithComments(t *testing.T) {
	data := testutil.LoadFixtureFile(t, "fixtures/jsonc/parens.json")

	g, err := parser.Parse(data)
	require.NoError(t, err)

	out, err := g.Compile()
	require.NoError(t, err)

	assert.Equal(t, "Parens", out.Name)
	assert.Equal(t, `(\()[^()]*(?:\g<1>|[^()])*\)`, matchOf(t, out, "parens"))
	assert.Equal(t, `\d{3,4}`, matchOf(t, out, "digits"))
	assert.Equal(t, []any{map[string]any{"include": "#parens"}}, out.Patterns)

	parens, ok := g.Get("parens")
	require.True(t, ok)
	assert.IsType(t, &pattern.Pattern{}, parens)
}

func TestParse_Quantifiers(t *testing.T) {
	tests := []struct {
		name     string
		node     string
		expected string
	}{
		{"maybe", `{match: ab, maybe: true}`, `(?:ab)?`},
		{"maybe false", `{match: ab, maybe: false}`, `ab`},
		{"zero or more", `{match: a, zeroOrMore: true}`, `a*`},
		{"at most", `{match: a, atMost: 2}`, `a{0,2}`},
		{"at least", `{match: a, atLeast: 2}`, `a{2,}`},
		{"exactly", `{match: a, atLeast: 2, atMost: 2}`, `a{2}`},
		{"nested match", `{match: {match: a, then: [b]}, oneOrMore: true}`, `(?:ab)+`},
		{"bare scalar", `'\w+'`, `\w+`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := parser.Parse([]byte("scopeName: source.q\nrepository:\n  x: " + tt.node + "\n"))
			require.NoError(t, err)

			out, err := g.Compile()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matchOf(t, out, "x"))
		})
	}
}

func TestParse_OneOfNotAList(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	g, err := parser.Parse([]byte("scopeName: source.q\nrepository:\n  x: {oneOf: ab}\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "expects a list of patterns")

	out, err := g.Compile()
	require.NoError(t, err)
	assert.Equal(t, `(?:(?:ab))`, matchOf(t, out, "x"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing scope", "name: Test\n"},
		{"two kinds", "scopeName: s\nrepository:\n  x: {match: a, placeholder: b}\n"},
		{"no kind", "scopeName: s\nrepository:\n  x: {tagAs: t}\n"},
		{"unknown key", "scopeName: s\nrepository:\n  x: {match: a, colour: red}\n"},
		{"options on placeholder", "scopeName: s\nrepository:\n  x: {placeholder: a, tagAs: t}\n"},
		{"non-integer count", "scopeName: s\nrepository:\n  x: {match: a, atLeast: many}\n"},
		{"non-boolean quantifier", "scopeName: s\nrepository:\n  x: {match: a, maybe: yes please}\n"},
		{"unknown range key", "scopeName: s\nrepository:\n  x: {begin: a, end: b, finish: c}\n"},
		{"reference name not a string", "scopeName: s\nrepository:\n  x: {matchResultOf: [a]}\n"},
		{"number entry", "scopeName: s\nrepository:\n  x: 42\n"},
		{"number in list", "scopeName: s\npatterns: [1]\n"},
		{"includes not a list", "scopeName: s\nrepository:\n  x: {match: a, includes: b}\n"},
		{"json number entry", `{"scopeName": "s", "repository": {"x": 1.5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse([]byte(tt.data))
			assert.ErrorIs(t, err, parser.ErrInvalidDefinition)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := parser.Parse([]byte("scopeName: [\n"))
	assert.ErrorContains(t, err, "failed to parse YAML")

	_, err = parser.Parse([]byte(`{"scopeName": `))
	assert.ErrorContains(t, err, "failed to parse JSON")
}

func TestParseFile_Missing(t *testing.T) {
	_, err := parser.ParseFile(mapfs.New(), "/nope.yaml")
	assert.ErrorContains(t, err, "failed to read /nope.yaml")
}
