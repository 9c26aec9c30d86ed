/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package inspect

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tmgrammar/grammar"
	"bennypowers.dev/tmgrammar/parser"
	"bennypowers.dev/tmgrammar/pattern"
	"bennypowers.dev/tmgrammar/testutil"
)

func loadFixture(t *testing.T, dir, file string) *grammar.Grammar {
	t.Helper()
	mfs := testutil.NewFixtureFS(t, dir, "/test")
	g, err := parser.ParseFile(mfs, "/test/"+file)
	require.NoError(t, err)
	return g
}

func TestInspect_Patterns(t *testing.T) {
	g := loadFixture(t, "fixtures/jsonc", "parens.json")

	entries := Inspect(g, []string{"parens", "digits", "nope"}, false)
	require.Len(t, entries, 3)

	assert.Equal(t, "pattern", entries[0].Kind)
	assert.Equal(t, `(\()[^()]*(?:\g<1>|[^()])*\)`, entries[0].Match)
	assert.Contains(t, entries[0].Composition, "open")
	assert.NotContains(t, entries[0].Composition, pattern.ScramblePrefix)

	assert.Equal(t, `\d{3,4}`, entries[1].Match)
	assert.Empty(t, entries[1].Error)

	assert.Equal(t, Entry{Name: "nope", Kind: "missing"}, entries[2])
}

func TestInspect_Scramble(t *testing.T) {
	g := loadFixture(t, "fixtures/jsonc", "parens.json")

	entries := Inspect(g, []string{"parens"}, true)
	require.Len(t, entries, 1)

	assert.Contains(t, entries[0].Composition, pattern.ScramblePrefix+"open")
	assert.Equal(t, `(\()[^()]*(?:\g<1>|[^()])*\)`, entries[0].Match)

	original, ok := g.Get("parens")
	require.True(t, ok)
	assert.NotContains(t, original.(*pattern.Pattern).String(), pattern.ScramblePrefix)
}

func TestInspect_AllEntries(t *testing.T) {
	g := loadFixture(t, "fixtures/perl", "perl.yaml")

	entries := Inspect(g, nil, false)

	byName := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		byName[entry.Name] = entry
	}

	using := byName["using_statement"]
	assert.Equal(t, "range", using.Kind)
	assert.Contains(t, using.Dependencies, "semicolon")
	assert.Contains(t, byName["semicolon"].Dependents, "using_statement")
	assert.Empty(t, byName["semicolon"].Dependencies)
	assert.NotEmpty(t, using.Match)

	assert.Equal(t, "list", byName["punctuation"].Kind)
	assert.Equal(t, "rule", byName["heredoc"].Kind)
	assert.Equal(t, `(['"])(.*?)\1`, byName["quoted"].Match)
}

func TestInspect_UnresolvedPlaceholder(t *testing.T) {
	g := grammar.New("", "source.test")
	g.Set("uses", pattern.New("a").Placeholder("absent"))

	entries := Inspect(g, nil, false)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Error)
	assert.Empty(t, entries[0].Match)
}

func TestOutput(t *testing.T) {
	entries := []Entry{
		{Name: "digits", Kind: "pattern", Composition: "New(`\\d`)", Match: `\d{3,4}`, Dependents: []string{"number"}},
		{Name: "missing", Kind: "missing"},
	}

	var table bytes.Buffer
	require.NoError(t, outputTable(&table, entries))
	assert.Contains(t, table.String(), "  match: \\d{3,4}\n")
	assert.Contains(t, table.String(), "missing")
	assert.Contains(t, table.String(), "  used by: number\n")

	var js bytes.Buffer
	require.NoError(t, outputJSON(&js, entries))
	var decoded []Entry
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, entries, decoded)
}
