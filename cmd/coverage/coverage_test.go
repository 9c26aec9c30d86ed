/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package coverage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tmgrammar/coverage"
	"bennypowers.dev/tmgrammar/internal/mapfs"
)

const pairGrammar = `{
  "scopeName": "source.pair",
  "patterns": [
    { "match": "a" },
    { "match": "b" }
  ]
}`

const unusedGrammar = `{
  // never sampled
  "scopeName": "source.unused",
  "patterns": [{ "match": "z" }]
}`

func newFS() *mapfs.MapFileSystem {
	mfs := mapfs.New()
	mfs.AddFile("/syntaxes/pair.json", pairGrammar, 0644)
	mfs.AddFile("/syntaxes/unused.json", unusedGrammar, 0644)
	return mfs
}

func TestRun(t *testing.T) {
	samples := strings.NewReader(`{"source": "source.pair:3", "time": 0.5, "chosen": true}
{"source": "source.pair:4", "time": 0.25, "failure": true}
`)

	var buf bytes.Buffer
	summaries, err := Run(newFS(), []string{"/syntaxes/pair.json", "/syntaxes/unused.json"}, samples, &buf)
	require.NoError(t, err)

	require.Len(t, summaries, 1)
	assert.Equal(t, "source.pair", summaries[0].ScopeName)
	assert.InDelta(t, 0.5, summaries[0].Chosen, 1e-9)
	assert.InDelta(t, 0.5, summaries[0].Failure, 1e-9)

	assert.Contains(t, buf.String(), "code coverage for source.pair:")
	assert.NotContains(t, buf.String(), "source.unused")
}

func TestRun_UnknownScope(t *testing.T) {
	samples := strings.NewReader(`{"source": "source.other:3", "chosen": true}`)

	var buf bytes.Buffer
	_, err := Run(newFS(), []string{"/syntaxes/pair.json"}, samples, &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, coverage.ErrUnknownSource))
}

func TestRun_GrammarErrors(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/syntaxes/anonymous.json", `{"patterns": []}`, 0644)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", "/syntaxes/missing.json", "error reading /syntaxes/missing.json"},
		{"no scope name", "/syntaxes/anonymous.json", "grammar has no scopeName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Run(mfs, []string{tt.path}, strings.NewReader(""), &buf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_MalformedSamples(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(newFS(), []string{"/syntaxes/pair.json"}, strings.NewReader("{\nnot json\n"), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading samples")
}

func TestCheckThreshold(t *testing.T) {
	summaries := []coverage.Summary{
		{ScopeName: "source.good", Chosen: 0.9},
		{ScopeName: "source.poor", Chosen: 0.25},
	}

	assert.NoError(t, checkThreshold(summaries, 0))
	assert.NoError(t, checkThreshold(summaries, 20))

	err := checkThreshold(summaries, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.poor: 25.00% chosen is below 50.00%")
}
