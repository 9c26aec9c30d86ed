/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package coverage measures how often each expression of a compiled grammar
// is tried, and with what outcome, while a tokenizer runs over test inputs.
//
// Expressions are identified by their location in the grammar JSON: the
// scope name and the 0-based line of the match, begin, end or while key.
package coverage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coregx/coregex"
	"github.com/tidwall/jsonc"
)

// ErrUnknownSource is returned when recording against a location the grammar does not have.
var ErrUnknownSource = errors.New("unknown coverage source")

// Outcome indexes the per-location counters.
type Outcome int

const (
	// Failure counts attempts where the expression did not match.
	Failure Outcome = iota
	// Unchosen counts matches that lost to another expression.
	Unchosen
	// Chosen counts matches the tokenizer used.
	Chosen
)

// trackedPointer selects the JSON pointers of keys holding expressions.
var trackedPointer = coregex.MustCompile(`(?:match|begin|end|while)$`)

// Location holds the counters for one expression.
type Location struct {
	Source  string
	Pointer string
	Count   [3]int
	SumTime [3]time.Duration
}

// Considered reports whether the expression was ever tried.
func (l *Location) Considered() bool {
	return l.Count != [3]int{}
}

// Recorder accumulates coverage for a single grammar. It is not safe for
// concurrent use.
type Recorder struct {
	scopeName string
	locations map[string]*Location
	empty     bool
}

// NewRecorder creates a recorder with one location per expression key in
// grammar, which may contain comments.
func NewRecorder(grammar []byte, scopeName string) (*Recorder, error) {
	data := jsonc.ToJSON(grammar)

	r := &Recorder{
		scopeName: scopeName,
		locations: make(map[string]*Location),
		empty:     true,
	}
	w := &pointerWalker{
		dec:      json.NewDecoder(bytes.NewReader(data)),
		newlines: newlineOffsets(data),
		visit: func(pointer string, line int) {
			if !trackedPointer.MatchString(pointer) {
				return
			}
			source := scopeName + ":" + strconv.Itoa(line)
			r.locations[source] = &Location{Source: source, Pointer: pointer}
		},
	}
	if err := w.value(""); err != nil {
		return nil, fmt.Errorf("parsing grammar %s: %w", scopeName, err)
	}
	return r, nil
}

// pointerWalker streams a JSON document and calls visit with the JSON
// pointer and 0-based line of every object member.
type pointerWalker struct {
	dec      *json.Decoder
	newlines []int
	visit    func(pointer string, line int)
}

func (w *pointerWalker) value(pointer string) error {
	tok, err := w.dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		for w.dec.More() {
			tok, err := w.dec.Token()
			if err != nil {
				return err
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("object key %v at offset %d is not a string", tok, w.dec.InputOffset())
			}
			child := pointer + "/" + escapePointer(key)
			w.visit(child, w.lineAt(w.dec.InputOffset()))
			if err := w.value(child); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; w.dec.More(); i++ {
			if err := w.value(pointer + "/" + strconv.Itoa(i)); err != nil {
				return err
			}
		}
	}

	// closing delimiter
	_, err = w.dec.Token()
	return err
}

// lineAt returns the 0-based line holding the byte before offset. Keys never
// span lines, so the offset just past a key gives the key's line.
func (w *pointerWalker) lineAt(offset int64) int {
	return sort.SearchInts(w.newlines, int(offset))
}

func newlineOffsets(data []byte) []int {
	var offsets []int
	for i, b := range data {
		if b == '\n' {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(token string) string {
	return pointerEscaper.Replace(token)
}

// ScopeName returns the scope the recorder was created for.
func (r *Recorder) ScopeName() string {
	return r.scopeName
}

// IsEmpty reports whether nothing has been recorded yet.
func (r *Recorder) IsEmpty() bool {
	return r.empty
}

// Sources returns the known locations in sorted order.
func (r *Recorder) Sources() []string {
	sources := make([]string, 0, len(r.locations))
	for source := range r.locations {
		sources = append(sources, source)
	}
	slices.Sort(sources)
	return sources
}

// Location returns a copy of the counters for source.
func (r *Recorder) Location(source string) (Location, bool) {
	loc, ok := r.locations[source]
	if !ok {
		return Location{}, false
	}
	return *loc, true
}

// Record counts one attempt of the expression at source. A failure takes
// precedence over chosen. When the expression was the only candidate and was
// chosen, it is counted as unchosen as well, so that lone patterns are not
// reported as never losing.
func (r *Recorder) Record(source string, elapsed time.Duration, chosen, failure, onlyPattern bool) error {
	loc, ok := r.locations[source]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	r.empty = false

	outcome := Unchosen
	switch {
	case failure:
		outcome = Failure
	case chosen:
		outcome = Chosen
	}
	loc.Count[outcome]++
	loc.SumTime[outcome] += elapsed

	if onlyPattern && chosen {
		loc.Count[Unchosen]++
		loc.SumTime[Unchosen] += elapsed
	}
	return nil
}

// Summary is the outcome of a coverage report. Fractions are of all
// locations, and Average is the mean of the three outcome fractions.
type Summary struct {
	ScopeName     string
	Failure       float64
	Unchosen      float64
	Chosen        float64
	Average       float64
	NotConsidered int
	Total         int
}

// Summarize computes the report figures without printing them.
func (r *Recorder) Summarize() Summary {
	s := Summary{ScopeName: r.scopeName, Total: len(r.locations)}
	var hits [3]int
	for _, loc := range r.locations {
		for outcome, count := range loc.Count {
			if count > 0 {
				hits[outcome]++
			}
		}
		if !loc.Considered() {
			s.NotConsidered++
		}
	}
	if s.Total == 0 {
		return s
	}

	total := float64(s.Total)
	s.Failure = float64(hits[Failure]) / total
	s.Unchosen = float64(hits[Unchosen]) / total
	s.Chosen = float64(hits[Chosen]) / total
	s.Average = (s.Failure + s.Unchosen + s.Chosen) / 3
	return s
}

// Report prints the coverage figures to w and returns them.
func (r *Recorder) Report(w io.Writer) Summary {
	s := r.Summarize()
	notConsidered := 0.0
	if s.Total > 0 {
		notConsidered = float64(s.NotConsidered) / float64(s.Total)
	}
	fmt.Fprintf(w, "code coverage for %s:\n", s.ScopeName)
	fmt.Fprintf(w, "\t%.2f%% / %.2f%% / %.2f%% / %.2f%%\n",
		s.Failure*100, s.Unchosen*100, s.Chosen*100, s.Average*100)
	fmt.Fprintf(w, "\t(match failure / match not chosen / match chosen / average)\n")
	fmt.Fprintf(w, "\t%d (%.2f%%) patterns were never considered\n", s.NotConsidered, notConsidered*100)
	return s
}
