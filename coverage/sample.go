/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package coverage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Sample is one recorded attempt as written by an instrumented tokenizer,
// one JSON object per line.
type Sample struct {
	Scope       string  `json:"scope,omitempty"`
	Source      string  `json:"source"`
	Time        float64 `json:"time"` // milliseconds
	Chosen      bool    `json:"chosen"`
	Failure     bool    `json:"failure"`
	OnlyPattern bool    `json:"onlyPattern"`
}

// Elapsed converts Time to a duration.
func (s Sample) Elapsed() time.Duration {
	return time.Duration(s.Time * float64(time.Millisecond))
}

// ScopeOf returns the scope a sample belongs to: its explicit scope, or the
// part of its source before the line number.
func (s Sample) ScopeOf() string {
	if s.Scope != "" {
		return s.Scope
	}
	if i := strings.LastIndex(s.Source, ":"); i >= 0 {
		return s.Source[:i]
	}
	return s.Source
}

// ReadSamples decodes JSON lines from r. Blank lines are skipped.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var s Sample
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// RecordSamples feeds samples into the matching recorders. It stops at the
// first sample naming an unknown scope or location.
func (r *Registry) RecordSamples(samples []Sample) error {
	for _, s := range samples {
		recorder, ok := r.Get(s.ScopeOf())
		if !ok {
			return fmt.Errorf("%w: no grammar loaded for %s", ErrUnknownSource, s.Source)
		}
		if err := recorder.Record(s.Source, s.Elapsed(), s.Chosen, s.Failure, s.OnlyPattern); err != nil {
			return err
		}
	}
	return nil
}
