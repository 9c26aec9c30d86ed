/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package coverage

import (
	"io"
	"sync"
)

// Registry holds at most one recorder per scope name.
type Registry struct {
	mu        sync.Mutex
	recorders map[string]*Recorder
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{recorders: make(map[string]*Recorder)}
}

// Load registers a recorder for scopeName. Loading a scope that already has
// a recorder keeps the existing one and its counters.
func (r *Registry) Load(grammar []byte, scopeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recorders[scopeName]; ok {
		return nil
	}
	recorder, err := NewRecorder(grammar, scopeName)
	if err != nil {
		return err
	}
	r.recorders[scopeName] = recorder
	r.order = append(r.order, scopeName)
	return nil
}

// Get returns the recorder for scopeName.
func (r *Registry) Get(scopeName string) (*Recorder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recorder, ok := r.recorders[scopeName]
	return recorder, ok
}

// ReportAll reports every recorder that has recorded something, in the order
// they were loaded.
func (r *Registry) ReportAll(w io.Writer) []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var summaries []Summary
	for _, scope := range r.order {
		recorder := r.recorders[scope]
		if recorder.IsEmpty() {
			continue
		}
		summaries = append(summaries, recorder.Report(w))
	}
	return summaries
}
