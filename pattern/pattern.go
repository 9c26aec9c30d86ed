/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package pattern composes regular expressions declaratively.
//
// A Pattern is one node of a singly linked chain. Nodes come in a closed set of
// kinds: plain matches, alternations (OneOf), back-references (MatchResultOf),
// subroutine calls (RecursivelyMatch) and forward references (Placeholder).
// A composed tree flattens into a single regular expression whose capture
// groups are numbered in textual order, together with the metadata needed to
// tag each group.
//
// Patterns are immutable by convention: chaining methods return copies, and
// Resolve works on a private deep clone which it freezes before returning.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// GroupAttributes describes one capture group of a flattened pattern.
type GroupAttributes struct {
	// Group is the 1-based group number in the flattened expression.
	Group int

	// Reference is the name back-references and subroutine calls use for this group.
	Reference string

	// TagAs is the scope name assigned to the text this group captures.
	TagAs string

	// Includes are repository names (string) or inline patterns applied to the capture.
	Includes []any
}

// Repository maps names to the values placeholders are resolved against.
// Only *Pattern values can be substituted.
type Repository map[string]any

// Pattern is one node of a composed regular expression.
type Pattern struct {
	variant variant
	opts    options
	next    *Pattern
	frozen  bool
}

// variant is the kind-specific behaviour of a node.
type variant interface {
	evaluateSelf(p *Pattern) (string, error)
	collectSelfGroups(p *Pattern, nextGroup int) []GroupAttributes
	singleEntity(p *Pattern) bool
	mapChildren(mapIncludes bool, fn func(*Pattern) error, checkFrozen bool) error
	clone() variant
	render(p *Pattern, depth int, topLevel bool) string
}

// resolvable is implemented by variants that substitute repository entries.
type resolvable interface {
	resolve(repo Repository) error
}

// scrambler is implemented by variants that hold reference keys.
type scrambler interface {
	scrambleReferences()
}

// rematcher is implemented by variants that may cause capture groups to match again.
type rematcher interface {
	selfCaptureGroupRematch() bool
}

// matchVariant is the plain node: a regex source or a nested pattern.
type matchVariant struct {
	source      string
	nested      *Pattern
	invalid     any
	unsupported bool
}

// New creates a pattern matching match, which may be a regex source string,
// a *regexp.Regexp or another *Pattern.
func New(match any, opts ...Option) *Pattern {
	v := &matchVariant{}
	switch m := match.(type) {
	case *Pattern:
		if m == nil {
			v.invalid, v.unsupported = match, true
			break
		}
		v.nested = m
	case string:
		v.source = m
	case *regexp.Regexp:
		v.source = m.String()
	default:
		v.invalid, v.unsupported = match, true
	}
	return newPattern(v, opts)
}

func newPattern(v variant, opts []Option) *Pattern {
	p := &Pattern{variant: v}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// Then appends New(match, opts...) to a copy of the chain.
func (p *Pattern) Then(match any, opts ...Option) *Pattern {
	return p.Insert(New(match, opts...))
}

// Insert returns a copy of the chain with next attached as its tail.
func (p *Pattern) Insert(next *Pattern) *Pattern {
	head := p.DeepClone()
	tail := head
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = next
	return head
}

// Next returns the successor of this node, or nil.
func (p *Pattern) Next() *Pattern {
	return p.next
}

// Frozen reports whether the pattern was frozen by Resolve.
func (p *Pattern) Frozen() bool {
	return p.frozen
}

// Evaluate compiles the node and its successors into a regex source.
// When groups is non-nil, back-reference and subroutine markers are
// rewritten into numbered references using those groups.
func (p *Pattern) Evaluate(groups []GroupAttributes) (string, error) {
	return p.evaluate(groups, nil)
}

func (p *Pattern) evaluate(groups, outer []GroupAttributes) (string, error) {
	var b strings.Builder
	for node := p; node != nil; node = node.next {
		src, err := node.variant.evaluateSelf(node)
		if err != nil {
			return "", err
		}
		b.WriteString(src)
	}
	if groups == nil {
		return b.String(), nil
	}
	return rewriteReferences(b.String(), groups, outer, p.CaptureGroupRematch())
}

// Compile flattens the pattern with groups numbered from 1 and rewrites all references.
func (p *Pattern) Compile() (string, error) {
	return p.Evaluate(p.CollectGroupAttributes(1))
}

// CollectGroupAttributes returns the capture groups of the chain in textual
// order, numbering them from nextGroup. The result is never nil, so it can be
// passed straight to Evaluate.
func (p *Pattern) CollectGroupAttributes(nextGroup int) []GroupAttributes {
	groups := []GroupAttributes{}
	for node := p; node != nil; node = node.next {
		if node.opts.capturing() {
			groups = append(groups, GroupAttributes{
				Group:     nextGroup,
				Reference: node.opts.reference,
				TagAs:     node.opts.tagAs,
				Includes:  node.opts.includes,
			})
			nextGroup++
		}
		self := node.variant.collectSelfGroups(node, nextGroup)
		groups = append(groups, self...)
		nextGroup += len(self)
	}
	return groups
}

// SingleEntity reports whether the compiled form is already atomic, so callers
// need not wrap it in a non-capturing group.
func (p *Pattern) SingleEntity() bool {
	return p.next == nil && p.variant.singleEntity(p)
}

// DeepClone returns an unfrozen structural copy sharing nothing with p.
func (p *Pattern) DeepClone() *Pattern {
	if p == nil {
		return nil
	}
	return &Pattern{
		variant: p.variant.clone(),
		opts:    p.opts.clone(),
		next:    p.next.DeepClone(),
	}
}

// Map applies fn to every reachable node: the node itself, its nested
// patterns and its successors. With mapIncludes, inline patterns held in
// Includes are visited too.
func (p *Pattern) Map(mapIncludes bool, fn func(*Pattern) error) error {
	return p.each(mapIncludes, fn, true)
}

func (p *Pattern) each(mapIncludes bool, fn func(*Pattern) error, checkFrozen bool) error {
	for node := p; node != nil; node = node.next {
		if checkFrozen && node.frozen {
			return ErrFrozen
		}
		if err := fn(node); err != nil {
			return err
		}
		if err := node.variant.mapChildren(mapIncludes, fn, checkFrozen); err != nil {
			return err
		}
		if !mapIncludes {
			continue
		}
		for _, include := range node.opts.includes {
			if inline, ok := include.(*Pattern); ok {
				if err := inline.each(mapIncludes, fn, checkFrozen); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// walk visits every node, frozen or not.
func (p *Pattern) walk(fn func(*Pattern)) {
	_ = p.each(true, func(node *Pattern) error {
		fn(node)
		return nil
	}, false)
}

func (p *Pattern) freeze() {
	p.walk(func(node *Pattern) { node.frozen = true })
}

// CaptureGroupRematch reports whether any node can cause capture groups to
// match more than once, as subroutine calls do.
func (p *Pattern) CaptureGroupRematch() bool {
	rematch := false
	p.walk(func(node *Pattern) {
		if r, ok := node.variant.(rematcher); ok && r.selfCaptureGroupRematch() {
			rematch = true
		}
	})
	return rematch
}

// String renders the composition calls that build this pattern.
func (p *Pattern) String() string {
	return p.Render(0, true)
}

// Render renders the pattern indented to depth. Nodes that are not top level
// render as chained method calls.
func (p *Pattern) Render(depth int, topLevel bool) string {
	out := p.variant.render(p, depth, topLevel)
	if p.next != nil {
		out += strings.TrimLeft(p.next.Render(depth, false), " ")
	}
	return out
}

func (v *matchVariant) evaluateSelf(p *Pattern) (string, error) {
	if v.unsupported {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedMatch, v.invalid)
	}
	if v.nested == nil {
		return p.opts.wrap(v.source, atomicSource(v.source)), nil
	}
	src, err := v.nested.Evaluate(nil)
	if err != nil {
		return "", err
	}
	return p.opts.wrap(src, v.nested.SingleEntity()), nil
}

// collectSelfGroups numbers the groups written out in a raw source too. They
// carry no attributes but shift every later group.
func (v *matchVariant) collectSelfGroups(_ *Pattern, nextGroup int) []GroupAttributes {
	if v.nested != nil {
		return v.nested.CollectGroupAttributes(nextGroup)
	}
	n := rawGroupCount(v.source)
	if n == 0 {
		return nil
	}
	groups := make([]GroupAttributes, n)
	for i := range groups {
		groups[i].Group = nextGroup + i
	}
	return groups
}

func (v *matchVariant) singleEntity(p *Pattern) bool {
	if p.opts.capturing() {
		return true
	}
	if p.opts.quantifier.set {
		return false
	}
	if v.nested != nil {
		return v.nested.SingleEntity()
	}
	return atomicSource(v.source)
}

func (v *matchVariant) mapChildren(mapIncludes bool, fn func(*Pattern) error, checkFrozen bool) error {
	if v.nested == nil {
		return nil
	}
	return v.nested.each(mapIncludes, fn, checkFrozen)
}

func (v *matchVariant) clone() variant {
	return &matchVariant{
		source:      v.source,
		nested:      v.nested.DeepClone(),
		invalid:     v.invalid,
		unsupported: v.unsupported,
	}
}

func (v *matchVariant) render(p *Pattern, depth int, topLevel bool) string {
	output := ".Then("
	if topLevel {
		output = "New("
	}
	switch {
	case v.nested != nil:
		output += strings.TrimLeft(v.nested.Render(depth+1, true), " ")
	case v.unsupported:
		output += fmt.Sprintf("%#v", v.invalid)
	default:
		output += quoteSource(v.source)
	}
	return output + p.opts.render(depth) + ")"
}
