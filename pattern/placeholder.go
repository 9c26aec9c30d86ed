/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"bennypowers.dev/tmgrammar/resolver"
)

// placeholderVariant stands in for a pattern that does not exist yet. Until
// resolved it refuses to compile.
type placeholderVariant struct {
	name     string
	resolved *Pattern
}

// Placeholder matches the repository pattern called name, once resolved.
func Placeholder(name string) *Pattern {
	return newPattern(&placeholderVariant{name: name}, nil)
}

// Placeholder appends a placeholder to a copy of the chain.
func (p *Pattern) Placeholder(name string) *Pattern {
	return p.Insert(Placeholder(name))
}

// sentinel is the source an unresolved placeholder stands for.
func (v *placeholderVariant) sentinel() string {
	return "placeholder(?#" + v.name + ")"
}

func (v *placeholderVariant) evaluateSelf(*Pattern) (string, error) {
	if v.resolved == nil {
		return "", fmt.Errorf("%w: attempting to evaluate %s", ErrUnresolvedPlaceholder, v.sentinel())
	}
	return v.resolved.Evaluate(nil)
}

func (v *placeholderVariant) collectSelfGroups(_ *Pattern, nextGroup int) []GroupAttributes {
	if v.resolved == nil {
		return nil
	}
	return v.resolved.CollectGroupAttributes(nextGroup)
}

// A resolved placeholder is exactly as atomic as the pattern it stands for.
func (v *placeholderVariant) singleEntity(*Pattern) bool {
	return v.resolved != nil && v.resolved.SingleEntity()
}

func (v *placeholderVariant) mapChildren(mapIncludes bool, fn func(*Pattern) error, checkFrozen bool) error {
	if v.resolved == nil {
		return nil
	}
	return v.resolved.each(mapIncludes, fn, checkFrozen)
}

func (v *placeholderVariant) clone() variant {
	return &placeholderVariant{name: v.name, resolved: v.resolved.DeepClone()}
}

func (v *placeholderVariant) render(_ *Pattern, _ int, topLevel bool) string {
	output := ".Placeholder("
	if topLevel {
		output = "Placeholder("
	}
	return output + strconv.Quote(v.name) + ")"
}

// resolve substitutes a deep clone of the repository entry. It mutates the
// node in place and is only ever called on the private copy made by Resolve.
func (v *placeholderVariant) resolve(repo Repository) error {
	value, ok := repo[v.name]
	if !ok {
		return fmt.Errorf("%w: %q is not in the repository", ErrUnresolvedPlaceholder, v.name)
	}
	target, ok := value.(*Pattern)
	if !ok || target == nil {
		return fmt.Errorf("%w: %q is %T", ErrNotPattern, v.name, value)
	}
	v.resolved = target.DeepClone()
	return nil
}

func (v *placeholderVariant) checkResolved() error {
	if v.resolved == nil {
		return fmt.Errorf("%w: attempting to create a tag from %s", ErrUnresolvedPlaceholder, v.sentinel())
	}
	return nil
}

// Resolve returns a frozen copy of p with every placeholder, including those
// inside included patterns, replaced by a copy of its repository entry.
// p itself is never modified.
func (p *Pattern) Resolve(repo Repository) (*Pattern, error) {
	if err := checkPlaceholderCycles(p, repo); err != nil {
		return nil, err
	}

	resolved := p.DeepClone()
	err := resolved.Map(true, func(node *Pattern) error {
		if r, ok := node.variant.(resolvable); ok {
			return r.resolve(repo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resolved.freeze()
	return resolved, nil
}

// Placeholders returns the sorted names of the placeholders reachable from p
// without resolving anything.
func (p *Pattern) Placeholders() []string {
	names := make(map[string]bool)
	p.walk(func(node *Pattern) {
		if v, ok := node.variant.(*placeholderVariant); ok {
			names[v.name] = true
		}
	})
	return slices.Sorted(maps.Keys(names))
}

// checkPlaceholderCycles follows placeholder names through the repository
// and fails when some entry expands into itself.
func checkPlaceholderCycles(p *Pattern, repo Repository) error {
	deps := make(map[string][]string)
	queue := p.Placeholders()
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, seen := deps[name]; seen {
			continue
		}
		target, ok := repo[name].(*Pattern)
		if !ok || target == nil {
			deps[name] = nil
			continue
		}
		deps[name] = target.Placeholders()
		queue = append(queue, deps[name]...)
	}

	if cycle := resolver.NewDependencyGraph(deps).FindCycle(); cycle != nil {
		return fmt.Errorf("%w: %s", ErrCircularReference, strings.Join(cycle, " -> "))
	}
	return nil
}
