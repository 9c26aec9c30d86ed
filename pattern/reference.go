/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/coregex"
)

// ScramblePrefix marks reference names that were scrambled to keep an
// embedded grammar's names apart from the enclosing grammar's.
const ScramblePrefix = "__scrambled__"

type referenceKind string

const (
	backReference referenceKind = "backreference"
	subroutine    referenceKind = "subroutine"
)

// referenceVariant is a symbolic reference to a named capture group. It
// compiles to a marker that the reference rewrite pass replaces with a
// numbered reference once group numbers are final.
type referenceVariant struct {
	kind referenceKind
	key  string
}

// markerPattern matches the markers emitted by MatchResultOf and RecursivelyMatch.
// Reference names cannot contain a colon.
var markerPattern = coregex.MustCompile(`\(\?#\[:(backreference|subroutine):([^:]+):\]\)`)

// MatchResultOf matches the same text the group named reference captured.
func MatchResultOf(reference string) *Pattern {
	return newPattern(&referenceVariant{kind: backReference, key: reference}, nil)
}

// MatchResultOf appends a back-reference to a copy of the chain.
func (p *Pattern) MatchResultOf(reference string) *Pattern {
	return p.Insert(MatchResultOf(reference))
}

// RecursivelyMatch invokes the group named reference again at this point.
func RecursivelyMatch(reference string) *Pattern {
	return newPattern(&referenceVariant{kind: subroutine, key: reference}, nil)
}

// RecursivelyMatch appends a subroutine call to a copy of the chain.
func (p *Pattern) RecursivelyMatch(reference string) *Pattern {
	return p.Insert(RecursivelyMatch(reference))
}

func (v *referenceVariant) marker() string {
	return fmt.Sprintf("(?#[:%s:%s:])", v.kind, v.key)
}

func (v *referenceVariant) evaluateSelf(*Pattern) (string, error) {
	return v.marker(), nil
}

func (v *referenceVariant) collectSelfGroups(*Pattern, int) []GroupAttributes {
	return nil
}

func (v *referenceVariant) singleEntity(*Pattern) bool {
	return true
}

func (v *referenceVariant) mapChildren(bool, func(*Pattern) error, bool) error {
	return nil
}

func (v *referenceVariant) clone() variant {
	out := *v
	return &out
}

func (v *referenceVariant) render(_ *Pattern, _ int, topLevel bool) string {
	name := "MatchResultOf"
	if v.kind == subroutine {
		name = "RecursivelyMatch"
	}
	if !topLevel {
		name = "." + name
	}
	return name + "(" + strconv.Quote(v.key) + ")"
}

func (v *referenceVariant) scrambleReferences() {
	v.key = scrambleName(v.key)
}

// Calling a subroutine can make the groups it references match again.
func (v *referenceVariant) selfCaptureGroupRematch() bool {
	return v.kind == subroutine
}

func scrambleName(name string) string {
	if strings.HasPrefix(name, ScramblePrefix) {
		return name
	}
	return ScramblePrefix + name
}

// ScrambleReferences returns a copy in which every reference name, both the
// names groups are given and the names references use, carries ScramblePrefix.
// Scrambling is idempotent.
func (p *Pattern) ScrambleReferences() *Pattern {
	scrambled := p.DeepClone()
	scrambled.walk(func(node *Pattern) {
		if node.opts.reference != "" {
			node.opts.reference = scrambleName(node.opts.reference)
		}
		if s, ok := node.variant.(scrambler); ok {
			s.scrambleReferences()
		}
	})
	return scrambled
}

func groupsByName(groups []GroupAttributes) map[string][]int {
	byName := make(map[string][]int)
	for _, group := range groups {
		if group.Reference != "" {
			byName[group.Reference] = append(byName[group.Reference], group.Group)
		}
	}
	return byName
}

// rewriteReferences replaces reference markers in src with numbered
// references to the groups carrying the referenced names. Back-references to
// names no group in groups carries fall back to outer, the groups of the
// begin pattern of an enclosing range.
func rewriteReferences(src string, groups, outer []GroupAttributes, rematch bool) (string, error) {
	byName := groupsByName(groups)
	outerByName := groupsByName(outer)

	var b strings.Builder
	last := 0
	for _, m := range markerPattern.FindAllStringSubmatchIndex(src, -1) {
		b.WriteString(src[last:m[0]])
		last = m[1]

		kind, name := referenceKind(src[m[2]:m[3]]), src[m[4]:m[5]]
		numbers := byName[name]
		if len(numbers) == 0 && kind == backReference {
			numbers = outerByName[name]
		}
		switch {
		case len(numbers) == 0:
			return "", fmt.Errorf("%w: %s %q", ErrUnknownReference, kind, name)
		case len(numbers) > 1 && !rematch:
			return "", fmt.Errorf("%w: %q is carried by groups %v", ErrAmbiguousReference, name, numbers)
		}

		group := strconv.Itoa(numbers[0])
		if kind == subroutine {
			b.WriteString(`\g<` + group + `>`)
			continue
		}
		ref := `\` + group
		if last < len(src) && src[last] >= '0' && src[last] <= '9' {
			ref = "(?:" + ref + ")"
		}
		b.WriteString(ref)
	}
	b.WriteString(src[last:])
	return b.String(), nil
}
