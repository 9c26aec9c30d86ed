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

	"bennypowers.dev/tmgrammar/internal/logger"
)

// Option configures a pattern node.
type Option func(*options)

type options struct {
	tagAs      string
	reference  string
	includes   []any
	quantifier quantifier
}

type quantifier struct {
	set      bool
	min, max int
}

// TagAs assigns a scope name to the text the node matches.
func TagAs(scope string) Option {
	return func(o *options) {
		o.tagAs = scope
	}
}

// Reference names the node's capture group so MatchResultOf and
// RecursivelyMatch can refer to it.
func Reference(name string) Option {
	return func(o *options) {
		o.reference = name
	}
}

// Includes applies repository entries (by name) or inline patterns to the
// text the node captures.
func Includes(items ...any) Option {
	return func(o *options) {
		for _, item := range items {
			switch item.(type) {
			case string, *Pattern:
				o.includes = append(o.includes, item)
			default:
				logger.Warn("Includes() ignores %v: expected a repository name or a pattern", item)
			}
		}
	}
}

// Maybe matches the node zero or one time.
func Maybe() Option {
	return Times(0, 1)
}

// ZeroOrMore matches the node any number of times.
func ZeroOrMore() Option {
	return Times(0, -1)
}

// OneOrMore matches the node at least once.
func OneOrMore() Option {
	return Times(1, -1)
}

// Times matches the node between min and max times. A negative max is unbounded.
func Times(min, max int) Option {
	return func(o *options) {
		o.quantifier = quantifier{set: true, min: min, max: max}
	}
}

func (o options) capturing() bool {
	return o.tagAs != "" || o.reference != "" || len(o.includes) > 0
}

// wrap applies the quantifier and capture group to a compiled source.
func (o options) wrap(src string, atomic bool) string {
	if o.quantifier.set {
		if !atomic {
			src = "(?:" + src + ")"
		}
		src += o.quantifier.String()
	}
	if o.capturing() {
		src = "(" + src + ")"
	}
	return src
}

func (o options) clone() options {
	out := o
	if o.includes == nil {
		return out
	}
	out.includes = make([]any, len(o.includes))
	for i, include := range o.includes {
		if inline, ok := include.(*Pattern); ok {
			include = inline.DeepClone()
		}
		out.includes[i] = include
	}
	return out
}

func (o options) render(depth int) string {
	var parts []string
	if o.tagAs != "" {
		parts = append(parts, "TagAs("+strconv.Quote(o.tagAs)+")")
	}
	if o.reference != "" {
		parts = append(parts, "Reference("+strconv.Quote(o.reference)+")")
	}
	if len(o.includes) > 0 {
		items := make([]string, len(o.includes))
		for i, include := range o.includes {
			if inline, ok := include.(*Pattern); ok {
				items[i] = strings.TrimLeft(inline.Render(depth+1, true), " ")
				continue
			}
			items[i] = strconv.Quote(include.(string))
		}
		parts = append(parts, "Includes("+strings.Join(items, ", ")+")")
	}
	if o.quantifier.set {
		parts = append(parts, o.quantifier.call())
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func (q quantifier) String() string {
	switch {
	case q.min == 0 && q.max == 1:
		return "?"
	case q.min == 0 && q.max < 0:
		return "*"
	case q.min == 1 && q.max < 0:
		return "+"
	case q.max < 0:
		return fmt.Sprintf("{%d,}", q.min)
	case q.min == q.max:
		return fmt.Sprintf("{%d}", q.min)
	default:
		return fmt.Sprintf("{%d,%d}", q.min, q.max)
	}
}

func (q quantifier) call() string {
	switch q.String() {
	case "?":
		return "Maybe()"
	case "*":
		return "ZeroOrMore()"
	case "+":
		return "OneOrMore()"
	default:
		return fmt.Sprintf("Times(%d, %d)", q.min, q.max)
	}
}
