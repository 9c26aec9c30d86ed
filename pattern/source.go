/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// atomicSource reports whether a regex source behaves as a single atom:
// one character, one escape, one bracket class or one enclosing group.
func atomicSource(src string) bool {
	switch {
	case src == "":
		return false
	case utf8.RuneCountInString(src) == 1:
		return src != "|"
	case src[0] == '\\':
		_, size := utf8.DecodeRuneInString(src[1:])
		return len(src) == 1+size
	case src[0] == '[':
		return classEnd(src, 0) == len(src)-1
	case src[0] == '(':
		return groupEnd(src, 0) == len(src)-1
	}
	return false
}

// classEnd returns the index of the ']' closing the bracket class opened at
// src[start], or -1. Nested classes are allowed.
func classEnd(src string, start int) int {
	i := start + 1
	if i < len(src) && src[i] == '^' {
		i++
	}
	if i < len(src) && src[i] == ']' {
		i++
	}
	for ; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			i = classEnd(src, i)
			if i < 0 {
				return -1
			}
		case ']':
			return i
		}
	}
	return -1
}

// groupEnd returns the index of the ')' closing the group opened at
// src[start], or -1.
func groupEnd(src string, start int) int {
	depth := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			i = classEnd(src, i)
			if i < 0 {
				return -1
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// rawGroupCount counts the capture groups opened in src: plain groups and
// named groups, outside bracket classes and comments.
func rawGroupCount(src string) int {
	count := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			end := classEnd(src, i)
			if end < 0 {
				return count
			}
			i = end
		case '(':
			rest := src[i+1:]
			switch {
			case strings.HasPrefix(rest, "?#"):
				end := strings.IndexByte(rest, ')')
				if end < 0 {
					return count
				}
				i += end + 1
			case namedGroup(rest):
				count++
			case !strings.HasPrefix(rest, "?") && !strings.HasPrefix(rest, "*"):
				count++
			}
		}
	}
	return count
}

// namedGroup reports whether the text after '(' opens a named capture group.
func namedGroup(rest string) bool {
	switch {
	case strings.HasPrefix(rest, "?<="), strings.HasPrefix(rest, "?<!"):
		return false
	case strings.HasPrefix(rest, "?<"), strings.HasPrefix(rest, "?P<"), strings.HasPrefix(rest, "?'"):
		return true
	}
	return false
}

// quoteSource quotes a regex source as a Go string literal, preferring a raw string.
func quoteSource(src string) string {
	if strings.ContainsAny(src, "`\n\r") || !utf8.ValidString(src) {
		return strconv.Quote(src)
	}
	return "`" + src + "`"
}
