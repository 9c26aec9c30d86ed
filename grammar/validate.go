/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package grammar

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"bennypowers.dev/tmgrammar/internal/logger"
	"bennypowers.dev/tmgrammar/pattern"
)

// expressionKeys are the rule keys holding regular expressions.
var expressionKeys = []string{"match", "begin", "end", "while"}

// Validate compiles every expression in the grammar with a backtracking
// engine and reports the ones it rejects. Expressions calling subroutines
// are skipped since the engine has no \g<N> syntax.
func Validate(out *Output) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(out.Repository)) {
		errs = append(errs, validateRule(out.Repository[name], "repository."+name)...)
	}
	for i, rule := range out.Patterns {
		errs = append(errs, validateRule(rule, "patterns."+strconv.Itoa(i))...)
	}
	return errors.Join(errs...)
}

func validateRule(value any, location string) []error {
	var errs []error
	switch v := value.(type) {
	case pattern.Rule:
		return validateRule(map[string]any(v), location)
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(v)) {
			child := v[key]
			expr, isString := child.(string)
			if isString && slices.Contains(expressionKeys, key) {
				if (key == "end" || key == "while") && hasBackReference(expr) {
					// refers to the captures of begin, which are not part of expr
					continue
				}
				if err := checkExpression(expr); err != nil {
					errs = append(errs, fmt.Errorf("%w: %s.%s: %v", ErrInvalidRegex, location, key, err))
				}
				continue
			}
			errs = append(errs, validateRule(child, location+"."+key)...)
		}
	case []any:
		for i, child := range v {
			errs = append(errs, validateRule(child, location+"."+strconv.Itoa(i))...)
		}
	}
	return errs
}

// hasBackReference reports whether expr contains a numbered back-reference.
func hasBackReference(expr string) bool {
	for i := 0; i+1 < len(expr); i++ {
		if expr[i] != '\\' {
			continue
		}
		if c := expr[i+1]; c >= '1' && c <= '9' {
			return true
		}
		i++
	}
	return false
}

func checkExpression(expr string) error {
	if strings.Contains(expr, `\g<`) {
		logger.Debug("skipping validation of subroutine expression %q", expr)
		return nil
	}
	_, err := regexp2.Compile(expr, regexp2.None)
	return err
}
