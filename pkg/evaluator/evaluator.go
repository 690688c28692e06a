// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package evaluator performs structural validation of an agent's
// result map against required fields, expected field types, and custom
// rule callables (C7's evaluate helper).
package evaluator

import (
	"fmt"
	"sort"
	"strings"
)

// Expected describes what a result map ought to look like.
type Expected struct {
	RequiredFields []string
	// FieldTypes maps a field name to the Go type name reflect would
	// report for it (e.g. "string", "float64", "[]interface {}").
	FieldTypes map[string]string
}

// Rule is a custom validation callable; returning false counts as a
// failed rule, a returned error counts as a warning.
type Rule func(result map[string]any) (bool, error)

// Result is the outcome of one evaluation.
type Result struct {
	Passed   bool
	Score    float64
	Feedback string
	Errors   []string
	Warnings []string
}

// Evaluator holds a set of named custom validation rules, applied on
// top of the structural checks every call performs.
type Evaluator struct {
	rules map[string]Rule
}

// New builds an Evaluator. rules may be nil.
func New(rules map[string]Rule) *Evaluator {
	if rules == nil {
		rules = make(map[string]Rule)
	}
	return &Evaluator{rules: rules}
}

// AddRule registers a custom validation rule under name.
func (e *Evaluator) AddRule(name string, rule Rule) {
	e.rules[name] = rule
}

// Evaluate checks result against expected (required fields, field
// types) and every registered rule, producing a score in [0,1].
func (e *Evaluator) Evaluate(result map[string]any, expected *Expected) Result {
	var errs, warnings []string
	score := 1.0

	if result == nil {
		errs = append(errs, "result is nil")
		score = 0.0
	} else if expected != nil {
		for _, field := range expected.RequiredFields {
			if _, ok := result[field]; !ok {
				errs = append(errs, "missing required field: "+field)
				score -= 0.1
			}
		}

		fieldNames := make([]string, 0, len(expected.FieldTypes))
		for field := range expected.FieldTypes {
			fieldNames = append(fieldNames, field)
		}
		sort.Strings(fieldNames)

		for _, field := range fieldNames {
			value, ok := result[field]
			if !ok {
				continue
			}
			expectedType := expected.FieldTypes[field]
			actualType := goTypeName(value)
			if actualType != expectedType {
				warnings = append(warnings, fmt.Sprintf("field %q has type %s, expected %s", field, actualType, expectedType))
				score -= 0.05
			}
		}
	}

	ruleNames := make([]string, 0, len(e.rules))
	for name := range e.rules {
		ruleNames = append(ruleNames, name)
	}
	sort.Strings(ruleNames)

	for _, name := range ruleNames {
		ok, err := e.rules[name](result)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("error in validation rule %q: %v", name, err))
			continue
		}
		if !ok {
			errs = append(errs, fmt.Sprintf("validation rule %q failed", name))
			score -= 0.1
		}
	}

	score = clamp(score, 0.0, 1.0)
	return Result{
		Passed:   len(errs) == 0,
		Score:    score,
		Feedback: feedback(errs, warnings, score),
		Errors:   errs,
		Warnings: warnings,
	}
}

func feedback(errs, warnings []string, score float64) string {
	if score == 1.0 {
		return "Evaluation passed with no issues."
	}

	var parts []string
	if len(errs) > 0 {
		parts = append(parts, "Errors: "+strings.Join(errs, ", "))
	}
	if len(warnings) > 0 {
		parts = append(parts, "Warnings: "+strings.Join(warnings, ", "))
	}
	parts = append(parts, fmt.Sprintf("Score: %.2f", score))
	return strings.Join(parts, ". ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func goTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case float64:
		return "float64"
	case int, int64:
		return "int"
	case []any:
		return "[]interface {}"
	case map[string]any:
		return "map[string]interface {}"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", v)
	}
}
