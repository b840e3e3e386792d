/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package query

import "strings"

// CountAll is COUNT(*).
func CountAll() NumberExpression[int64] {
	return numeric[int64](Expression{query: "COUNT(*)", label: "count"})
}

// NumberOf wraps an arbitrary numeric expression, e.g. a sub-query, so it can
// be compared and aggregated.
func NumberOf[T Number](o Operand) NumberExpression[T] {
	return numeric[T](o.expression())
}

// StringOf wraps an arbitrary string expression.
func StringOf(o Operand) StringExpression {
	return text(o.expression())
}

type caseWhen struct {
	when Predicate
	then interface{}
}

// CaseBuilder builds a searched CASE expression.
type CaseBuilder struct {
	whens []caseWhen
}

// Case starts a CASE WHEN ... THEN ... ELSE ... END expression.
func Case() *CaseBuilder { return &CaseBuilder{} }

// When adds a branch. then may be a plain value or an Operand.
func (c *CaseBuilder) When(p Predicate, then interface{}) *CaseBuilder {
	c.whens = append(c.whens, caseWhen{when: p, then: then})
	return c
}

// Otherwise closes the expression with an ELSE branch.
func (c *CaseBuilder) Otherwise(v interface{}) Expression {
	var sb strings.Builder
	var args []interface{}
	sb.WriteString("CASE")
	for _, w := range c.whens {
		if w.when.IsZero() {
			continue
		}
		q, a := operand(w.then)
		sb.WriteString(" WHEN " + w.when.query + " THEN " + q)
		args = append(args, w.when.args...)
		args = append(args, a...)
	}
	q, a := operand(v)
	if len(args) == 0 && sb.Len() == len("CASE") {
		return Expression{query: q, args: a, label: "case"}
	}
	sb.WriteString(" ELSE " + q + " END")
	args = append(args, a...)
	return Expression{query: sb.String(), args: args, label: "case"}
}
