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

import (
	"strings"

	"github.com/uptrace/bun"
)

// Operand is anything that renders as a SQL value expression: paths,
// aggregates, constants and sub-queries.
type Operand interface {
	expression() Expression
}

// Expression is a SQL fragment with Bun placeholders and their arguments.
type Expression struct {
	query  string
	args   []interface{}
	label  string
	alias  string
	column string
}

func (e Expression) expression() Expression { return e }

// Expr builds a free-form expression. Use ? for arguments and bun.Ident for
// identifiers.
func Expr(query string, args ...interface{}) Expression {
	return Expression{query: query, args: args}
}

// Constant renders v as a bound value, e.g. select(member.username, "A").
func Constant(v interface{}) Expression {
	return Expression{query: "?", args: []interface{}{v}, label: "constant"}
}

// Concat joins operands with CONCAT. Plain values are bound as constants.
func Concat(values ...interface{}) Expression {
	parts := make([]string, 0, len(values))
	var args []interface{}
	for _, v := range values {
		q, a := operand(v)
		parts = append(parts, q)
		args = append(args, a...)
	}
	return Expression{query: "CONCAT(" + strings.Join(parts, ", ") + ")", args: args, label: "concat"}
}

// As names the expression in a select list. The alias is also the label
// used to read it back from a Tuple.
func (e Expression) As(alias string) Expression {
	e.alias = alias
	e.label = alias
	return e
}

// Label is the key under which the expression appears in a Tuple.
func (e Expression) Label() string { return e.label }

// IsZero reports whether the expression is empty.
func (e Expression) IsZero() bool { return e.query == "" }

// String returns the unformatted fragment, for debugging.
func (e Expression) String() string { return e.query }

func (e Expression) Asc() OrderSpecifier  { return OrderSpecifier{target: e, desc: false} }
func (e Expression) Desc() OrderSpecifier { return OrderSpecifier{target: e, desc: true} }

// projection renders the expression for a select list.
func (e Expression) projection() (string, []interface{}) {
	if e.alias == "" {
		return e.query, e.args
	}
	return e.query + " AS ?", append(cloneArgs(e.args), bun.Ident(e.alias))
}

func (e Expression) wrap(fn, label string) Expression {
	return Expression{query: fn + "(" + e.query + ")", args: cloneArgs(e.args), label: join(label, e.label)}
}

func (e Expression) binary(op string, v interface{}, label string) Expression {
	q, a := operand(v)
	return Expression{
		query: "(" + e.query + " " + op + " " + q + ")",
		args:  append(cloneArgs(e.args), a...),
		label: join(e.label, label),
	}
}

func (e Expression) compare(op string, v interface{}) Predicate {
	q, a := operand(v)
	return Predicate{query: e.query + " " + op + " " + q, args: append(cloneArgs(e.args), a...)}
}

func (e Expression) unary(suffix string) Predicate {
	return Predicate{query: e.query + " " + suffix, args: cloneArgs(e.args)}
}

// operand splices an Operand or binds a plain value.
func operand(v interface{}) (string, []interface{}) {
	if o, ok := v.(Operand); ok {
		e := o.expression()
		return e.query, cloneArgs(e.args)
	}
	return "?", []interface{}{v}
}

func cloneArgs(args []interface{}) []interface{} {
	if len(args) == 0 {
		return nil
	}
	out := make([]interface{}, len(args))
	copy(out, args)
	return out
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "_" + b
}
