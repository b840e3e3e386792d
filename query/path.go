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
	"cmp"
	"strings"

	"github.com/uptrace/bun"
)

// Entity is a table reference with an alias, implemented by the
// generated-style metamodel types.
type Entity interface {
	Table() string
	Alias() string
	// Model returns a typed nil pointer to the Bun model, e.g. (*Member)(nil).
	Model() interface{}
}

// Number is the set of column types that support arithmetic and sums.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// SubQuerier is a query usable as a scalar or set sub-query.
type SubQuerier interface {
	SubQuery() Expression
}

func column(e Entity, name string) Expression {
	return Expression{
		query:  "?.?",
		args:   []interface{}{bun.Ident(e.Alias()), bun.Ident(name)},
		label:  e.Alias() + "_" + name,
		column: name,
	}
}

// SimpleExpression offers equality tests for values of type T.
type SimpleExpression[T any] struct {
	Expression
}

func (e SimpleExpression[T]) Eq(v T) Predicate { return e.compare("=", v) }
func (e SimpleExpression[T]) Ne(v T) Predicate { return e.compare("<>", v) }

// EqExpr compares with another column or expression.
func (e SimpleExpression[T]) EqExpr(o Operand) Predicate { return e.compare("=", o) }
func (e SimpleExpression[T]) NeExpr(o Operand) Predicate { return e.compare("<>", o) }

// In with no values matches nothing.
func (e SimpleExpression[T]) In(values ...T) Predicate {
	if len(values) == 0 {
		return Raw("1 = 0")
	}
	return e.compare("IN", Expr("(?)", bun.In(values)))
}

// NotIn with no values matches every row.
func (e SimpleExpression[T]) NotIn(values ...T) Predicate {
	if len(values) == 0 {
		return Raw("1 = 1")
	}
	return e.compare("NOT IN", Expr("(?)", bun.In(values)))
}

func (e SimpleExpression[T]) IsNull() Predicate    { return e.unary("IS NULL") }
func (e SimpleExpression[T]) IsNotNull() Predicate { return e.unary("IS NOT NULL") }

func (e SimpleExpression[T]) EqSub(sub SubQuerier) Predicate { return e.compare("=", sub.SubQuery()) }
func (e SimpleExpression[T]) InSub(sub SubQuerier) Predicate { return e.compare("IN", sub.SubQuery()) }

func (e SimpleExpression[T]) Count() NumberExpression[int64] {
	return NumberExpression[int64]{ComparableExpression[int64]{SimpleExpression[int64]{e.wrap("COUNT", "count")}}}
}

func (e SimpleExpression[T]) CountDistinct() NumberExpression[int64] {
	x := Expression{query: "COUNT(DISTINCT " + e.query + ")", args: cloneArgs(e.args), label: join("count_distinct", e.label)}
	return NumberExpression[int64]{ComparableExpression[int64]{SimpleExpression[int64]{x}}}
}

// ComparableExpression adds ordering comparisons.
type ComparableExpression[T cmp.Ordered] struct {
	SimpleExpression[T]
}

func (e ComparableExpression[T]) Gt(v T) Predicate  { return e.compare(">", v) }
func (e ComparableExpression[T]) Goe(v T) Predicate { return e.compare(">=", v) }
func (e ComparableExpression[T]) Lt(v T) Predicate  { return e.compare("<", v) }
func (e ComparableExpression[T]) Loe(v T) Predicate { return e.compare("<=", v) }

func (e ComparableExpression[T]) Between(from, to T) Predicate {
	return Predicate{
		query: e.query + " BETWEEN ? AND ?",
		args:  append(cloneArgs(e.args), from, to),
	}
}

func (e ComparableExpression[T]) GtExpr(o Operand) Predicate  { return e.compare(">", o) }
func (e ComparableExpression[T]) GoeExpr(o Operand) Predicate { return e.compare(">=", o) }
func (e ComparableExpression[T]) LtExpr(o Operand) Predicate  { return e.compare("<", o) }
func (e ComparableExpression[T]) LoeExpr(o Operand) Predicate { return e.compare("<=", o) }

func (e ComparableExpression[T]) GoeSub(sub SubQuerier) Predicate {
	return e.compare(">=", sub.SubQuery())
}

func (e ComparableExpression[T]) LoeSub(sub SubQuerier) Predicate {
	return e.compare("<=", sub.SubQuery())
}

func (e ComparableExpression[T]) Max() ComparableExpression[T] {
	return ComparableExpression[T]{SimpleExpression[T]{e.wrap("MAX", "max")}}
}

func (e ComparableExpression[T]) Min() ComparableExpression[T] {
	return ComparableExpression[T]{SimpleExpression[T]{e.wrap("MIN", "min")}}
}

// NumberExpression adds arithmetic and numeric aggregates.
type NumberExpression[T Number] struct {
	ComparableExpression[T]
}

func numeric[T Number](x Expression) NumberExpression[T] {
	return NumberExpression[T]{ComparableExpression[T]{SimpleExpression[T]{x}}}
}

func (e NumberExpression[T]) Sum() NumberExpression[T]       { return numeric[T](e.wrap("SUM", "sum")) }
func (e NumberExpression[T]) Avg() NumberExpression[float64] { return numeric[float64](e.wrap("AVG", "avg")) }
func (e NumberExpression[T]) Max() NumberExpression[T]       { return numeric[T](e.wrap("MAX", "max")) }
func (e NumberExpression[T]) Min() NumberExpression[T]       { return numeric[T](e.wrap("MIN", "min")) }

// Add accepts a value of T or an Operand.
func (e NumberExpression[T]) Add(v interface{}) NumberExpression[T] {
	return numeric[T](e.binary("+", v, "add"))
}

func (e NumberExpression[T]) Subtract(v interface{}) NumberExpression[T] {
	return numeric[T](e.binary("-", v, "subtract"))
}

func (e NumberExpression[T]) Multiply(v interface{}) NumberExpression[T] {
	return numeric[T](e.binary("*", v, "multiply"))
}

func (e NumberExpression[T]) Divide(v interface{}) NumberExpression[T] {
	return numeric[T](e.binary("/", v, "divide"))
}

// StringExpression adds pattern matching and string functions.
type StringExpression struct {
	ComparableExpression[string]
}

func text(x Expression) StringExpression {
	return StringExpression{ComparableExpression[string]{SimpleExpression[string]{x}}}
}

func (e StringExpression) Like(pattern string) Predicate { return e.compare("LIKE", pattern) }

// likeEscaper quotes the LIKE wildcards of literal text. '!' is used as
// escape character because backslash means different things per dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (e StringExpression) likeLiteral(prefix, s, suffix string) Predicate {
	p := e.compare("LIKE", prefix+likeEscaper.Replace(s)+suffix)
	p.query += " ESCAPE '!'"
	return p
}

// The wildcard helpers below match s literally.
func (e StringExpression) Contains(s string) Predicate   { return e.likeLiteral("%", s, "%") }
func (e StringExpression) StartsWith(s string) Predicate { return e.likeLiteral("", s, "%") }
func (e StringExpression) EndsWith(s string) Predicate   { return e.likeLiteral("%", s, "") }

func (e StringExpression) EqIgnoreCase(s string) Predicate {
	return e.Lower().compare("=", Expr("LOWER(?)", s))
}

func (e StringExpression) Lower() StringExpression { return text(e.wrap("LOWER", "lower")) }
func (e StringExpression) Upper() StringExpression { return text(e.wrap("UPPER", "upper")) }

// Length is the character length of the value.
func (e StringExpression) Length() NumberExpression[int64] {
	return numeric[int64](e.wrap("LENGTH", "length"))
}

// Replace substitutes every occurrence of from with to.
func (e StringExpression) Replace(from, to string) StringExpression {
	return text(Expression{
		query: "REPLACE(" + e.query + ", ?, ?)",
		args:  append(cloneArgs(e.args), from, to),
		label: join("replace", e.label),
	})
}

// Concat appends values to the string.
func (e StringExpression) Concat(values ...interface{}) StringExpression {
	x := Concat(append([]interface{}{e.Expression}, values...)...)
	x.label = join("concat", e.label)
	return text(x)
}

func (e StringExpression) Max() StringExpression { return text(e.wrap("MAX", "max")) }
func (e StringExpression) Min() StringExpression { return text(e.wrap("MIN", "min")) }

// Column paths. Each renders as "alias"."column".

type SimplePath[T any] struct{ SimpleExpression[T] }

type ComparablePath[T cmp.Ordered] struct{ ComparableExpression[T] }

type NumberPath[T Number] struct{ NumberExpression[T] }

type StringPath struct{ StringExpression }

func NewSimplePath[T any](e Entity, name string) SimplePath[T] {
	return SimplePath[T]{SimpleExpression[T]{column(e, name)}}
}

func NewComparablePath[T cmp.Ordered](e Entity, name string) ComparablePath[T] {
	return ComparablePath[T]{ComparableExpression[T]{SimpleExpression[T]{column(e, name)}}}
}

func NewNumberPath[T Number](e Entity, name string) NumberPath[T] {
	return NumberPath[T]{numeric[T](column(e, name))}
}

func NewStringPath(e Entity, name string) StringPath {
	return StringPath{text(column(e, name))}
}

// Column returns the unqualified column name of a path.
func (e Expression) Column() string { return e.column }
