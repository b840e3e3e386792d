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

// Predicate is a boolean SQL condition. The zero value is "no condition".
type Predicate struct {
	query string
	args  []interface{}
}

// Raw builds a predicate from a Bun query fragment.
func Raw(query string, args ...interface{}) Predicate {
	return Predicate{query: query, args: args}
}

func (p Predicate) IsZero() bool { return p.query == "" }

func (p Predicate) String() string { return p.query }

// Args returns the values bound to the placeholders of String.
func (p Predicate) Args() []interface{} { return cloneArgs(p.args) }

// And returns p AND others, skipping zero predicates.
func (p Predicate) And(others ...Predicate) Predicate {
	return combine(" AND ", append([]Predicate{p}, others...))
}

// Or returns p OR others, skipping zero predicates.
func (p Predicate) Or(others ...Predicate) Predicate {
	return combine(" OR ", append([]Predicate{p}, others...))
}

// Not negates p. The negation of no condition is still no condition.
func (p Predicate) Not() Predicate {
	if p.IsZero() {
		return p
	}
	return Predicate{query: "NOT (" + p.query + ")", args: cloneArgs(p.args)}
}

// AllOf joins the non-zero predicates with AND.
func AllOf(predicates ...Predicate) Predicate { return combine(" AND ", predicates) }

// AnyOf joins the non-zero predicates with OR.
func AnyOf(predicates ...Predicate) Predicate { return combine(" OR ", predicates) }

func combine(sep string, predicates []Predicate) Predicate {
	var parts []string
	var args []interface{}
	for _, p := range predicates {
		if p.IsZero() {
			continue
		}
		parts = append(parts, p.query)
		args = append(args, p.args...)
	}
	switch len(parts) {
	case 0:
		return Predicate{}
	case 1:
		return Predicate{query: parts[0], args: args}
	}
	return Predicate{query: "(" + strings.Join(parts, ")"+sep+"(") + ")", args: args}
}

// BooleanBuilder accumulates predicates, like a mutable Predicate.
type BooleanBuilder struct {
	current Predicate
}

// NewBooleanBuilder starts from initial, which may be zero.
func NewBooleanBuilder(initial ...Predicate) *BooleanBuilder {
	return &BooleanBuilder{current: AllOf(initial...)}
}

func (b *BooleanBuilder) And(p Predicate) *BooleanBuilder {
	b.current = b.current.And(p)
	return b
}

func (b *BooleanBuilder) Or(p Predicate) *BooleanBuilder {
	b.current = b.current.Or(p)
	return b
}

func (b *BooleanBuilder) Not() *BooleanBuilder {
	b.current = b.current.Not()
	return b
}

// HasValue reports whether any condition was added.
func (b *BooleanBuilder) HasValue() bool { return !b.current.IsZero() }

// Value returns the accumulated predicate.
func (b *BooleanBuilder) Value() Predicate { return b.current }
