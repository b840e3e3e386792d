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

type nullHandling int

const (
	nullsDefault nullHandling = iota
	nullsFirst
	nullsLast
)

// OrderSpecifier is one ORDER BY item.
type OrderSpecifier struct {
	target Expression
	desc   bool
	nulls  nullHandling
}

// NullsFirst sorts NULL values before all others, whatever the dialect.
func (o OrderSpecifier) NullsFirst() OrderSpecifier {
	o.nulls = nullsFirst
	return o
}

// NullsLast sorts NULL values after all others, whatever the dialect.
func (o OrderSpecifier) NullsLast() OrderSpecifier {
	o.nulls = nullsLast
	return o
}

// render produces the ORDER BY fragment. Null placement is expressed as a
// leading CASE key since SQLite, PostgreSQL and MySQL disagree on defaults
// and MySQL lacks NULLS FIRST/LAST.
func (o OrderSpecifier) render() (string, []interface{}) {
	dir := " ASC"
	if o.desc {
		dir = " DESC"
	}
	q := o.target.query + dir
	args := cloneArgs(o.target.args)

	switch o.nulls {
	case nullsFirst:
		q = "CASE WHEN " + o.target.query + " IS NULL THEN 0 ELSE 1 END, " + q
		args = append(cloneArgs(o.target.args), args...)
	case nullsLast:
		q = "CASE WHEN " + o.target.query + " IS NULL THEN 1 ELSE 0 END, " + q
		args = append(cloneArgs(o.target.args), args...)
	}
	return q, args
}
