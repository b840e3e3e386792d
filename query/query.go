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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomoncle/querystudy/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ErrNonUniqueResult is returned by FetchOne when more than one row matches.
var ErrNonUniqueResult = errors.New("query: non unique result")

// Factory creates queries bound to a database or a transaction.
type Factory struct {
	db bun.IDB
}

func NewFactory(db bun.IDB) *Factory {
	return &Factory{db: db}
}

// DB returns the bound connection.
func (f *Factory) DB() bun.IDB { return f.db }

// JoinTarget is the right-hand side of a join: an entity plus its ON
// condition and, for associations, the Bun relation name.
type JoinTarget struct {
	entity   Entity
	on       Predicate
	relation string
}

// On joins an unrelated entity with an explicit condition.
func On(e Entity, on Predicate) JoinTarget {
	return JoinTarget{entity: e, on: on}
}

// Association joins e along a mapped relation of the root model. relation
// is the Bun relation field name, used by FetchJoin.
func Association(e Entity, relation string, on Predicate) JoinTarget {
	return JoinTarget{entity: e, on: on, relation: relation}
}

// joinClause is a join waiting to be rendered. Joins stay pending until the
// statement is built so that FetchJoin can turn one into a relation load.
type joinClause struct {
	kind   string
	target JoinTarget
	extra  []Predicate
	fetch  bool
	// implicit joins exist only because of FetchJoin
	implicit bool
}

func (j *joinClause) inner() bool {
	return j.kind == "JOIN" || j.kind == "INNER JOIN"
}

// Query is a select statement producing rows of type R.
type Query[R any] struct {
	db      bun.IDB
	sel     *bun.SelectQuery
	root    Entity
	joins   []*joinClause
	dest    *[]R
	tuple   bool
	labels  []string
	sources []Expression
}

func tableExpr(e Entity) (string, []interface{}) {
	if e.Alias() == e.Table() {
		return "?", []interface{}{bun.Ident(e.Table())}
	}
	return "? AS ?", []interface{}{bun.Ident(e.Table()), bun.Ident(e.Alias())}
}

// SelectFrom selects whole entities of model type T from e.
func SelectFrom[T any](f *Factory, e Entity) *Query[*T] {
	q := &Query[*T]{db: f.db, root: e, dest: new([]*T)}
	q.sel = f.db.NewSelect().Model(q.dest)
	if e.Alias() != e.Table() {
		expr, args := tableExpr(e)
		q.sel.ModelTableExpr(expr, args...).ColumnExpr("?.*", bun.Ident(e.Alias()))
	}
	return q
}

// Select projects expressions into R. R may be a scalar, a struct whose bun
// tags match the projected column names, or Tuple. The FROM clause is set
// with From.
func Select[R any](f *Factory, exprs ...Operand) *Query[R] {
	q := &Query[R]{db: f.db, sel: f.db.NewSelect()}
	var zero R
	_, q.tuple = any(zero).(Tuple)

	seen := make(map[string]bool, len(exprs))
	for i, o := range exprs {
		e := o.expression()
		q.sources = append(q.sources, e)
		if q.tuple {
			label := e.label
			if label == "" || seen[label] {
				label = fmt.Sprintf("col%d", i)
			}
			seen[label] = true
			e = e.As(label)
		}
		q.labels = append(q.labels, e.label)
		expr, args := e.projection()
		q.sel.ColumnExpr(expr, args...)
	}
	return q
}

// From adds entities to the FROM list. On an entity query this is a theta
// join with the root.
func (q *Query[R]) From(entities ...Entity) *Query[R] {
	for _, e := range entities {
		expr, args := tableExpr(e)
		q.sel.TableExpr(expr, args...)
	}
	return q
}

func (q *Query[R]) join(kind string, t JoinTarget) *Query[R] {
	q.joins = append(q.joins, &joinClause{kind: kind, target: t})
	return q
}

func (q *Query[R]) Join(t JoinTarget) *Query[R]      { return q.join("JOIN", t) }
func (q *Query[R]) InnerJoin(t JoinTarget) *Query[R] { return q.join("INNER JOIN", t) }
func (q *Query[R]) LeftJoin(t JoinTarget) *Query[R]  { return q.join("LEFT JOIN", t) }
func (q *Query[R]) RightJoin(t JoinTarget) *Query[R] { return q.join("RIGHT JOIN", t) }

// On adds conditions to the most recent join.
func (q *Query[R]) On(predicates ...Predicate) *Query[R] {
	p := AllOf(predicates...)
	if p.IsZero() {
		return q
	}
	if len(q.joins) == 0 {
		q.sel.Err(errors.New("query: On without a join"))
		return q
	}
	last := q.joins[len(q.joins)-1]
	last.extra = append(last.extra, p)
	return q
}

// FetchJoin loads the association of t together with the root rows. When
// the query already joins the same target, that join becomes the fetch
// join and keeps its inner or outer semantics and its extra conditions.
// Otherwise the association is fetched with a left join.
//
// To-one associations are joined under the relation name and must use the
// default aliases of both models. To-many associations are loaded by a
// second statement.
func (q *Query[R]) FetchJoin(t JoinTarget) *Query[R] {
	if t.relation == "" {
		q.sel.Err(fmt.Errorf("query: %s is not an association", t.entity.Alias()))
		return q
	}
	if q.root == nil {
		q.sel.Err(errors.New("query: fetch join needs an entity query"))
		return q
	}
	for _, j := range q.joins {
		if j.target.relation == t.relation && j.target.entity.Alias() == t.entity.Alias() {
			j.fetch = true
			return q
		}
	}
	q.joins = append(q.joins, &joinClause{kind: "LEFT JOIN", target: t, fetch: true, implicit: true})
	return q
}

// build renders the pending joins into the Bun query.
func (q *Query[R]) build() *bun.SelectQuery {
	pending := q.joins
	q.joins = nil
	for _, j := range pending {
		if j.fetch {
			q.fetchJoin(j)
			continue
		}
		q.renderJoin(j)
	}
	return q.sel
}

func (q *Query[R]) renderJoin(j *joinClause) {
	expr, args := tableExpr(j.target.entity)
	q.sel.Join(j.kind+" "+expr, args...)
	if !j.target.on.IsZero() {
		q.sel.JoinOn(j.target.on.query, j.target.on.args...)
	}
	for _, p := range j.extra {
		q.sel.JoinOn(p.query, p.args...)
	}
}

func (q *Query[R]) fetchJoin(j *joinClause) {
	table := q.db.Dialect().Tables().Get(reflect.TypeOf(q.root.Model()))
	rel, ok := table.Relations[j.target.relation]
	if !ok {
		q.sel.Err(fmt.Errorf("query: %s has no relation %s", table.TypeName, j.target.relation))
		return
	}

	if rel.Type == schema.HasManyRelation {
		// the collection comes from its own statement; an explicit join
		// still filters and multiplies the root rows
		if !j.implicit {
			q.renderJoin(j)
		}
		q.sel.Relation(j.target.relation)
		return
	}

	switch {
	case j.kind == "RIGHT JOIN":
		q.sel.Err(fmt.Errorf("query: cannot fetch %s with a right join", j.target.relation))
		return
	case q.root.Alias() != table.Alias:
		q.sel.Err(fmt.Errorf("query: fetch join of %s needs root alias %q, got %q",
			j.target.relation, table.Alias, q.root.Alias()))
		return
	case j.target.entity.Alias() != rel.Field.Name:
		q.sel.Err(fmt.Errorf("query: fetch join of %s needs alias %q, got %q",
			j.target.relation, rel.Field.Name, j.target.entity.Alias()))
		return
	}

	opts := bun.RelationOpts{}
	for _, p := range j.extra {
		opts.AdditionalJoinOnConditions = append(opts.AdditionalJoinOnConditions,
			schema.SafeQuery("("+p.query+")", p.args))
	}
	q.sel.RelationWithOpts(j.target.relation, opts)

	if j.inner() {
		// Bun joins relations with LEFT JOIN; dropping the rows without a
		// match gives the inner join result
		for _, pk := range rel.JoinPKs {
			q.sel.Where("?.? IS NOT NULL", bun.Ident(j.target.entity.Alias()), bun.Ident(pk.Name))
		}
	}
}

// Where ANDs the non-zero predicates into the WHERE clause.
func (q *Query[R]) Where(predicates ...Predicate) *Query[R] {
	if p := AllOf(predicates...); !p.IsZero() {
		q.sel.Where(p.query, p.args...)
	}
	return q
}

func (q *Query[R]) GroupBy(exprs ...Operand) *Query[R] {
	for _, o := range exprs {
		e := o.expression()
		q.sel.GroupExpr(e.query, e.args...)
	}
	return q
}

func (q *Query[R]) Having(predicates ...Predicate) *Query[R] {
	if p := AllOf(predicates...); !p.IsZero() {
		q.sel.Having(p.query, p.args...)
	}
	return q
}

func (q *Query[R]) OrderBy(orders ...OrderSpecifier) *Query[R] {
	for _, o := range orders {
		expr, args := o.render()
		q.sel.OrderExpr(expr, args...)
	}
	return q
}

func (q *Query[R]) Offset(n int) *Query[R] {
	q.sel.Offset(n)
	return q
}

func (q *Query[R]) Limit(n int) *Query[R] {
	q.sel.Limit(n)
	return q
}

func (q *Query[R]) Distinct() *Query[R] {
	q.sel.Distinct()
	return q
}

// SubQuery renders the statement as a parenthesized expression.
func (q *Query[R]) SubQuery() Expression {
	return Expression{query: "(?)", args: []interface{}{q.build()}, label: "subquery"}
}

// Builder exposes the underlying Bun query.
func (q *Query[R]) Builder() *bun.SelectQuery { return q.build() }

// String returns the SQL the query would execute.
func (q *Query[R]) String() string { return q.build().String() }

// Fetch returns all matching rows.
func (q *Query[R]) Fetch(ctx context.Context) ([]R, error) {
	q.build()
	switch {
	case q.dest != nil:
		// model queries scan into dest; reset it so earlier results keep
		// their backing array
		*q.dest = nil
		if err := q.sel.Scan(ctx); err != nil {
			return nil, err
		}
		return *q.dest, nil
	case q.tuple:
		var rows []map[string]interface{}
		if err := q.sel.Scan(ctx, &rows); err != nil {
			return nil, err
		}
		out := make([]R, 0, len(rows))
		for _, row := range rows {
			out = append(out, any(Tuple{labels: q.labels, sources: q.sources, values: row}).(R))
		}
		return out, nil
	default:
		var rows []R
		if err := q.sel.Scan(ctx, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
}

// FetchOne returns the single matching row. It fails with sql.ErrNoRows
// when nothing matches and ErrNonUniqueResult when several rows do.
func (q *Query[R]) FetchOne(ctx context.Context) (R, error) {
	var zero R
	rows, err := q.Fetch(ctx)
	if err != nil {
		return zero, err
	}
	switch len(rows) {
	case 0:
		return zero, sql.ErrNoRows
	case 1:
		return rows[0], nil
	}
	return zero, fmt.Errorf("%w: %d rows", ErrNonUniqueResult, len(rows))
}

// FetchFirst limits the query to one row and returns it.
func (q *Query[R]) FetchFirst(ctx context.Context) (R, error) {
	q.sel.Limit(1)
	return q.FetchOne(ctx)
}

// FetchCount counts the matching rows, ignoring limit and offset.
func (q *Query[R]) FetchCount(ctx context.Context) (int, error) {
	return q.build().Count(ctx)
}

// FetchResults returns the current page of rows together with the total
// number of matching rows.
func (q *Query[R]) FetchResults(ctx context.Context) (*types.Pagination[R], error) {
	rows, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	total, err := q.FetchCount(ctx)
	if err != nil {
		return nil, err
	}
	p := types.NewDefaultPagination[R](1, len(rows))
	p.Total = total
	p.Items = rows
	return p, nil
}

// Page applies the request's filter, ordering, offset and limit, fetches
// the content and counts only when the total cannot be derived from it.
func (q *Query[R]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[R], error) {
	if f := req.GetFilter(); f != nil {
		q.sel.Where(f.Schema, f.Args...)
	}
	if orders := req.GetOrders(); len(orders) > 0 {
		q.sel.Order(orders...)
	}
	q.sel.Offset(req.GetOffset()).Limit(req.GetPageSize())

	rows, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return types.PageOf(rows, req, func() (int, error) {
		return q.FetchCount(ctx)
	})
}
