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
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var errNoAssignments = errors.New("query: update without assignments")

// UpdateClause is a bulk UPDATE. It runs directly against the database, so
// entities already loaded in memory keep their old values.
type UpdateClause struct {
	q     *bun.UpdateQuery
	sets  int
	where bool
	err   error
}

func (f *Factory) Update(e Entity) *UpdateClause {
	expr, args := tableExpr(e)
	return &UpdateClause{q: f.db.NewUpdate().TableExpr(expr, args...)}
}

// Set assigns v to the column of path. v may be a plain value or an
// Operand such as path.Add(1).
func (c *UpdateClause) Set(path Operand, v interface{}) *UpdateClause {
	col := path.expression().column
	if col == "" {
		c.err = fmt.Errorf("query: %s is not a column", path.expression().query)
		return c
	}
	vq, va := operand(v)
	c.q.Set("? = "+vq, append([]interface{}{bun.Ident(col)}, va...)...)
	c.sets++
	return c
}

// SetNull assigns NULL to the column of path.
func (c *UpdateClause) SetNull(path Operand) *UpdateClause {
	return c.Set(path, Expr("NULL"))
}

func (c *UpdateClause) Where(predicates ...Predicate) *UpdateClause {
	if p := AllOf(predicates...); !p.IsZero() {
		c.q.Where(p.query, p.args...)
		c.where = true
	}
	return c
}

func (c *UpdateClause) String() string { return c.prepare().String() }

func (c *UpdateClause) prepare() *bun.UpdateQuery {
	if !c.where {
		c.q.Where("1 = 1")
		c.where = true
	}
	return c.q
}

// Execute runs the update and returns the number of affected rows.
func (c *UpdateClause) Execute(ctx context.Context) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.sets == 0 {
		return 0, errNoAssignments
	}
	res, err := c.prepare().Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteClause is a bulk DELETE.
type DeleteClause struct {
	q     *bun.DeleteQuery
	where bool
}

func (f *Factory) Delete(e Entity) *DeleteClause {
	expr, args := tableExpr(e)
	return &DeleteClause{q: f.db.NewDelete().TableExpr(expr, args...)}
}

func (c *DeleteClause) Where(predicates ...Predicate) *DeleteClause {
	if p := AllOf(predicates...); !p.IsZero() {
		c.q.Where(p.query, p.args...)
		c.where = true
	}
	return c
}

func (c *DeleteClause) String() string { return c.prepare().String() }

func (c *DeleteClause) prepare() *bun.DeleteQuery {
	if !c.where {
		c.q.Where("1 = 1")
		c.where = true
	}
	return c.q
}

// Execute runs the delete and returns the number of affected rows.
func (c *DeleteClause) Execute(ctx context.Context) (int64, error) {
	res, err := c.prepare().Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
