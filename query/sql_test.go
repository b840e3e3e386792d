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

package query_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querystudy/entity"
	"github.com/tomoncle/querystudy/entity/qmodel"
	"github.com/tomoncle/querystudy/query"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// setupMockFactory returns a factory rendering PostgreSQL over a mocked
// connection.
func setupMockFactory(t *testing.T) (*query.Factory, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return query.NewFactory(db), mock
}

func TestSQL_WhereSkipsZeroPredicates(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.SelectFrom[entity.Member](f, m).
		Where(m.Username.Eq("member1"), query.Predicate{}, m.Age.Eq(10)).
		String()

	assert.Contains(t, stmt, `("member"."username" = 'member1') AND ("member"."age" = 10)`)
	assert.NotContains(t, stmt, "()")
}

func TestSQL_NoPredicateNoWhere(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.SelectFrom[entity.Member](f, m).Where(query.Predicate{}).String()
	assert.NotContains(t, stmt, "WHERE")
}

func TestSQL_BooleanOperators(t *testing.T) {
	m := qmodel.Member

	p := m.Username.Eq("a").Or(m.Age.Gt(30)).Not()
	assert.Equal(t, `NOT ((?.? = ?) OR (?.? > ?))`, p.String())
	assert.Len(t, p.Args(), 6)

	b := query.NewBooleanBuilder()
	assert.False(t, b.HasValue())
	b.And(query.Predicate{}).Or(query.Predicate{})
	assert.False(t, b.HasValue())
	b.And(m.Age.Goe(10))
	assert.True(t, b.HasValue())
	assert.Equal(t, "?.? >= ?", b.Value().String())
}

func TestSQL_NullsLastOrdering(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.SelectFrom[entity.Member](f, m).
		OrderBy(m.Age.Desc(), m.Username.Asc().NullsLast()).
		String()

	assert.Contains(t, stmt,
		`ORDER BY "member"."age" DESC, CASE WHEN "member"."username" IS NULL THEN 1 ELSE 0 END, "member"."username" ASC`)
}

func TestSQL_NullsFirstOrdering(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.SelectFrom[entity.Member](f, m).OrderBy(m.Username.Desc().NullsFirst()).String()
	assert.Contains(t, stmt, `CASE WHEN "member"."username" IS NULL THEN 0 ELSE 1 END, "member"."username" DESC`)
}

func TestSQL_AliasedEntity(t *testing.T) {
	f, _ := setupMockFactory(t)
	other := qmodel.NewMember("other")

	stmt := query.SelectFrom[entity.Member](f, other).Where(other.Age.Lt(20)).String()
	assert.Contains(t, stmt, `"other".*`)
	assert.Contains(t, stmt, `FROM "member" AS "other"`)
	assert.Contains(t, stmt, `"other"."age" < 20`)
}

func TestSQL_TupleLabels(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.Select[query.Tuple](f, m.Username, m.Age.Avg(), m.Age, m.Age).From(m).String()
	assert.Contains(t, stmt, `"member"."username" AS "member_username"`)
	assert.Contains(t, stmt, `AVG("member"."age") AS "avg_member_age"`)
	assert.Contains(t, stmt, `"member"."age" AS "member_age"`)
	assert.Contains(t, stmt, `"member"."age" AS "col3"`)
}

func TestSQL_Joins(t *testing.T) {
	f, _ := setupMockFactory(t)
	m, tm := qmodel.Member, qmodel.Team

	inner := query.SelectFrom[entity.Member](f, m).Join(m.Team(tm)).String()
	assert.Contains(t, inner, `JOIN "team" ON ("team"."id" = "member"."team_id")`)

	left := query.SelectFrom[entity.Member](f, m).
		LeftJoin(m.Team(tm)).On(tm.Name.Eq("teamA")).
		String()
	assert.Contains(t, left, `LEFT JOIN "team" ON ("team"."id" = "member"."team_id") AND ("team"."name" = 'teamA')`)

	theta := query.SelectFrom[entity.Member](f, m).From(tm).Where(m.Username.EqExpr(tm.Name)).String()
	assert.Contains(t, theta, `, "team"`)
	assert.Contains(t, theta, `"member"."username" = "team"."name"`)
}

func TestSQL_SubQuery(t *testing.T) {
	f, _ := setupMockFactory(t)
	m, sub := qmodel.Member, qmodel.NewMember("member_sub")

	stmt := query.SelectFrom[entity.Member](f, m).
		Where(m.Age.EqSub(query.Select[int](f, sub.Age.Max()).From(sub))).
		String()
	assert.Contains(t, stmt, `"member"."age" = (SELECT MAX("member_sub"."age") FROM "member" AS "member_sub")`)
}

func TestSQL_InAndBetween(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.SelectFrom[entity.Member](f, m).
		Where(m.Age.In(10, 20), m.Age.Between(5, 25), m.Username.NotIn("x")).
		String()
	assert.Contains(t, stmt, `"member"."age" IN (10, 20)`)
	assert.Contains(t, stmt, `"member"."age" BETWEEN 5 AND 25`)
	assert.Contains(t, stmt, `"member"."username" NOT IN ('x')`)

	empty := query.SelectFrom[entity.Member](f, m).Where(m.Age.In()).String()
	assert.Contains(t, empty, `WHERE (1 = 0)`)
	assert.NotContains(t, empty, "NULL")

	all := query.SelectFrom[entity.Member](f, m).Where(m.Age.NotIn()).String()
	assert.Contains(t, all, `WHERE (1 = 1)`)
}

func TestSQL_LikeEscapesWildcards(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := query.SelectFrom[entity.Member](f, m).Where(m.Username.Contains("5%_!")).String()
	assert.Contains(t, stmt, `"member"."username" LIKE '%5!%!_!!%' ESCAPE '!'`)
}

func TestSQL_CaseExpression(t *testing.T) {
	m := qmodel.Member

	c := query.Case().When(m.Age.Eq(10), "ten").Otherwise("other")
	assert.Equal(t, "CASE WHEN ?.? = ? THEN ? ELSE ? END", c.String())

	plain := query.Case().When(query.Predicate{}, "x").Otherwise("other")
	assert.Equal(t, "?", plain.String())
}

func TestSQL_UpdateClause(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member

	stmt := f.Update(m).Set(m.Username, "junior").Where(m.Age.Lt(28)).String()
	assert.Contains(t, stmt, `UPDATE "member"`)
	assert.Contains(t, stmt, `SET "username" = 'junior'`)
	assert.Contains(t, stmt, `"member"."age" < 28`)

	all := f.Update(m).Set(m.Age, m.Age.Add(1)).String()
	assert.Contains(t, all, `SET "age" = ("member"."age" + 1)`)
	assert.Contains(t, all, `1 = 1`)
}

func TestSQL_UpdateClauseErrors(t *testing.T) {
	f, _ := setupMockFactory(t)
	m := qmodel.Member
	ctx := context.Background()

	_, err := f.Update(m).Where(m.Age.Gt(1)).Execute(ctx)
	assert.Error(t, err)

	_, err = f.Update(m).Set(m.Age.Add(1), 3).Execute(ctx)
	assert.Error(t, err)
}

func TestSQL_BulkExecuteReturnsRowsAffected(t *testing.T) {
	f, mock := setupMockFactory(t)
	m := qmodel.Member
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "member" SET "age" = ("member"."age" * 2)`)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "member"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := f.Update(m).Set(m.Age, m.Age.Multiply(2)).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = f.Delete(m).Where(m.Age.Gt(30)).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_FetchOne(t *testing.T) {
	columns := []string{"id", "username", "age", "team_id"}
	m := qmodel.Member
	ctx := context.Background()

	t.Run("exactly one row", func(t *testing.T) {
		f, mock := setupMockFactory(t)
		mock.ExpectQuery(`SELECT`).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), "member1", int64(10), nil))

		got, err := query.SelectFrom[entity.Member](f, m).FetchOne(ctx)
		require.NoError(t, err)
		assert.Equal(t, "member1", got.Username)
		assert.Zero(t, got.TeamID)
	})

	t.Run("no rows", func(t *testing.T) {
		f, mock := setupMockFactory(t)
		mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows(columns))

		_, err := query.SelectFrom[entity.Member](f, m).FetchOne(ctx)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})

	t.Run("several rows", func(t *testing.T) {
		f, mock := setupMockFactory(t)
		mock.ExpectQuery(`SELECT`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(1), "member1", int64(10), nil).
				AddRow(int64(2), "member2", int64(20), nil))

		_, err := query.SelectFrom[entity.Member](f, m).FetchOne(ctx)
		assert.ErrorIs(t, err, query.ErrNonUniqueResult)
	})

	t.Run("driver error", func(t *testing.T) {
		f, mock := setupMockFactory(t)
		mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

		_, err := query.SelectFrom[entity.Member](f, m).FetchOne(ctx)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestSQL_FetchCount(t *testing.T) {
	f, mock := setupMockFactory(t)
	m := qmodel.Member

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*)`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := query.SelectFrom[entity.Member](f, m).Limit(2).FetchCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSQL_FetchJoin(t *testing.T) {
	f, _ := setupMockFactory(t)
	m, tm := qmodel.Member, qmodel.Team

	stmt := query.SelectFrom[entity.Member](f, m).
		Join(m.Team(tm)).FetchJoin(m.Team(tm)).
		Where(tm.Name.Eq("teamA")).
		String()
	assert.Equal(t, 1, strings.Count(stmt, `JOIN "team"`), stmt)
	assert.Contains(t, stmt, `LEFT JOIN "team" AS "team" ON ("team"."id" = "member"."team_id")`)
	assert.Contains(t, stmt, `"team"."name" AS "team__name"`)
	assert.Contains(t, stmt, `"team"."id" IS NOT NULL`)

	left := query.SelectFrom[entity.Member](f, m).
		LeftJoin(m.Team(tm)).On(tm.Name.Eq("teamA")).FetchJoin(m.Team(tm)).
		String()
	assert.Contains(t, left, `ON ("team"."id" = "member"."team_id") AND ("team"."name" = 'teamA')`)
	assert.NotContains(t, left, "IS NOT NULL")
}

func TestSQL_FetchJoinRequiresAssociation(t *testing.T) {
	f, _ := setupMockFactory(t)
	m, tm := qmodel.Member, qmodel.Team

	_, err := query.SelectFrom[entity.Member](f, m).
		FetchJoin(query.On(tm, m.Username.EqExpr(tm.Name))).
		Fetch(context.Background())
	assert.Error(t, err)
}
