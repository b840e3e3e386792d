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

package repository

import (
	"context"
	"fmt"

	"github.com/tomoncle/querystudy/dto"
	"github.com/tomoncle/querystudy/entity"
	"github.com/tomoncle/querystudy/entity/qmodel"
	"github.com/tomoncle/querystudy/query"
	"github.com/tomoncle/querystudy/types"
	"github.com/uptrace/bun"
)

// MemberRepository offers the member lookups twice, once as hand-written
// SQL and once composed with the query package, plus dynamic searches and
// bulk statements.
type MemberRepository struct {
	Repository[entity.Member]
	f *query.Factory
}

func NewMemberRepository(db bun.IDB) *MemberRepository {
	repo := NewRepository[entity.Member](db)
	return &MemberRepository{Repository: repo, f: repo.Queries()}
}

// Save inserts a new member and fills its id.
func (r *MemberRepository) Save(ctx context.Context, m *entity.Member) error {
	if err := r.Create(ctx, m); err != nil {
		return fmt.Errorf("save member %s: %w", m.Username, err)
	}
	return nil
}

// FindByID returns sql.ErrNoRows when no member has id.
func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*entity.Member, error) {
	return r.GetOne(ctx, id)
}

func (r *MemberRepository) FindAllSQL(ctx context.Context) ([]*entity.Member, error) {
	var members []*entity.Member
	err := r.DB().NewRaw(
		"SELECT id, username, age, team_id FROM member ORDER BY id",
	).Scan(ctx, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepository) FindByUsernameSQL(ctx context.Context, username string) ([]*entity.Member, error) {
	var members []*entity.Member
	err := r.DB().NewRaw(
		"SELECT id, username, age, team_id FROM member WHERE username = ? ORDER BY id", username,
	).Scan(ctx, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepository) FindAll(ctx context.Context) ([]*entity.Member, error) {
	m := qmodel.Member
	return query.SelectFrom[entity.Member](r.f, m).
		OrderBy(m.ID.Asc()).
		Fetch(ctx)
}

func (r *MemberRepository) FindByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	m := qmodel.Member
	return query.SelectFrom[entity.Member](r.f, m).
		Where(m.Username.Eq(username)).
		OrderBy(m.ID.Asc()).
		Fetch(ctx)
}

// SearchByBuilder accumulates the condition into a BooleanBuilder.
func (r *MemberRepository) SearchByBuilder(ctx context.Context, cond dto.MemberSearchCondition) ([]dto.MemberTeamDto, error) {
	m, t := qmodel.Member, qmodel.Team
	b := query.NewBooleanBuilder()
	if cond.Username != "" {
		b.And(m.Username.Eq(cond.Username))
	}
	if cond.TeamName != "" {
		b.And(t.Name.Eq(cond.TeamName))
	}
	if cond.AgeGoe != nil {
		b.And(m.Age.Goe(*cond.AgeGoe))
	}
	if cond.AgeLoe != nil {
		b.And(m.Age.Loe(*cond.AgeLoe))
	}
	return r.memberTeam().Where(b.Value()).Fetch(ctx)
}

// Search passes one predicate per condition field; empty fields yield zero
// predicates, which Where skips.
func (r *MemberRepository) Search(ctx context.Context, cond dto.MemberSearchCondition) ([]dto.MemberTeamDto, error) {
	return r.memberTeam().Where(searchPredicates(cond)...).Fetch(ctx)
}

// SearchPageSimple fetches one page and counts the whole result.
func (r *MemberRepository) SearchPageSimple(ctx context.Context, cond dto.MemberSearchCondition, req *types.PageRequest) (*types.Pagination[dto.MemberTeamDto], error) {
	page, err := r.memberTeam().
		Where(searchPredicates(cond)...).
		OrderBy(qmodel.Member.ID.Asc()).
		Offset(req.GetOffset()).
		Limit(req.GetPageSize()).
		FetchResults(ctx)
	if err != nil {
		return nil, err
	}
	page.Page, page.PageSize = req.GetPage(), req.GetPageSize()
	return page, nil
}

// SearchPageComplex fetches one page and runs a separate count query only
// when the total cannot be derived from the content.
func (r *MemberRepository) SearchPageComplex(ctx context.Context, cond dto.MemberSearchCondition, req *types.PageRequest) (*types.Pagination[dto.MemberTeamDto], error) {
	m, t := qmodel.Member, qmodel.Team
	content, err := r.memberTeam().
		Where(searchPredicates(cond)...).
		OrderBy(m.ID.Asc()).
		Offset(req.GetOffset()).
		Limit(req.GetPageSize()).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return types.PageOf(content, req, func() (int, error) {
		return query.Select[int64](r.f, m.ID).
			From(m).
			LeftJoin(m.Team(t)).
			Where(searchPredicates(cond)...).
			FetchCount(ctx)
	})
}

// BulkRenameYoungerThan sets username to name for members younger than age.
func (r *MemberRepository) BulkRenameYoungerThan(ctx context.Context, age int, name string) (int64, error) {
	m := qmodel.Member
	return r.f.Update(m).
		Set(m.Username, name).
		Where(m.Age.Lt(age)).
		Execute(ctx)
}

func (r *MemberRepository) BulkAddAge(ctx context.Context, delta int) (int64, error) {
	m := qmodel.Member
	return r.f.Update(m).Set(m.Age, m.Age.Add(delta)).Execute(ctx)
}

func (r *MemberRepository) BulkMultiplyAge(ctx context.Context, factor int) (int64, error) {
	m := qmodel.Member
	return r.f.Update(m).Set(m.Age, m.Age.Multiply(factor)).Execute(ctx)
}

func (r *MemberRepository) BulkDeleteOlderThan(ctx context.Context, age int) (int64, error) {
	m := qmodel.Member
	return r.f.Delete(m).Where(m.Age.Gt(age)).Execute(ctx)
}

func (r *MemberRepository) memberTeam() *query.Query[dto.MemberTeamDto] {
	m, t := qmodel.Member, qmodel.Team
	return query.Select[dto.MemberTeamDto](r.f,
		m.ID.As("member_id"),
		m.Username.As("username"),
		m.Age.As("age"),
		t.ID.As("team_id"),
		t.Name.As("team_name"),
	).From(m).LeftJoin(m.Team(t))
}

func searchPredicates(cond dto.MemberSearchCondition) []query.Predicate {
	return []query.Predicate{
		usernameEq(cond.Username),
		teamNameEq(cond.TeamName),
		ageBetween(cond.AgeGoe, cond.AgeLoe),
	}
}

func usernameEq(username string) query.Predicate {
	if username == "" {
		return query.Predicate{}
	}
	return qmodel.Member.Username.Eq(username)
}

func teamNameEq(name string) query.Predicate {
	if name == "" {
		return query.Predicate{}
	}
	return qmodel.Team.Name.Eq(name)
}

func ageGoe(age *int) query.Predicate {
	if age == nil {
		return query.Predicate{}
	}
	return qmodel.Member.Age.Goe(*age)
}

func ageLoe(age *int) query.Predicate {
	if age == nil {
		return query.Predicate{}
	}
	return qmodel.Member.Age.Loe(*age)
}

// ageBetween composes the two bounds; either may be absent.
func ageBetween(goe, loe *int) query.Predicate {
	return query.AllOf(ageGoe(goe), ageLoe(loe))
}
