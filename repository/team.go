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
	"github.com/uptrace/bun"
)

type TeamRepository struct {
	Repository[entity.Team]
	f *query.Factory
}

func NewTeamRepository(db bun.IDB) *TeamRepository {
	repo := NewRepository[entity.Team](db)
	return &TeamRepository{Repository: repo, f: repo.Queries()}
}

func (r *TeamRepository) Save(ctx context.Context, t *entity.Team) error {
	if err := r.Create(ctx, t); err != nil {
		return fmt.Errorf("save team %s: %w", t.Name, err)
	}
	return nil
}

func (r *TeamRepository) FindByID(ctx context.Context, id int64) (*entity.Team, error) {
	return r.GetOne(ctx, id)
}

// FindByName fails with query.ErrNonUniqueResult when names collide.
func (r *TeamRepository) FindByName(ctx context.Context, name string) (*entity.Team, error) {
	t := qmodel.Team
	return query.SelectFrom[entity.Team](r.f, t).
		Where(t.Name.Eq(name)).
		FetchOne(ctx)
}

// FindWithMembers loads the team and its members ordered by id.
func (r *TeamRepository) FindWithMembers(ctx context.Context, id int64) (*entity.Team, error) {
	team := new(entity.Team)
	err := r.DB().NewSelect().
		Model(team).
		Relation("Members", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.id ASC")
		}).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return team, nil
}

// Stats aggregates member ages per team. Teams without members are
// included with a zero count.
func (r *TeamRepository) Stats(ctx context.Context) ([]dto.TeamStats, error) {
	t, m := qmodel.Team, qmodel.Member
	return query.Select[dto.TeamStats](r.f,
		t.Name.As("name"),
		m.ID.Count().As("member_count"),
		m.Age.Sum().As("age_sum"),
		m.Age.Avg().As("age_avg"),
		m.Age.Max().As("age_max"),
		m.Age.Min().As("age_min"),
	).
		From(t).
		LeftJoin(t.Members(m)).
		GroupBy(t.ID, t.Name).
		OrderBy(t.Name.Asc()).
		Fetch(ctx)
}
