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

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querystudy/database"
	"github.com/tomoncle/querystudy/dto"
	"github.com/tomoncle/querystudy/entity"
	"github.com/tomoncle/querystudy/entity/qmodel"
	"github.com/tomoncle/querystudy/internal/fixture"
	"github.com/tomoncle/querystudy/repository"
	"github.com/tomoncle/querystudy/types"
)

func TestRepository_Reads(t *testing.T) {
	db := fixture.Open(t)
	sample := fixture.Seed(t, db)
	repo := repository.NewRepository[entity.Member](db)
	ctx := context.Background()
	m := qmodel.Member

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, sample.Member1.ID, all[0].ID)

	listed, err := repo.List(ctx, types.NewQueryFilter("age > ?", 25))
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	unfiltered, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, unfiltered, 4)

	queried, err := repo.Query(ctx, "username = ?", "member2")
	require.NoError(t, err)
	require.Len(t, queried, 1)
	assert.Equal(t, 20, queried[0].Age)

	searched, err := repo.Search(ctx, m.Age.Goe(20), m.Username.Ne("member3"))
	require.NoError(t, err)
	assert.Len(t, searched, 2)

	everything, err := repo.Search(ctx)
	require.NoError(t, err)
	assert.Len(t, everything, 4)
}

func TestRepository_Page(t *testing.T) {
	db := fixture.Open(t)
	fixture.Seed(t, db)
	repo := repository.NewRepository[entity.Member](db)
	ctx := context.Background()

	page, err := repo.Page(ctx, types.NewPageRequest(1, 3,
		types.NewQueryFilter("age >= ?", 20), []string{"age DESC"}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "member4", page.Items[0].Username)
	assert.False(t, page.HasNext())

	second, err := repo.Page(ctx, types.NewPageRequestWithOrders(2, 3, []string{"id ASC"}))
	require.NoError(t, err)
	assert.Equal(t, 4, second.Total)
	assert.Equal(t, 2, second.TotalPages())
	require.Len(t, second.Items, 1)
	assert.Equal(t, "member4", second.Items[0].Username)

	empty, err := repo.Page(ctx, types.NewPageRequestWithFilter(1, 10, types.NewQueryFilter("age > ?", 100)))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Items)
}

func TestRepository_Writes(t *testing.T) {
	db := fixture.Open(t)
	repo := repository.NewRepository[entity.Team](db)
	ctx := context.Background()

	teamA, teamB := entity.NewTeam("teamA"), entity.NewTeam("teamB")
	require.NoError(t, repo.Create(ctx, teamA, teamB))
	require.NotZero(t, teamA.ID)
	require.NotZero(t, teamB.ID)
	require.NoError(t, repo.Create(ctx))

	teamA.Name = "teamA2"
	require.NoError(t, repo.Update(ctx, teamA))
	got, err := repo.GetOne(ctx, teamA.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamA2", got.Name)

	upserted := &entity.Team{ID: teamB.ID, Name: "teamB2"}
	fresh := &entity.Team{ID: teamB.ID + 10, Name: "teamC"}
	require.NoError(t, repo.Upsert(ctx, []string{"name"}, nil, upserted, fresh))

	got, err = repo.GetOne(ctx, teamB.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamB2", got.Name)
	got, err = repo.GetOne(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamC", got.Name)

	assert.Error(t, repo.Upsert(ctx, nil, nil, fresh))

	require.NoError(t, repo.Delete(ctx, teamA.ID))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_WithTx(t *testing.T) {
	db := fixture.Open(t)
	repo := repository.NewRepository[entity.Team](db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	team := entity.NewTeam("teamA")
	require.NoError(t, repo.CreateWithTx(ctx, &tx, team))
	team.Name = "teamA2"
	require.NoError(t, repo.UpdateWithTx(ctx, &tx, team))
	require.NoError(t, repo.UpsertWithTx(ctx, &tx, []string{"name"}, []string{"id"}, &entity.Team{ID: team.ID, Name: "teamA3"}))

	inTx, err := repo.WithTx(tx).GetOne(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamA3", inTx.Name)

	require.NoError(t, repo.DeleteWithTx(ctx, &tx, team.ID))
	require.NoError(t, tx.Rollback())

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSearchPageComplex_SkipsCount(t *testing.T) {
	db := fixture.Open(t)
	fixture.Seed(t, db)
	counter := database.NewQueryCounter()
	db.AddQueryHook(counter)
	repo := repository.NewMemberRepository(db)
	ctx := context.Background()

	cases := []struct {
		name    string
		page    int
		size    int
		selects int
	}{
		{"first page holds everything", 1, 10, 1},
		{"short last page", 2, 3, 1},
		{"full page needs a count", 1, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			counter.Reset()
			page, err := repo.SearchPageComplex(ctx, dto.MemberSearchCondition{}, types.NewDefaultPageRequest(tc.page, tc.size))
			require.NoError(t, err)
			assert.Equal(t, 4, page.Total)
			assert.Equal(t, tc.selects, counter.Count("SELECT"))
		})
	}

	counter.Reset()
	_, err := repo.SearchPageSimple(ctx, dto.MemberSearchCondition{}, types.NewDefaultPageRequest(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, counter.Count("SELECT"), "the simple variant always counts")
}
