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
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querystudy/dto"
	"github.com/tomoncle/querystudy/entity"
	"github.com/tomoncle/querystudy/internal/fixture"
	"github.com/tomoncle/querystudy/query"
	"github.com/tomoncle/querystudy/repository"
)

func TestTeamRepository_Find(t *testing.T) {
	db := fixture.Open(t)
	sample := fixture.Seed(t, db)
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	found, err := repo.FindByID(ctx, sample.TeamA.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamA", found.Name)
	assert.Empty(t, found.Members, "members are not loaded by FindByID")

	byName, err := repo.FindByName(ctx, "teamB")
	require.NoError(t, err)
	assert.Equal(t, sample.TeamB.ID, byName.ID)

	_, err = repo.FindByName(ctx, "teamC")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.Save(ctx, entity.NewTeam("teamB")))
	_, err = repo.FindByName(ctx, "teamB")
	assert.ErrorIs(t, err, query.ErrNonUniqueResult)
}

func TestTeamRepository_FindWithMembers(t *testing.T) {
	db := fixture.Open(t)
	sample := fixture.Seed(t, db)
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	team, err := repo.FindWithMembers(ctx, sample.TeamB.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamB", team.Name)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "member3", team.Members[0].Username)
	assert.Equal(t, "member4", team.Members[1].Username)

	empty := entity.NewTeam("teamC")
	require.NoError(t, repo.Save(ctx, empty))
	team, err = repo.FindWithMembers(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, team.Members)

	_, err = repo.FindWithMembers(ctx, empty.ID+100)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTeamRepository_Stats(t *testing.T) {
	db := fixture.Open(t)
	fixture.Seed(t, db)
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entity.NewTeam("teamC")))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, dto.TeamStats{Name: "teamA", MemberCount: 2, AgeSum: 30, AgeAvg: 15, AgeMax: 20, AgeMin: 10}, stats[0])
	assert.Equal(t, dto.TeamStats{Name: "teamB", MemberCount: 2, AgeSum: 70, AgeAvg: 35, AgeMax: 40, AgeMin: 30}, stats[1])
	assert.Equal(t, dto.TeamStats{Name: "teamC"}, stats[2])
}

func TestTeamRepository_DeleteDetachesMembers(t *testing.T) {
	db := fixture.Open(t)
	sample := fixture.Seed(t, db)
	teams := repository.NewTeamRepository(db)
	members := repository.NewMemberRepository(db)
	ctx := context.Background()

	require.NoError(t, teams.Delete(ctx, sample.TeamA.ID))

	m, err := members.FindByID(ctx, sample.Member1.ID)
	require.NoError(t, err)
	assert.Zero(t, m.TeamID)

	m, err = members.FindByID(ctx, sample.Member3.ID)
	require.NoError(t, err)
	assert.Equal(t, sample.TeamB.ID, m.TeamID)
}
