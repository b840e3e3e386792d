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

// Package fixture provides migrated in-memory databases and the sample
// teams and members used by the tests.
package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querystudy/database"
	"github.com/tomoncle/querystudy/entity"
	"github.com/uptrace/bun"
)

// Open returns a fresh migrated in-memory SQLite database with foreign keys
// enabled. It is closed when the test ends.
func Open(t testing.TB) *bun.DB {
	t.Helper()
	entity.Register()

	conn := database.DefaultConnectionConfig()
	conn.HealthCheckInterval = 0
	conn.EnableReconnect = false

	mgr := database.NewDatabaseManager(conn)
	ctx := context.Background()
	require.NoError(t, mgr.Connect(ctx))
	t.Cleanup(func() { _ = mgr.Disconnect() })

	cfg := database.DefaultConfig()
	cfg.ConnectionConfig = *conn
	err := database.NewMigrationManager(mgr.GetDB(), database.GetLogger()).
		WithConfig(cfg).
		RunMigrations(ctx)
	require.NoError(t, err)
	return mgr.GetDB()
}

// Tx begins a transaction that is rolled back when the test ends. While it
// is open the in-memory database must only be used through the transaction.
func Tx(t testing.TB, db *bun.DB) bun.Tx {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

// Sample is the data set created by Seed.
type Sample struct {
	TeamA, TeamB                       *entity.Team
	Member1, Member2, Member3, Member4 *entity.Member
}

// Members returns the seeded members in id order.
func (s *Sample) Members() []*entity.Member {
	return []*entity.Member{s.Member1, s.Member2, s.Member3, s.Member4}
}

// Seed inserts teamA with member1 (10) and member2 (20) and teamB with
// member3 (30) and member4 (40).
func Seed(t testing.TB, db bun.IDB) *Sample {
	t.Helper()
	ctx := context.Background()

	s := &Sample{TeamA: entity.NewTeam("teamA"), TeamB: entity.NewTeam("teamB")}
	_, err := db.NewInsert().Model(&[]*entity.Team{s.TeamA, s.TeamB}).Exec(ctx)
	require.NoError(t, err)

	s.Member1 = entity.NewMember("member1", 10, s.TeamA)
	s.Member2 = entity.NewMember("member2", 20, s.TeamA)
	s.Member3 = entity.NewMember("member3", 30, s.TeamB)
	s.Member4 = entity.NewMember("member4", 40, s.TeamB)
	members := s.Members()
	_, err = db.NewInsert().Model(&members).Exec(ctx)
	require.NoError(t, err)
	return s
}
