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

package database_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querystudy/database"
	"github.com/tomoncle/querystudy/entity"
	"github.com/uptrace/bun"
)

func seededConfig() *database.Config {
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.ConnectionConfig.EnableReconnect = false
	cfg.DataMigrateConfig.ForeignKeyFile = "../configs/foreign_keys.yaml"
	cfg.DataInitConfig.AutoInitOnMigration = true
	cfg.DataInitConfig.Filepath = "../configs/sql"
	cfg.DataInitConfig.Environment = "dev"
	return cfg
}

func connect(t *testing.T, cfg *database.Config) *bun.DB {
	t.Helper()
	entity.Register()
	mgr := database.NewDatabaseManager(&cfg.ConnectionConfig)
	require.NoError(t, mgr.Connect(context.Background()))
	t.Cleanup(func() { _ = mgr.Disconnect() })
	return mgr.GetDB()
}

func TestMigrations_SeedOnce(t *testing.T) {
	cfg := seededConfig()
	db := connect(t, cfg)
	ctx := context.Background()
	mm := database.NewMigrationManager(db, database.GetLogger()).WithConfig(cfg)

	require.NoError(t, mm.RunMigrations(ctx))
	require.NoError(t, mm.RunMigrations(ctx), "applied migrations are skipped")

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	var versions []string
	for _, m := range applied {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []string{"001", "002", "003"}, versions)

	var teams []entity.Team
	require.NoError(t, db.NewSelect().Model(&teams).Order("id ASC").Scan(ctx))
	require.Len(t, teams, 3)
	assert.Equal(t, "dev-sandbox", teams[2].Name)

	var drifter entity.Member
	require.NoError(t, db.NewSelect().Model(&drifter).Where("username = ?", "drifter").Scan(ctx))
	assert.Equal(t, 50, drifter.Age)
	assert.Zero(t, drifter.TeamID)

	count, err := db.NewSelect().Model((*entity.Member)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestMigrations_ForeignKeyEnforced(t *testing.T) {
	cfg := database.DefaultConfig()
	cfg.DataMigrateConfig.ForeignKeyFile = "../configs/foreign_keys.yaml"
	db := connect(t, cfg)
	ctx := context.Background()
	require.NoError(t, database.NewMigrationManager(db, database.GetLogger()).WithConfig(cfg).RunMigrations(ctx))

	_, err := db.NewInsert().Model(&entity.Member{Username: "ghost", Age: 1, TeamID: 999}).Exec(ctx)
	require.Error(t, err)
	is, kind := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.ForeignKeyViolationErr, kind)
}

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   bool
		kind database.SQLError
	}{
		{"nil", nil, false, database.UnknownErr},
		{"no rows", fmt.Errorf("find member: %w", sql.ErrNoRows), true, database.NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, database.DuplicateKeyErr},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452}, true, database.ForeignKeyViolationErr},
		{"mysql other", &mysql.MySQLError{Number: 1}, true, database.UnknownErr},
		{"pq duplicate", &pq.Error{Code: "23505"}, true, database.DuplicateKeyErr},
		{"pq missing table", &pq.Error{Code: "42P01"}, true, database.NoTableErr},
		{"pgx foreign key", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23503"}), true, database.ForeignKeyViolationErr},
		{"pgx other", &pgconn.PgError{Code: "XX000"}, true, database.UnknownErr},
		{"sqlite no table", errors.New("SQL logic error: no such table: member (1)"), true, database.NoTableErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: member.age"), true, database.NotNullViolationErr},
		{"plain", errors.New("boom"), false, database.UnknownErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is, kind := database.IsSqlError(tc.err)
			assert.Equal(t, tc.is, is)
			assert.Equal(t, tc.kind, kind)
		})
	}
	assert.Equal(t, "duplicate key", database.DuplicateKeyErr.String())
	assert.Equal(t, "unknown", database.SQLError(99).String())
}

func TestForeignKeyConstraint_SQL(t *testing.T) {
	fk := database.ForeignKeyConstraint{
		Table: "member", Column: "team_id",
		ReferenceTable: "team", ReferenceColumn: "id",
		OnDelete: "set null", OnUpdate: "CASCADE",
	}
	assert.Equal(t, "fk_member_team_id", fk.GenerateConstraintName())
	assert.Equal(t,
		"ALTER TABLE member ADD CONSTRAINT fk_member_team_id FOREIGN KEY (team_id) REFERENCES team(id) ON DELETE SET NULL ON UPDATE CASCADE",
		fk.GenerateSQL())
	assert.Equal(t, "(team_id) REFERENCES team (id) ON DELETE SET NULL ON UPDATE CASCADE", fk.TableClause())
}

func TestConfigurableForeignKeyManager(t *testing.T) {
	mgr := database.NewConfigurableForeignKeyManager(nil, "../configs/foreign_keys.yaml")
	constraints := mgr.ListAllConstraints()
	require.Len(t, constraints, 1)
	assert.Equal(t, "fk_member_team", constraints[0].GenerateConstraintName())
	assert.Len(t, mgr.GetConstraintsByTable("MEMBER"), 1)
	assert.Empty(t, mgr.GetConstraintsByTable("team"))
	assert.Empty(t, mgr.ValidateConstraints())

	out := filepath.Join(t.TempDir(), "nested", "fk.yaml")
	require.NoError(t, mgr.ExportToConfig(out))
	exported := database.NewConfigurableForeignKeyManager(nil, out)
	assert.Equal(t, out, exported.GetConfigPath())
	assert.Equal(t, constraints, exported.ListAllConstraints())

	require.NoError(t, os.WriteFile(out, []byte(`
foreign_keys:
  - table: member
    column: ""
    reference_table: team
    reference_column: id
    on_delete: EXPLODE
`), 0o644))
	require.NoError(t, exported.ReloadConfig())
	assert.Len(t, exported.ValidateConstraints(), 2)

	require.NoError(t, os.Remove(out))
	assert.Error(t, exported.ReloadConfig())
}

func TestConfigurableForeignKeyManager_FallsBackToRegistered(t *testing.T) {
	entity.Register()
	mgr := database.NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	constraints := mgr.ListAllConstraints()
	require.NotEmpty(t, constraints)
	assert.Equal(t, "member", constraints[0].Table)
	assert.Equal(t, "team", constraints[0].ReferenceTable)
}

type first struct{}

type second struct{}

func TestModelRegistry(t *testing.T) {
	r := database.NewModelRegistry()
	r.Register(database.NewModelAdapter((*second)(nil), 2))
	r.Register(database.NewModelAdapter((*first)(nil), 1))
	r.Register(database.NewModelAdapter((*second)(nil), 0))

	models := r.Models()
	require.Len(t, models, 2)
	assert.IsType(t, (*first)(nil), models[0].Instance())
	assert.Equal(t, 2, models[1].Priority())
}

func TestManager_HealthAndStats(t *testing.T) {
	cfg := database.DefaultConnectionConfig()
	cfg.HealthCheckInterval = 0
	mgr := database.NewDatabaseManager(cfg)
	ctx := context.Background()

	status := mgr.HealthCheck(ctx)
	assert.False(t, status.Healthy)
	assert.Error(t, mgr.Ping(ctx))

	require.NoError(t, mgr.Connect(ctx))
	require.NoError(t, mgr.Connect(ctx), "connecting twice is a no-op")

	status = mgr.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, mgr.GetStats().MaxOpenConns)

	require.NoError(t, mgr.Reconnect(ctx))
	require.NoError(t, mgr.Ping(ctx))

	require.NoError(t, mgr.Disconnect())
	assert.Nil(t, mgr.GetDB())
	assert.Equal(t, &database.DBStats{}, mgr.GetStats())
}

func TestManager_UnsupportedType(t *testing.T) {
	_, err := database.NewDatabaseFactory().CreateFromConfig(&database.ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")

	mgr := database.NewDatabaseManager(&database.ConnectionConfig{Type: "oracle"})
	assert.Error(t, mgr.Connect(context.Background()))
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("DB_ENABLE_QUERY_LOG", "1")

	cfg := database.DefaultConnectionConfig()
	database.OverrideFromEnv(cfg)

	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6432, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
	assert.False(t, cfg.IsMemory())
}

func TestInitDB_Global(t *testing.T) {
	ctx := context.Background()
	_, err := database.InitDB(ctx, nil)
	require.Error(t, err)
	assert.False(t, database.GetHealthStatus(ctx).Healthy)
	assert.Error(t, database.RunMigrations(ctx))

	entity.Register()
	db, err := database.InitDB(ctx, seededConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	assert.Same(t, db, database.GetDB())
	assert.NotNil(t, database.GetDatabaseManager())
	assert.True(t, database.GetHealthStatus(ctx).Healthy)
	assert.Equal(t, 1, database.GetDatabaseStats().MaxOpenConns)

	count, err := db.NewSelect().Model((*entity.Team)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, database.CloseDB())
	assert.Nil(t, database.GetDB())
	assert.Nil(t, database.GetDatabaseManager())
}

func TestLogger_Fields(t *testing.T) {
	base, hook := logtest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	log := database.NewLogger(base)

	log.Info("connected", "type", "sqlite", "dangling")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "connected", entry.Message)
	assert.Equal(t, logrus.Fields{"type": "sqlite"}, entry.Data)

	scoped := log.With("file", "001_teams.sql")
	scoped.Error("failed", "error", "boom")
	entry = hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, logrus.Fields{"file": "001_teams.sql", "error": "boom"}, entry.Data)

	scoped.Debug("skipped")
	assert.Equal(t, logrus.Fields{"file": "001_teams.sql"}, hook.LastEntry().Data)
	assert.Len(t, hook.AllEntries(), 3)
}

func TestQueryHook(t *testing.T) {
	db := connect(t, database.DefaultConfig())
	ctx := context.Background()

	var buf bytes.Buffer
	db.AddQueryHook(&database.QueryHook{Enabled: true, Verbose: true, Writer: &buf})
	counter := database.NewQueryCounter()
	db.AddQueryHook(counter)

	_, err := db.ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "SELECT 1")
	assert.Contains(t, buf.String(), "[BUN]")

	buf.Reset()
	database.EnableBunSqlSilent(true)
	_, err = db.ExecContext(ctx, "SELECT 2")
	database.EnableBunSqlSilent(false)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = db.ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "missing_table")

	assert.Equal(t, 3, counter.Total())
	assert.Equal(t, 3, counter.Count("SELECT"))
	counter.Reset()
	assert.Zero(t, counter.Total())
}
