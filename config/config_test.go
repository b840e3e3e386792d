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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Database.ConnectionConfig.Type)
	assert.True(t, cfg.Database.ConnectionConfig.IsMemory())
	assert.True(t, cfg.Database.DataInitConfig.AutoInitOnMigration)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("QS_DB_HOST", "db.internal")
	t.Setenv("QS_DB_PASSWORD", "secret")

	cfg := Default()
	err := Parse([]byte(`
log:
  level: debug
  format: json
database:
  connection:
    type: postgres
    driver: pgx
    host: ${QS_DB_HOST}
    port: 5432
    password: $QS_DB_PASSWORD
    slow_query_time: 150ms
  init:
    environment: staging
`), cfg)
	require.NoError(t, err)

	conn := cfg.Database.ConnectionConfig
	assert.Equal(t, "postgres", conn.Type)
	assert.Equal(t, "pgx", conn.Driver)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, "secret", conn.Password)
	assert.Equal(t, 150*time.Millisecond, conn.SlowQueryTime)
	assert.Equal(t, 100, conn.MaxOpenConns, "unset keys keep their defaults")
	assert.Equal(t, "staging", cfg.Database.DataInitConfig.Environment)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err := Load("../configs/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "configs/foreign_keys.yaml", cfg.Database.DataMigrateConfig.ForeignKeyFile)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.ConnectionConfig.SlowQueryTime)
	assert.True(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)

	t.Setenv("DB_NAME", "study")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "study", cfg.Database.ConnectionConfig.DBName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("QS_FROM_FILE=loaded\nQS_PRESET=from-file\n"), 0o644))

	t.Setenv("QS_PRESET", "from-env")
	t.Setenv("QS_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("QS_FROM_FILE"))

	require.NoError(t, LoadEnv(file, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("QS_FROM_FILE"))
	assert.Equal(t, "from-env", os.Getenv("QS_PRESET"))
}
