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

// Package config loads the application settings from a YAML file, with
// ${VAR} references expanded from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/tomoncle/querystudy/database"
	"github.com/tomoncle/querystudy/utils"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type Config struct {
	Database database.Config `yaml:"database"`
	Log      LogConfig       `yaml:"log"`
}

// Default is an in-memory SQLite database with migrations and seed data.
func Default() *Config {
	db := database.DefaultConfig()
	db.DataInitConfig.AutoInitOnMigration = true
	return &Config{
		Database: *db,
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// LoadEnv reads the given .env files, or ./.env when none are named.
// Missing files are ignored and existing variables are never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path on top of Default. An empty path returns the defaults.
// DB_* environment variables override the connection settings afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	database.OverrideFromEnv(&cfg.Database.ConnectionConfig)
	return cfg, nil
}

// Parse expands environment references in data and decodes it into cfg.
func Parse(data []byte, cfg *Config) error {
	return yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg)
}

// ApplyLogging configures the named loggers from c.Log.
func (c *Config) ApplyLogging() {
	if c.Log.Format != "" {
		utils.ConfigureConsoleLogFormat(c.Log.Format)
	}
	if c.Log.Level != "" {
		utils.ConfigureLogLevel(c.Log.Level)
	}
}
