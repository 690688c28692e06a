// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store is the relational persistence layer for user contexts,
// tasks, and integration credentials, backed by database/sql with
// driver registration for postgres, mysql, and sqlite behind one schema.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ramisra/agentflow/pkg/config"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS user_contexts (
    context_id VARCHAR(255) PRIMARY KEY,
    user_id VARCHAR(255) NOT NULL,
    raw_content TEXT NOT NULL,
    user_summary TEXT,
    tags TEXT NOT NULL,
    embedding TEXT,
    url TEXT,
    kind VARCHAR(32) NOT NULL,
    parent_context_id VARCHAR(255),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_contexts_user_id ON user_contexts(user_id);
CREATE INDEX IF NOT EXISTS idx_user_contexts_parent ON user_contexts(parent_context_id);

CREATE TABLE IF NOT EXISTS user_tasks (
    task_id VARCHAR(255) PRIMARY KEY,
    user_id VARCHAR(255) NOT NULL,
    task_type VARCHAR(128) NOT NULL,
    input TEXT,
    output TEXT,
    context_ids TEXT,
    status VARCHAR(32) NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_tasks_user_id ON user_tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_user_tasks_task_type ON user_tasks(task_type);

CREATE TABLE IF NOT EXISTS user_integration_tokens (
    id VARCHAR(255) PRIMARY KEY,
    user_id VARCHAR(255) NOT NULL,
    integration VARCHAR(64) NOT NULL,
    secret TEXT,
    metadata TEXT,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_integration_tokens_lookup ON user_integration_tokens(user_id, integration, deleted);
`

// Store is the shared *sql.DB handle plus dialect used to build
// per-database query placeholders ($1 for postgres, ? for mysql/sqlite).
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to the database named by cfg, registers the schema, and
// returns a ready-to-use Store.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{db: db, dialect: cfg.Dialect()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	// Executed one statement at a time: the mysql driver rejects
	// multi-statement Exec calls unless multiStatements is set on the DSN,
	// so schemaSQL is split on every trailing semicolon rather than run as
	// one batch.
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// placeholder returns the n-th (1-based) bind placeholder for the
// store's dialect.
func (s *Store) placeholder(n int) string {
	if s.dialect == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// placeholders returns a comma-joined list of n placeholders, e.g.
// "?, ?, ?" or "$1, $2, $3".
func (s *Store) placeholders(n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = s.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}
