// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package postgres is the production mailbox.Store backend, grounded
// on pkg/storage/postgres's pgxpool-based SessionStore (sessions.go)
// and generalized from a single sessions table to a FIFO-per-recipient
// messages table keyed by did_hash.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sage-x-project/didmediator/mailbox"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	DatabaseURL string
	PoolSize    int32
}

// Store implements mailbox.Store against a PostgreSQL messages table.
type Store struct {
	pool   *pgxpool.Pool
	limits mailbox.Limits
	pub    mailbox.Publisher
}

// schema is applied by migrations out of band; kept here as the
// authoritative shape this store assumes.
const schema = `
CREATE TABLE IF NOT EXISTS mailbox_messages (
	message_id    TEXT PRIMARY KEY,
	recipient_did TEXT NOT NULL,
	recipient_hash TEXT NOT NULL,
	sender_did    TEXT,
	sender_hash   TEXT,
	packed_bytes  BYTEA NOT NULL,
	byte_length   INTEGER NOT NULL,
	enqueue_time  TIMESTAMPTZ NOT NULL,
	expiry_time   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mailbox_recipient_hash_enqueue ON mailbox_messages (recipient_hash, enqueue_time);
CREATE INDEX IF NOT EXISTS idx_mailbox_sender_hash_enqueue ON mailbox_messages (sender_hash, enqueue_time);
`

// NewStore opens a connection pool and returns a ready-to-use Store.
func NewStore(ctx context.Context, cfg Config, limits mailbox.Limits, pub mailbox.Publisher) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("mailbox/postgres: parse database_url: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolCfg.MaxConns = cfg.PoolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("mailbox/postgres: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("mailbox/postgres: ping database: %w", err)
	}

	return &Store{pool: pool, limits: limits, pub: pub}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
