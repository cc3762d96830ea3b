package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Provenance store.
var Migrations = migrate.NewGroup("provenance")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_provenance_records",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_records (
    address    TEXT PRIMARY KEY,
    kind       TEXT NOT NULL DEFAULT '',
    revision   BIGINT NOT NULL DEFAULT 0,
    parent     TEXT NOT NULL DEFAULT '',
    owner      TEXT NOT NULL DEFAULT '',
    payload    JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_provenance_records_parent ON provenance_records (kind, parent);
CREATE INDEX IF NOT EXISTS idx_provenance_records_owner ON provenance_records (kind, owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_records`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_transactions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_transactions (
    address    TEXT PRIMARY KEY,
    seq_id     BIGINT NOT NULL DEFAULT 0,
    user_addr  TEXT NOT NULL DEFAULT '',
    from_addr  TEXT NOT NULL DEFAULT '',
    to_addr    TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT '',
    payload    JSONB NOT NULL DEFAULT '{}',
    timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_provenance_tx_user ON provenance_transactions (user_addr, seq_id);
CREATE INDEX IF NOT EXISTS idx_provenance_tx_from ON provenance_transactions (from_addr);
CREATE INDEX IF NOT EXISTS idx_provenance_tx_to ON provenance_transactions (to_addr);
CREATE INDEX IF NOT EXISTS idx_provenance_tx_timestamp ON provenance_transactions (timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_transactions`)
				return err
			},
		},
	)
}
