package db

import (
	"context"
	"database/sql"
)

const principalMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS principals (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    password_hash text,
    role text NOT NULL DEFAULT 'user',
    permissions text[] NOT NULL DEFAULT '{}',
    tfa_enabled boolean NOT NULL DEFAULT false,
    tfa_secret text,
    external_id text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS principals_email_lower_unique
ON principals (LOWER(email));

CREATE UNIQUE INDEX IF NOT EXISTS principals_external_id_unique
ON principals (external_id)
WHERE external_id IS NOT NULL;
`

func RunPrincipalMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, principalMigration)
	return err
}
