package principal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/valtervalik/InstaShare/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresRepository is the canonical principal store.
type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `
	id, email, password_hash, role, permissions,
	tfa_enabled, tfa_secret, external_id, created_at, updated_at
`

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM principals
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanPrincipal(row)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM principals
		WHERE id = $1
	`, id)
	return scanPrincipal(row)
}

func (r *PostgresRepository) FindByExternalID(ctx context.Context, externalID string) (*Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM principals
		WHERE external_id = $1
	`, externalID)
	return scanPrincipal(row)
}

func (r *PostgresRepository) Create(ctx context.Context, p *Principal) (*Principal, error) {
	var id uuid.UUID

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO principals (email, password_hash, role, permissions, external_id)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''))
		RETURNING id
	`,
		p.Email,
		p.PasswordHash,
		p.Role,
		pq.Array(p.Permissions),
		p.ExternalID,
	).Scan(&id)

	if err != nil {
		return nil, mapError(err)
	}

	created := *p
	created.ID = id.String()
	return &created, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateTFA(ctx context.Context, id string, enabled bool, secret string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET tfa_enabled = $2, tfa_secret = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1
	`, id, enabled, secret)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func scanPrincipal(row *sql.Row) (*Principal, error) {
	var (
		p            Principal
		id           uuid.UUID
		passwordHash sql.NullString
		tfaSecret    sql.NullString
		externalID   sql.NullString
	)

	err := row.Scan(
		&id,
		&p.Email,
		&passwordHash,
		&p.Role,
		pq.Array(&p.Permissions),
		&p.TFAEnabled,
		&tfaSecret,
		&externalID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	p.ID = id.String()
	p.PasswordHash = passwordHash.String
	p.TFASecret = tfaSecret.String
	p.ExternalID = externalID.String
	return &p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrConflict
	}

	return err
}
