package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// AccountRepository define el contrato de persistencia para cuentas.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByID(ctx context.Context, id string) (domain.Account, error)
	// CreateWithProfileAndRole inserta cuenta, perfil y rol como unidad atómica.
	CreateWithProfileAndRole(ctx context.Context, account domain.Account, profile domain.Profile, role domain.RoleAssignment) error
}

// PgAccountRepository implementa AccountRepository usando pgxpool.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

func (r *PgAccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	const query = `
		SELECT id, email, telegram_id, credential_hash, created_at
		FROM accounts
		WHERE email = $1
	`
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.TelegramID,
		&a.CredentialHash,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, err
	}
	return a, err
}

func (r *PgAccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `
		SELECT id, email, telegram_id, credential_hash, created_at
		FROM accounts
		WHERE id = $1
	`
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Email,
		&a.TelegramID,
		&a.CredentialHash,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, err
	}
	return a, err
}

func (r *PgAccountRepository) CreateWithProfileAndRole(ctx context.Context, account domain.Account, profile domain.Profile, role domain.RoleAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertAccount = `
		INSERT INTO accounts (id, email, telegram_id, credential_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, insertAccount,
		account.ID,
		account.Email,
		account.TelegramID,
		account.CredentialHash,
		account.CreatedAt,
	); err != nil {
		return err
	}

	const insertProfile = `
		INSERT INTO profiles (id, account_id, telegram_id, display_name, is_premium, is_blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insertProfile,
		profile.ID,
		profile.AccountID,
		profile.TelegramID,
		profile.DisplayName,
		profile.IsPremium,
		profile.IsBlocked,
		profile.CreatedAt,
	); err != nil {
		return err
	}

	const insertRole = `
		INSERT INTO account_roles (account_id, role)
		VALUES ($1, $2)
	`
	if _, err := tx.Exec(ctx, insertRole, role.AccountID, string(role.Role)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
