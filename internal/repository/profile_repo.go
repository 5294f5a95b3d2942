package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// ProfileRepository define el contrato de persistencia para perfiles.
type ProfileRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	ListAll(ctx context.Context) ([]domain.Profile, error)
	CountAll(ctx context.Context) (int64, error)
	CountPremium(ctx context.Context) (int64, error)
	CountBlocked(ctx context.Context) (int64, error)
}

// PgProfileRepository implementa ProfileRepository usando pgxpool.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

func (r *PgProfileRepository) GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	const query = `
		SELECT id, account_id, telegram_id, display_name, is_premium, is_blocked, created_at
		FROM profiles
		WHERE account_id = $1
	`
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&p.ID,
		&p.AccountID,
		&p.TelegramID,
		&p.DisplayName,
		&p.IsPremium,
		&p.IsBlocked,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, err
	}
	return p, err
}

func (r *PgProfileRepository) ListAll(ctx context.Context) ([]domain.Profile, error) {
	const query = `
		SELECT id, account_id, telegram_id, display_name, is_premium, is_blocked, created_at
		FROM profiles
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(
			&p.ID,
			&p.AccountID,
			&p.TelegramID,
			&p.DisplayName,
			&p.IsPremium,
			&p.IsBlocked,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *PgProfileRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM profiles`)
}

func (r *PgProfileRepository) CountPremium(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM profiles WHERE is_premium = TRUE`)
}

func (r *PgProfileRepository) CountBlocked(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM profiles WHERE is_blocked = TRUE`)
}

func (r *PgProfileRepository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, query).Scan(&n)
	return n, err
}
