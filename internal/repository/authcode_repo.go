package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// AuthCodeRepository define el contrato de persistencia para códigos de acceso.
type AuthCodeRepository interface {
	Create(ctx context.Context, code domain.AuthCode) error
	// FindNewestValid devuelve el código vigente más reciente para el valor dado.
	FindNewestValid(ctx context.Context, code string, now time.Time) (domain.AuthCode, error)
	// Consume marca el código como usado solo si todavía no lo estaba.
	// Devuelve false cuando otro llamador ya lo consumió.
	Consume(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, telegramID int64, now time.Time) error
}

// PgAuthCodeRepository implementa AuthCodeRepository usando pgxpool.
type PgAuthCodeRepository struct {
	pool *pgxpool.Pool
}

func NewPgAuthCodeRepository(pool *pgxpool.Pool) *PgAuthCodeRepository {
	return &PgAuthCodeRepository{pool: pool}
}

func (r *PgAuthCodeRepository) Create(ctx context.Context, code domain.AuthCode) error {
	const query = `
		INSERT INTO telegram_auth_codes (id, telegram_id, code, used, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		code.ID,
		code.TelegramID,
		code.Code,
		code.Used,
		code.CreatedAt,
		code.ExpiresAt,
	)
	return err
}

func (r *PgAuthCodeRepository) FindNewestValid(ctx context.Context, code string, now time.Time) (domain.AuthCode, error) {
	const query = `
		SELECT id, telegram_id, code, used, created_at, expires_at
		FROM telegram_auth_codes
		WHERE code = $1 AND used = FALSE AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var c domain.AuthCode
	err := r.pool.QueryRow(ctx, query, code, now).Scan(
		&c.ID,
		&c.TelegramID,
		&c.Code,
		&c.Used,
		&c.CreatedAt,
		&c.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AuthCode{}, err
	}
	return c, err
}

func (r *PgAuthCodeRepository) Consume(ctx context.Context, id string) (bool, error) {
	// Compare-and-set sobre used: exactamente un llamador concurrente gana.
	const query = `
		UPDATE telegram_auth_codes
		SET used = TRUE
		WHERE id = $1 AND used = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgAuthCodeRepository) DeleteExpired(ctx context.Context, telegramID int64, now time.Time) error {
	const query = `
		DELETE FROM telegram_auth_codes
		WHERE telegram_id = $1 AND expires_at <= $2
	`
	_, err := r.pool.Exec(ctx, query, telegramID, now)
	return err
}
