package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// PartnerRepository define el contrato de persistencia para partners.
type PartnerRepository interface {
	ListAll(ctx context.Context) ([]domain.Partner, error)
	Create(ctx context.Context, partner domain.Partner) error
	Update(ctx context.Context, partner domain.Partner) (domain.Partner, error)
	Delete(ctx context.Context, id string) error
}

// PgPartnerRepository implementa PartnerRepository usando pgxpool.
type PgPartnerRepository struct {
	pool *pgxpool.Pool
}

func NewPgPartnerRepository(pool *pgxpool.Pool) *PgPartnerRepository {
	return &PgPartnerRepository{pool: pool}
}

func (r *PgPartnerRepository) ListAll(ctx context.Context) ([]domain.Partner, error) {
	const query = `
		SELECT id, name, COALESCE(logo_url, ''), COALESCE(website_url, ''),
		       COALESCE(telegram_url, ''), COALESCE(instagram_url, ''),
		       COALESCE(facebook_url, ''), is_active, sort_order, created_at, updated_at
		FROM partners
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []domain.Partner
	for rows.Next() {
		var p domain.Partner
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.LogoURL,
			&p.WebsiteURL,
			&p.TelegramURL,
			&p.InstagramURL,
			&p.FacebookURL,
			&p.IsActive,
			&p.SortOrder,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (r *PgPartnerRepository) Create(ctx context.Context, partner domain.Partner) error {
	const query = `
		INSERT INTO partners (id, name, logo_url, website_url, telegram_url,
		                      instagram_url, facebook_url, is_active, sort_order,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		partner.ID,
		partner.Name,
		partner.LogoURL,
		partner.WebsiteURL,
		partner.TelegramURL,
		partner.InstagramURL,
		partner.FacebookURL,
		partner.IsActive,
		partner.SortOrder,
		partner.CreatedAt,
		partner.UpdatedAt,
	)
	return err
}

func (r *PgPartnerRepository) Update(ctx context.Context, partner domain.Partner) (domain.Partner, error) {
	const query = `
		UPDATE partners
		SET name = $2, logo_url = $3, website_url = $4, telegram_url = $5,
		    instagram_url = $6, facebook_url = $7, updated_at = $8
		WHERE id = $1
		RETURNING id, name, COALESCE(logo_url, ''), COALESCE(website_url, ''),
		          COALESCE(telegram_url, ''), COALESCE(instagram_url, ''),
		          COALESCE(facebook_url, ''), is_active, sort_order, created_at, updated_at
	`
	var p domain.Partner
	err := r.pool.QueryRow(ctx, query,
		partner.ID,
		partner.Name,
		partner.LogoURL,
		partner.WebsiteURL,
		partner.TelegramURL,
		partner.InstagramURL,
		partner.FacebookURL,
		time.Now().UTC(),
	).Scan(
		&p.ID,
		&p.Name,
		&p.LogoURL,
		&p.WebsiteURL,
		&p.TelegramURL,
		&p.InstagramURL,
		&p.FacebookURL,
		&p.IsActive,
		&p.SortOrder,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Partner{}, err
	}
	return p, err
}

func (r *PgPartnerRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM partners WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
