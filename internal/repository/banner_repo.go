package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// BannerRepository define el contrato de persistencia para banners.
type BannerRepository interface {
	ListAll(ctx context.Context) ([]domain.Banner, error)
}

// PgBannerRepository implementa BannerRepository usando pgxpool.
type PgBannerRepository struct {
	pool *pgxpool.Pool
}

func NewPgBannerRepository(pool *pgxpool.Pool) *PgBannerRepository {
	return &PgBannerRepository{pool: pool}
}

func (r *PgBannerRepository) ListAll(ctx context.Context) ([]domain.Banner, error) {
	const query = `
		SELECT id, title, COALESCE(image_url, ''), COALESCE(link_url, ''), is_active, created_at
		FROM banners
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banners []domain.Banner
	for rows.Next() {
		var b domain.Banner
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.ImageURL,
			&b.LinkURL,
			&b.IsActive,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}
