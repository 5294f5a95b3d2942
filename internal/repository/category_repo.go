package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// CategoryRepository define el contrato de persistencia para categorías.
type CategoryRepository interface {
	ListAll(ctx context.Context) ([]domain.Category, error)
}

// PgCategoryRepository implementa CategoryRepository usando pgxpool.
type PgCategoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgCategoryRepository(pool *pgxpool.Pool) *PgCategoryRepository {
	return &PgCategoryRepository{pool: pool}
}

func (r *PgCategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	const query = `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
