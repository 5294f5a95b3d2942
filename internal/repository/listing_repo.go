package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// ListingStats agrupa los contadores del panel de administración.
type ListingStats struct {
	Total   int64
	Pending int64
	Active  int64
}

// ListingRepository define el contrato de persistencia para anuncios.
type ListingRepository interface {
	Stats(ctx context.Context) (ListingStats, error)
	ListAllWithOwner(ctx context.Context) ([]domain.ListingWithOwner, error)
	// Approve activa el anuncio y extiende su vigencia la cantidad de días dada.
	Approve(ctx context.Context, id string, days int, now time.Time) error
	Reject(ctx context.Context, id, reason string, now time.Time) error
	// ExpireDue marca como expirados los anuncios activos vencidos y devuelve cuántos.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// PgListingRepository implementa ListingRepository usando pgxpool.
type PgListingRepository struct {
	pool *pgxpool.Pool
}

func NewPgListingRepository(pool *pgxpool.Pool) *PgListingRepository {
	return &PgListingRepository{pool: pool}
}

func (r *PgListingRepository) Stats(ctx context.Context) (ListingStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'active')
		FROM listings
	`
	var s ListingStats
	err := r.pool.QueryRow(ctx, query).Scan(&s.Total, &s.Pending, &s.Active)
	return s, err
}

func (r *PgListingRepository) ListAllWithOwner(ctx context.Context) ([]domain.ListingWithOwner, error) {
	const query = `
		SELECT l.id, l.account_id, l.title, l.status, l.rejection_reason,
		       l.expires_at, l.created_at, l.updated_at,
		       COALESCE(p.display_name, ''), COALESCE(p.telegram_id, 0)
		FROM listings l
		LEFT JOIN profiles p ON p.account_id = l.account_id
		ORDER BY l.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.ListingWithOwner
	for rows.Next() {
		var l domain.ListingWithOwner
		if err := rows.Scan(
			&l.ID,
			&l.AccountID,
			&l.Title,
			&l.Status,
			&l.RejectionReason,
			&l.ExpiresAt,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.OwnerDisplayName,
			&l.OwnerTelegramID,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *PgListingRepository) Approve(ctx context.Context, id string, days int, now time.Time) error {
	const query = `
		UPDATE listings
		SET status = 'active', expires_at = $2, updated_at = $3
		WHERE id = $1
	`
	expiresAt := now.Add(time.Duration(days) * 24 * time.Hour)
	_, err := r.pool.Exec(ctx, query, id, expiresAt, now)
	return err
}

func (r *PgListingRepository) Reject(ctx context.Context, id, reason string, now time.Time) error {
	const query = `
		UPDATE listings
		SET status = 'rejected', rejection_reason = $2, updated_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, reason, now)
	return err
}

func (r *PgListingRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE listings
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND expires_at <= $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
