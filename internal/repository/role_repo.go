package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkent-market/internal/domain"
)

// RoleRepository define el contrato de persistencia para roles.
type RoleRepository interface {
	GetRole(ctx context.Context, accountID string) (domain.Role, error)
}

// PgRoleRepository implementa RoleRepository usando pgxpool.
type PgRoleRepository struct {
	pool *pgxpool.Pool
}

func NewPgRoleRepository(pool *pgxpool.Pool) *PgRoleRepository {
	return &PgRoleRepository{pool: pool}
}

func (r *PgRoleRepository) GetRole(ctx context.Context, accountID string) (domain.Role, error) {
	const query = `
		SELECT role
		FROM account_roles
		WHERE account_id = $1
	`
	var role string
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	return domain.Role(role), err
}
