package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"parkent-market/internal/repository"
)

// SweeperService expira en lote los anuncios activos vencidos.
type SweeperService struct {
	logger   *zap.Logger
	listings repository.ListingRepository
}

func NewSweeperService(logger *zap.Logger, listings repository.ListingRepository) *SweeperService {
	return &SweeperService{
		logger:   logger,
		listings: listings,
	}
}

// Sweep marca como expirados los anuncios activos con expires_at vencido y
// devuelve cuántos cambió. Idempotente: una segunda pasada sin vencimientos
// nuevos devuelve cero.
func (s *SweeperService) Sweep(ctx context.Context) (int64, error) {
	if s.listings == nil {
		return 0, errors.New("sweeper service not configured")
	}

	cleaned, err := s.listings.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if cleaned > 0 {
		s.logger.Info("expired listings swept", zap.Int64("cleaned", cleaned))
	}
	return cleaned, nil
}

// RunPeriodic ejecuta Sweep en cada tick hasta que el contexto se cancele.
func (s *SweeperService) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Warn("periodic sweep failed", zap.Error(err))
			}
		}
	}
}
