package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"parkent-market/internal/repository"
)

// RedeemService valida, consume y convierte códigos de acceso en sesiones.
type RedeemService struct {
	logger    *zap.Logger
	codes     repository.AuthCodeRepository
	provision *ProvisionService
}

var (
	ErrInvalidCodeFormat = errors.New("invalid code format")
	ErrCodeNotFound      = errors.New("code not found or expired")
)

func NewRedeemService(logger *zap.Logger, codes repository.AuthCodeRepository, provision *ProvisionService) *RedeemService {
	return &RedeemService{
		logger:    logger,
		codes:     codes,
		provision: provision,
	}
}

// Redeem canjea un código por una sesión. El consumo es un compare-and-set
// sobre used: si dos llamadas concurrentes pasan la lectura, solo una gana
// la actualización condicional y la otra recibe ErrCodeNotFound.
func (s *RedeemService) Redeem(ctx context.Context, code string) (ProvisionResult, error) {
	if s.codes == nil || s.provision == nil {
		return ProvisionResult{}, errors.New("redeem service not configured")
	}

	if !isValidCodeFormat(code) {
		return ProvisionResult{}, ErrInvalidCodeFormat
	}

	now := time.Now().UTC()
	authCode, err := s.codes.FindNewestValid(ctx, code, now)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProvisionResult{}, ErrCodeNotFound
		}
		return ProvisionResult{}, err
	}

	consumed, err := s.codes.Consume(ctx, authCode.ID)
	if err != nil {
		return ProvisionResult{}, err
	}
	if !consumed {
		// Otro canje concurrente ya consumió este código.
		return ProvisionResult{}, ErrCodeNotFound
	}

	result, err := s.provision.ProvisionOrLogin(ctx, authCode.TelegramID, "")
	if err != nil {
		return ProvisionResult{}, err
	}

	s.logger.Info("auth code redeemed",
		zap.Int64("telegram_id", authCode.TelegramID),
		zap.Bool("is_new_account", result.IsNewAccount),
	)
	return result, nil
}

func isValidCodeFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	// Solo dígitos ASCII: otros dígitos Unicode no forman códigos válidos.
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
