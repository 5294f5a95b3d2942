package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parkent-market/internal/domain"
	"parkent-market/internal/repository"
	"parkent-market/internal/telegram"
)

// IssuerService emite códigos de acceso cuando un usuario envía /start al bot.
type IssuerService struct {
	logger  *zap.Logger
	codes   repository.AuthCodeRepository
	sender  telegram.Sender
	limiter IssueRateLimiter
}

var ErrIssueRateLimited = errors.New("issue rate limited")

func NewIssuerService(logger *zap.Logger, codes repository.AuthCodeRepository, sender telegram.Sender, limiter IssueRateLimiter) *IssuerService {
	return &IssuerService{
		logger:  logger,
		codes:   codes,
		sender:  sender,
		limiter: limiter,
	}
}

// Issue genera un código nuevo para la identidad del trigger y lo envía por el canal.
// La limpieza de códigos vencidos es best-effort; la falla de entrega después de
// persistir deja el código vigente hasta su expiración (no hay reenvío).
func (s *IssuerService) Issue(ctx context.Context, trigger telegram.Trigger) (domain.AuthCode, error) {
	if s.codes == nil || s.sender == nil {
		return domain.AuthCode{}, errors.New("issuer service not configured")
	}

	if s.limiter != nil && !s.limiter.Allow(strconv.FormatInt(trigger.TelegramID, 10)) {
		s.logger.Warn("issue rate limited", zap.Int64("telegram_id", trigger.TelegramID))
		return domain.AuthCode{}, ErrIssueRateLimited
	}

	now := time.Now().UTC()
	if err := s.codes.DeleteExpired(ctx, trigger.TelegramID, now); err != nil {
		s.logger.Warn("stale code cleanup failed",
			zap.Error(err),
			zap.Int64("telegram_id", trigger.TelegramID),
		)
	}

	code, err := generateCode()
	if err != nil {
		return domain.AuthCode{}, err
	}

	authCode := domain.AuthCode{
		ID:         uuid.NewString(),
		TelegramID: trigger.TelegramID,
		Code:       code,
		Used:       false,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.AuthCodeTTL),
	}

	if err := s.codes.Create(ctx, authCode); err != nil {
		s.logger.Error("auth code persist failed",
			zap.Error(err),
			zap.Int64("telegram_id", trigger.TelegramID),
		)
		if sendErr := s.sender.SendFailure(ctx, trigger.ChatID); sendErr != nil {
			s.logger.Warn("failure notice delivery failed", zap.Error(sendErr))
		}
		return domain.AuthCode{}, err
	}

	displayName := trigger.FirstName
	if trigger.Username != "" {
		displayName = "@" + trigger.Username
	}
	if err := s.sender.SendCode(ctx, trigger.ChatID, code, displayName, authCode.ExpiresAt); err != nil {
		// El código persistido queda vigente toda su ventana aunque no se entregó.
		s.logger.Warn("code delivery failed",
			zap.Error(err),
			zap.Int64("telegram_id", trigger.TelegramID),
		)
		return authCode, nil
	}

	s.logger.Info("auth code issued", zap.Int64("telegram_id", trigger.TelegramID))
	return authCode, nil
}

// generateCode produce un código numérico uniforme de 6 dígitos (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
