package telegram

import (
	"context"
	"errors"
	"time"
)

// Trigger es el evento entrante que dispara la emisión de un código:
// un usuario envió /start al bot.
type Trigger struct {
	TelegramID int64
	ChatID     int64
	Username   string
	FirstName  string
}

// Sender define la interfaz para enviar mensajes al canal de Telegram.
type Sender interface {
	SendCode(ctx context.Context, chatID int64, code string, displayName string, expiresAt time.Time) error
	SendFailure(ctx context.Context, chatID int64) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendCode(_ context.Context, _ int64, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("telegram sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendFailure(_ context.Context, _ int64) error {
	if s.reason == "" {
		return errors.New("telegram sender disabled")
	}
	return errors.New(s.reason)
}
