package domain

import (
	"fmt"
	"time"
)

// Account vincula una identidad de Telegram con una cuenta durable.
type Account struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	TelegramID     int64     `json:"telegram_id"`
	CredentialHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// SyntheticEmail deriva el login handle determinístico para un telegram id.
func SyntheticEmail(telegramID int64) string {
	return fmt.Sprintf("telegram_%d@parkent.market", telegramID)
}
