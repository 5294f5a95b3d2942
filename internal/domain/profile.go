package domain

import "time"

// Profile guarda los datos públicos de una cuenta. Relación 1:1 con Account.
type Profile struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	TelegramID  int64     `json:"telegram_id"`
	DisplayName string    `json:"display_name"`
	IsPremium   bool      `json:"is_premium"`
	IsBlocked   bool      `json:"is_blocked"`
	CreatedAt   time.Time `json:"created_at"`
}
