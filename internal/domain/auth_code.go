package domain

import "time"

// AuthCodeTTL es la ventana de validez de un código de acceso.
const AuthCodeTTL = 5 * time.Minute

// AuthCode es un código numérico de un solo uso enviado por Telegram.
type AuthCode struct {
	ID         string    `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Code       string    `json:"-"`
	Used       bool      `json:"used"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Redeemable indica si el código sigue siendo canjeable en el instante dado.
func (c AuthCode) Redeemable(now time.Time) bool {
	return !c.Used && c.ExpiresAt.After(now)
}
