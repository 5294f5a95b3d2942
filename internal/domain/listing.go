package domain

import "time"

// ListingStatus es el estado de moderación de un anuncio.
type ListingStatus string

const (
	ListingPending  ListingStatus = "pending"
	ListingActive   ListingStatus = "active"
	ListingRejected ListingStatus = "rejected"
	ListingExpired  ListingStatus = "expired"
)

// Listing es un anuncio del marketplace.
type Listing struct {
	ID              string        `json:"id"`
	AccountID       string        `json:"account_id"`
	Title           string        `json:"title"`
	Status          ListingStatus `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ListingWithOwner agrega los datos del dueño para vistas de administración.
type ListingWithOwner struct {
	Listing
	OwnerDisplayName string `json:"owner_display_name"`
	OwnerTelegramID  int64  `json:"owner_telegram_id"`
}
