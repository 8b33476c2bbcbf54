package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactEmail is one of a contact's addresses. The engine's write paths keep
// addresses unique across contacts after normalization; adapter-sourced rows
// may collide until a merge reconciles them. At most one address per contact
// is marked primary.
type ContactEmail struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Address   string    `json:"address"`
	IsPrimary bool      `json:"is_primary"`
	Source    *string   `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// NewContactEmail creates a new ContactEmail with a generated UUID
func NewContactEmail(contactID, address string) *ContactEmail {
	return &ContactEmail{
		ID:        uuid.New().String(),
		ContactID: contactID,
		Address:   NormalizeEmail(address),
	}
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Validate checks the address is present.
func (e *ContactEmail) Validate() error {
	if e.Address == "" {
		return &ValidationError{Field: "address", Message: "Email address is required"}
	}
	return nil
}
