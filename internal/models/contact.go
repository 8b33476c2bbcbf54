package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinCadenceDays = 1
	MaxCadenceDays = 3650
)

// Contact is a person in the address book. The Email field is a denormalized
// cache of the primary ContactEmail address and is kept in sync by the
// contact service.
type Contact struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	Handle         *string    `json:"handle"`
	Timezone       *string    `json:"timezone"`
	NextTouchpoint *time.Time `json:"next_touchpoint"`
	CadenceDays    *int       `json:"cadence_days"`
	ArchivedAt     *time.Time `json:"archived_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewContact creates a new Contact with a generated UUID
func NewContact(name string) *Contact {
	return &Contact{
		ID:   uuid.New().String(),
		Name: name,
	}
}

// Validate checks the contact's own invariants.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "Display name is required"}
	}
	if c.CadenceDays != nil {
		if err := ValidateCadence(*c.CadenceDays); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCadence checks a cadence is within [1, 3650] days.
func ValidateCadence(days int) error {
	if days < MinCadenceDays || days > MaxCadenceDays {
		return &ValidationError{Field: "cadence_days", Message: "Cadence must be between 1 and 3650 days"}
	}
	return nil
}

// IsArchived reports whether the contact is archived.
func (c *Contact) IsArchived() bool {
	return c.ArchivedAt != nil
}

// IdentityRichness counts the contact's non-blank identity fields
// (email, phone, handle). Used by the duplicate scanner to pick the
// better-populated side of a same-name pair.
func (c *Contact) IdentityRichness() int {
	score := 0
	for _, field := range []*string{c.Email, c.Phone, c.Handle} {
		if field != nil && strings.TrimSpace(*field) != "" {
			score++
		}
	}
	return score
}

// NormalizeName collapses internal whitespace and lowercases a display name.
// Used as the grouping key by the same-name scanner.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
