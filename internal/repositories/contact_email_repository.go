package repositories

import (
	"database/sql"

	"github.com/tomatyss/knotter/internal/models"
)

type ContactEmailRepository struct {
	db DBTX
}

func NewContactEmailRepository(db DBTX) *ContactEmailRepository {
	return &ContactEmailRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ContactEmailRepository) WithTx(tx *sql.Tx) *ContactEmailRepository {
	return &ContactEmailRepository{db: tx}
}

// Create creates a new contact email
func (r *ContactEmailRepository) Create(email *models.ContactEmail) error {
	query := `
		INSERT INTO contact_emails (id, contact_id, address, is_primary, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		email.ID, email.ContactID, email.Address, email.IsPrimary, email.Source, email.CreatedAt,
	)
	return err
}

// GetByAddress retrieves a contact email by address. Adapter-sourced rows can
// duplicate an address across contacts until a merge reconciles them; the
// oldest row wins the lookup. Returns nil without error when the address is
// unknown.
func (r *ContactEmailRepository) GetByAddress(address string) (*models.ContactEmail, error) {
	query := `
		SELECT id, contact_id, address, is_primary, source, created_at
		FROM contact_emails WHERE address = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	email := &models.ContactEmail{}
	err := r.db.QueryRow(query, address).Scan(
		&email.ID, &email.ContactID, &email.Address, &email.IsPrimary, &email.Source, &email.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return email, nil
}

// GetByContactID retrieves all emails of a contact, primary first.
func (r *ContactEmailRepository) GetByContactID(contactID string) ([]*models.ContactEmail, error) {
	query := `
		SELECT id, contact_id, address, is_primary, source, created_at
		FROM contact_emails WHERE contact_id = ?
		ORDER BY is_primary DESC, created_at ASC, address ASC
	`

	rows, err := r.db.Query(query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []*models.ContactEmail
	for rows.Next() {
		email := &models.ContactEmail{}
		err := rows.Scan(
			&email.ID, &email.ContactID, &email.Address, &email.IsPrimary, &email.Source, &email.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// Update updates an existing contact email
func (r *ContactEmailRepository) Update(email *models.ContactEmail) error {
	query := `
		UPDATE contact_emails SET
			contact_id = ?, address = ?, is_primary = ?, source = ?, created_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		email.ContactID, email.Address, email.IsPrimary, email.Source, email.CreatedAt, email.ID,
	)
	return err
}

// Delete deletes a contact email by ID
func (r *ContactEmailRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM contact_emails WHERE id = ?`, id)
	return err
}

// ClearPrimary unmarks every primary email of a contact.
func (r *ContactEmailRepository) ClearPrimary(contactID string) error {
	_, err := r.db.Exec(`UPDATE contact_emails SET is_primary = 0 WHERE contact_id = ?`, contactID)
	return err
}
