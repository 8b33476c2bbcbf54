package repositories

import (
	"database/sql"

	"github.com/tomatyss/knotter/internal/models"
)

type ContactDateRepository struct {
	db DBTX
}

func NewContactDateRepository(db DBTX) *ContactDateRepository {
	return &ContactDateRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ContactDateRepository) WithTx(tx *sql.Tx) *ContactDateRepository {
	return &ContactDateRepository{db: tx}
}

const contactDateColumns = `id, contact_id, kind, label, month, day, year, created_at`

// Create creates a new contact date
func (r *ContactDateRepository) Create(date *models.ContactDate) error {
	query := `
		INSERT INTO contact_dates (` + contactDateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		date.ID, date.ContactID, date.Kind, date.Label, date.Month, date.Day,
		date.Year, date.CreatedAt,
	)
	return err
}

// GetByNaturalKey retrieves a date by its per-contact natural key.
// Returns nil without error when no such date exists.
func (r *ContactDateRepository) GetByNaturalKey(contactID, kind, label string, month, day int) (*models.ContactDate, error) {
	query := `
		SELECT ` + contactDateColumns + ` FROM contact_dates
		WHERE contact_id = ? AND kind = ? AND label = ? AND month = ? AND day = ?
	`

	date := &models.ContactDate{}
	err := r.db.QueryRow(query, contactID, kind, label, month, day).Scan(
		&date.ID, &date.ContactID, &date.Kind, &date.Label, &date.Month, &date.Day,
		&date.Year, &date.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return date, nil
}

// GetByContactID retrieves all dates of a contact.
func (r *ContactDateRepository) GetByContactID(contactID string) ([]*models.ContactDate, error) {
	query := `
		SELECT ` + contactDateColumns + ` FROM contact_dates
		WHERE contact_id = ?
		ORDER BY month, day, kind, label
	`
	return r.queryDates(query, contactID)
}

// GetAll retrieves every contact date.
func (r *ContactDateRepository) GetAll() ([]*models.ContactDate, error) {
	query := `SELECT ` + contactDateColumns + ` FROM contact_dates ORDER BY month, day`
	return r.queryDates(query)
}

// Update updates an existing contact date
func (r *ContactDateRepository) Update(date *models.ContactDate) error {
	query := `
		UPDATE contact_dates SET
			contact_id = ?, kind = ?, label = ?, month = ?, day = ?, year = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		date.ContactID, date.Kind, date.Label, date.Month, date.Day, date.Year, date.ID,
	)
	return err
}

// Delete deletes a contact date by ID
func (r *ContactDateRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM contact_dates WHERE id = ?`, id)
	return err
}

func (r *ContactDateRepository) queryDates(query string, args ...interface{}) ([]*models.ContactDate, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []*models.ContactDate
	for rows.Next() {
		date := &models.ContactDate{}
		err := rows.Scan(
			&date.ID, &date.ContactID, &date.Kind, &date.Label, &date.Month, &date.Day,
			&date.Year, &date.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}
