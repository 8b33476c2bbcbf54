package repositories

import (
	"database/sql"
	"strings"

	"github.com/tomatyss/knotter/internal/models"
)

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ContactRepository) WithTx(tx *sql.Tx) *ContactRepository {
	return &ContactRepository{db: tx}
}

const contactColumns = `id, name, email, phone, handle, timezone, next_touchpoint, cadence_days, archived_at, created_at, updated_at`

// Create creates a new contact
func (r *ContactRepository) Create(contact *models.Contact) error {
	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		contact.ID, contact.Name, contact.Email, contact.Phone, contact.Handle,
		contact.Timezone, contact.NextTouchpoint, contact.CadenceDays,
		contact.ArchivedAt, contact.CreatedAt, contact.UpdatedAt,
	)
	return err
}

// GetByID retrieves a contact by ID
func (r *ContactRepository) GetByID(id string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`

	contact := &models.Contact{}
	err := r.db.QueryRow(query, id).Scan(
		&contact.ID, &contact.Name, &contact.Email, &contact.Phone, &contact.Handle,
		&contact.Timezone, &contact.NextTouchpoint, &contact.CadenceDays,
		&contact.ArchivedAt, &contact.CreatedAt, &contact.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "contact", ID: id}
	}
	if err != nil {
		return nil, err
	}

	return contact, nil
}

// Update updates an existing contact
func (r *ContactRepository) Update(contact *models.Contact) error {
	query := `
		UPDATE contacts SET
			name = ?, email = ?, phone = ?, handle = ?, timezone = ?,
			next_touchpoint = ?, cadence_days = ?, archived_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		contact.Name, contact.Email, contact.Phone, contact.Handle, contact.Timezone,
		contact.NextTouchpoint, contact.CadenceDays, contact.ArchivedAt,
		contact.UpdatedAt, contact.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &models.NotFoundError{Resource: "contact", ID: contact.ID}
	}
	return nil
}

// Delete deletes a contact by ID
func (r *ContactRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &models.NotFoundError{Resource: "contact", ID: id}
	}
	return nil
}

// GetAll retrieves every contact, archived ones included.
func (r *ContactRepository) GetAll() ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY name COLLATE NOCASE ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ListQuery is a compiled, fully parameterized contact query.
type ListQuery struct {
	Where     []string
	Args      []interface{}
	OrderBy   string
	OrderArgs []interface{}
	Limit     int
	Offset    int
}

// List executes a compiled query plan. The WHERE fragments and the ORDER BY
// expression come from the filter compiler; values are always bound, never
// interpolated.
func (r *ContactRepository) List(q *ListQuery) ([]*models.Contact, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + contactColumns + ` FROM contacts c`)

	args := make([]interface{}, 0, len(q.Args)+len(q.OrderArgs)+2)
	if len(q.Where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(q.Where, " AND "))
		args = append(args, q.Args...)
	}
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY " + q.OrderBy)
		args = append(args, q.OrderArgs...)
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := r.db.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]*models.Contact, error) {
	var contacts []*models.Contact
	for rows.Next() {
		contact := &models.Contact{}
		err := rows.Scan(
			&contact.ID, &contact.Name, &contact.Email, &contact.Phone, &contact.Handle,
			&contact.Timezone, &contact.NextTouchpoint, &contact.CadenceDays,
			&contact.ArchivedAt, &contact.CreatedAt, &contact.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
