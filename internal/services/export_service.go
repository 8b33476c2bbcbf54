package services

import (
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportService writes the contact list to an .xlsx workbook.
type ExportService struct {
	contactService *ContactService
}

func NewExportService(contactService *ContactService) *ExportService {
	return &ExportService{contactService: contactService}
}

// ExportContacts writes every contact, due bucket included, to path.
// Returns the number of exported rows.
func (s *ExportService) ExportContacts(path string) (int, error) {
	items, err := s.contactService.ListContacts("", 0, 0, 0)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Contacts"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{
		"Name", "Due", "Email", "Phone", "Handle", "Timezone",
		"Next Touchpoint", "Cadence (days)", "Archived",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return 0, err
	}

	for i, item := range items {
		contact := item.Contact
		row := []interface{}{
			contact.Name,
			string(item.DueState),
			optionalString(contact.Email),
			optionalString(contact.Phone),
			optionalString(contact.Handle),
			optionalString(contact.Timezone),
			optionalTime(contact.NextTouchpoint),
			"",
			contact.IsArchived(),
		}
		if contact.CadenceDays != nil {
			row[7] = *contact.CadenceDays
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return 0, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, err
	}
	return len(items), nil
}

func optionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
