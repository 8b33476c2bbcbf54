package services

import (
	"strings"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
)

// DueSelector is the due: token of the filter DSL.
type DueSelector string

const (
	DueSelectorNone    DueSelector = ""
	DueSelectorOverdue DueSelector = "overdue"
	DueSelectorToday   DueSelector = "today"
	DueSelectorSoon    DueSelector = "soon"
	DueSelectorAny     DueSelector = "any"
	DueSelectorUnset   DueSelector = "none"
)

// Filter is the parsed form of the contact filter DSL. All predicates
// combine with AND; the DSL has no OR or NOT, which keeps compiled queries
// monotonic and safe to paginate.
type Filter struct {
	Tags     []string
	Terms    []string
	Due      DueSelector
	Archived *bool
}

// FilterService parses the filter DSL and compiles it to a parameterized
// query plan.
type FilterService struct{}

func NewFilterService() *FilterService {
	return &FilterService{}
}

// Parse splits a filter string into predicates.
//
//	#tag            tag membership (normalized, must be valid)
//	due:<selector>  overdue|today|soon|any|none, at most once
//	archived:<b>    true|false, at most once
//	anything else   substring match on name/email/phone/handle
func (s *FilterService) Parse(input string) (*Filter, error) {
	filter := &Filter{}

	for _, token := range strings.Fields(input) {
		switch {
		case strings.HasPrefix(token, "#"):
			name, err := models.NormalizeTagName(token[1:])
			if err != nil {
				return nil, err
			}
			filter.Tags = append(filter.Tags, name)

		case strings.HasPrefix(token, "due:"):
			if filter.Due != DueSelectorNone {
				return nil, &models.ValidationError{Field: "filter", Message: "Duplicate due: filter"}
			}
			selector := DueSelector(strings.ToLower(token[len("due:"):]))
			switch selector {
			case DueSelectorOverdue, DueSelectorToday, DueSelectorSoon, DueSelectorAny, DueSelectorUnset:
				filter.Due = selector
			default:
				return nil, &models.ValidationError{Field: "filter", Message: "Unknown due: selector " + string(selector)}
			}

		case strings.HasPrefix(token, "archived:"):
			if filter.Archived != nil {
				return nil, &models.ValidationError{Field: "filter", Message: "Conflicting archived: filters"}
			}
			switch strings.ToLower(token[len("archived:"):]) {
			case "true":
				value := true
				filter.Archived = &value
			case "false":
				value := false
				filter.Archived = &value
			default:
				return nil, &models.ValidationError{Field: "filter", Message: "archived: expects true or false"}
			}

		default:
			filter.Terms = append(filter.Terms, strings.ToLower(token))
		}
	}

	return filter, nil
}

// Compile turns a parsed filter into WHERE fragments and bound arguments
// against the contacts table (aliased c). User text is always bound, never
// concatenated into SQL. The ORDER BY reproduces the fixed listing order:
// due-bucket rank first, then display name case-insensitively; the same
// bounds drive per-item due labeling so the two can never disagree.
func (s *FilterService) Compile(filter *Filter, bounds DueBounds) *repositories.ListQuery {
	q := &repositories.ListQuery{}

	for _, tag := range filter.Tags {
		q.Where = append(q.Where, `EXISTS (
			SELECT 1 FROM contact_tags ct
			INNER JOIN tags t ON t.id = ct.tag_id
			WHERE ct.contact_id = c.id AND t.name = ?)`)
		q.Args = append(q.Args, tag)
	}

	for _, term := range filter.Terms {
		pattern := "%" + term + "%"
		q.Where = append(q.Where, `(LOWER(c.name) LIKE ?
			OR LOWER(IFNULL(c.email, '')) LIKE ?
			OR LOWER(IFNULL(c.phone, '')) LIKE ?
			OR LOWER(IFNULL(c.handle, '')) LIKE ?)`)
		q.Args = append(q.Args, pattern, pattern, pattern, pattern)
	}

	if filter.Archived != nil {
		if *filter.Archived {
			q.Where = append(q.Where, `c.archived_at IS NOT NULL`)
		} else {
			q.Where = append(q.Where, `c.archived_at IS NULL`)
		}
	}

	switch filter.Due {
	case DueSelectorOverdue:
		q.Where = append(q.Where, `c.next_touchpoint IS NOT NULL AND c.next_touchpoint < ?`)
		q.Args = append(q.Args, bounds.Now)
	case DueSelectorToday:
		q.Where = append(q.Where, `c.next_touchpoint >= ? AND c.next_touchpoint < ?`)
		q.Args = append(q.Args, bounds.Now, bounds.TomorrowStart)
	case DueSelectorSoon:
		q.Where = append(q.Where, `c.next_touchpoint >= ? AND c.next_touchpoint < ?`)
		q.Args = append(q.Args, bounds.TomorrowStart, bounds.SoonEnd)
	case DueSelectorAny:
		q.Where = append(q.Where, `c.next_touchpoint IS NOT NULL`)
	case DueSelectorUnset:
		q.Where = append(q.Where, `c.next_touchpoint IS NULL`)
	}

	q.OrderBy = `CASE
		WHEN c.next_touchpoint IS NULL THEN 4
		WHEN c.next_touchpoint < ? THEN 0
		WHEN c.next_touchpoint < ? THEN 1
		WHEN c.next_touchpoint < ? THEN 2
		ELSE 3
	END ASC, c.name COLLATE NOCASE ASC`
	q.OrderArgs = []interface{}{bounds.Now, bounds.TomorrowStart, bounds.SoonEnd}

	return q
}
