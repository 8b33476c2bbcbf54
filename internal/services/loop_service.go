package services

import (
	"database/sql"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
)

// LoopService resolves tag-driven cadence policies and applies them to the
// contact base.
type LoopService struct {
	db          *sql.DB
	contactRepo *repositories.ContactRepository
	tagRepo     *repositories.TagRepository
	clk         clock.Clock
}

func NewLoopService(db *sql.DB, contactRepo *repositories.ContactRepository,
	tagRepo *repositories.TagRepository, clk clock.Clock) *LoopService {
	return &LoopService{
		db:          db,
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
		clk:         clk,
	}
}

// LoadPolicy reads and validates a loop policy from a YAML file.
func LoadPolicy(path string) (*models.LoopPolicy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	policy := &models.LoopPolicy{}
	if err := yaml.Unmarshal(content, policy); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// Resolve maps a contact's tag set to a cadence. The second return value
// reports whether any rule matched; a false means the cadence (if any) is the
// policy default, which callers treat differently when deciding whether to
// overwrite an existing cadence.
func (s *LoopService) Resolve(policy *models.LoopPolicy, tagNames []string) (*int, bool) {
	present := make(map[string]bool, len(tagNames))
	for _, name := range tagNames {
		present[name] = true
	}

	var best *models.LoopRule
	for i := range policy.Rules {
		rule := &policy.Rules[i]
		if !present[rule.Tag] {
			continue
		}
		if best == nil || betterRule(policy.Strategy, rule, best) {
			best = rule
		}
	}

	if best == nil {
		return policy.DefaultCadenceDays, false
	}
	cadence := best.CadenceDays
	return &cadence, true
}

// betterRule reports whether a beats b under the policy's strategy.
// The order is total, so resolution is deterministic.
func betterRule(strategy string, a, b *models.LoopRule) bool {
	if strategy == models.LoopPriority {
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
	}
	if a.CadenceDays != b.CadenceDays {
		return a.CadenceDays < b.CadenceDays
	}
	return a.Tag < b.Tag
}

// ApplyPolicy resolves the policy for every active contact and stores the
// resulting cadence, all inside one transaction. Contacts that already have a
// cadence keep it unless overwrite is set and a rule matched explicitly.
// Returns the number of contacts updated.
func (s *LoopService) ApplyPolicy(policy *models.LoopPolicy, overwrite bool) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	contactRepo := s.contactRepo.WithTx(tx)
	contacts, err := contactRepo.GetAll()
	if err != nil {
		return 0, err
	}
	tagNames, err := s.tagRepo.WithTx(tx).GetNamesByContact()
	if err != nil {
		return 0, err
	}

	now := s.clk.Now()
	updated := 0
	for _, contact := range contacts {
		if contact.IsArchived() {
			continue
		}
		cadence, matched := s.Resolve(policy, tagNames[contact.ID])
		if cadence == nil {
			continue
		}
		if contact.CadenceDays != nil {
			if !overwrite || !matched {
				continue
			}
			if *contact.CadenceDays == *cadence {
				continue
			}
		}
		value := *cadence
		contact.CadenceDays = &value
		contact.UpdatedAt = now
		if err := contactRepo.Update(contact); err != nil {
			return 0, err
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}
