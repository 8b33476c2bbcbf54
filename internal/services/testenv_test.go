package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
	"github.com/tomatyss/knotter/pkg/database"
)

// testNow is a Sunday noon UTC; tests pin the clock here.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db              *sql.DB
	clk             clock.Fixed
	contactRepo     *repositories.ContactRepository
	emailRepo       *repositories.ContactEmailRepository
	tagRepo         *repositories.TagRepository
	interactionRepo *repositories.InteractionRepository
	dateRepo        *repositories.ContactDateRepository
	candidateRepo   *repositories.MergeCandidateRepository

	contacts     *ContactService
	interactions *InteractionService
	dates        *ContactDateService
	candidates   *MergeCandidateService
	merges       *MergeService
	scans        *ScanService
	loops        *LoopService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := clock.Fixed{T: testNow, Loc: time.UTC}

	env := &testEnv{
		db:              db,
		clk:             clk,
		contactRepo:     repositories.NewContactRepository(db),
		emailRepo:       repositories.NewContactEmailRepository(db),
		tagRepo:         repositories.NewTagRepository(db),
		interactionRepo: repositories.NewInteractionRepository(db),
		dateRepo:        repositories.NewContactDateRepository(db),
		candidateRepo:   repositories.NewMergeCandidateRepository(db),
	}

	dueService := NewDueService()
	filterService := NewFilterService()
	linkedRepo := repositories.NewLinkedRecordRepository(db)

	env.contacts = NewContactService(db, env.contactRepo, env.emailRepo, env.tagRepo,
		env.candidateRepo, dueService, filterService, clk, 3)
	env.interactions = NewInteractionService(db, env.interactionRepo, env.contactRepo, dueService, clk)
	env.dates = NewContactDateService(env.dateRepo, env.contactRepo, clk)
	env.candidates = NewMergeCandidateService(env.candidateRepo, env.contactRepo, clk)
	env.merges = NewMergeService(db, env.contactRepo, env.emailRepo, env.tagRepo,
		env.interactionRepo, env.dateRepo, linkedRepo, env.candidateRepo, clk)
	env.scans = NewScanService(db, env.contactRepo, env.candidateRepo, env.candidates)
	env.loops = NewLoopService(db, env.contactRepo, env.tagRepo, clk)

	return env
}

func (env *testEnv) createContact(t *testing.T, name string, email, phone *string, tags ...string) *models.Contact {
	t.Helper()
	contact := models.NewContact(name)
	contact.Email = email
	contact.Phone = phone
	require.NoError(t, env.contacts.CreateContact(contact, tags))
	return contact
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func (env *testEnv) tagNames(t *testing.T, contactID string) []string {
	t.Helper()
	tags, err := env.tagRepo.GetByContactID(contactID)
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
