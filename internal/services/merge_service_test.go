package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomatyss/knotter/internal/models"
)

func TestMergeContactsFields(t *testing.T) {
	env := newTestEnv(t)

	primary := env.createContact(t, "Ada Lovelace", strPtr("ada@example.com"), nil)
	secondary := env.createContact(t, "Ada L", nil, strPtr("555-1111"), "friend")
	secondary.Handle = strPtr("@ada")
	secondary.CadenceDays = intPtr(30)
	require.NoError(t, env.contacts.UpdateContact(secondary))

	merged, err := env.merges.MergeContacts(primary.ID, secondary.ID, MergeOptions{})
	require.NoError(t, err)

	// The primary's present fields win; its gaps are filled from the secondary.
	assert.Equal(t, "Ada Lovelace", merged.Name)
	require.NotNil(t, merged.Email)
	assert.Equal(t, "ada@example.com", *merged.Email)
	require.NotNil(t, merged.Phone)
	assert.Equal(t, "555-1111", *merged.Phone)
	require.NotNil(t, merged.Handle)
	assert.Equal(t, "@ada", *merged.Handle)
	require.NotNil(t, merged.CadenceDays)
	assert.Equal(t, 30, *merged.CadenceDays)

	assert.Equal(t, []string{"friend"}, env.tagNames(t, primary.ID))

	_, err = env.contacts.GetContact(secondary.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestMergeContactsPreferSecondary(t *testing.T) {
	env := newTestEnv(t)

	primary := env.createContact(t, "Ada Lovelace", nil, strPtr("555-0000"))
	secondary := env.createContact(t, "Countess Lovelace", nil, strPtr("555-1111"))

	merged, err := env.merges.MergeContacts(primary.ID, secondary.ID, MergeOptions{Prefer: PreferSecondary})
	require.NoError(t, err)

	assert.Equal(t, "Countess Lovelace", merged.Name)
	assert.Equal(t, "555-1111", *merged.Phone)
	// The surviving row is still the primary's.
	assert.Equal(t, primary.ID, merged.ID)
}

func TestMergeTouchpointRules(t *testing.T) {
	env := newTestEnv(t)
	early := testNow.AddDate(0, 0, 2)
	late := testNow.AddDate(0, 0, 10)

	testCases := []struct {
		name      string
		primary   *time.Time
		secondary *time.Time
		rule      TouchpointRule
		expected  *time.Time
	}{
		{name: "Earliest of both", primary: &late, secondary: &early, rule: TouchpointEarliest, expected: &early},
		{name: "Earliest with absent primary takes the secondary", primary: nil, secondary: &early, rule: TouchpointEarliest, expected: &early},
		{name: "Latest of both", primary: &early, secondary: &late, rule: TouchpointLatest, expected: &late},
		{name: "Primary side verbatim", primary: nil, secondary: &early, rule: TouchpointPrimary, expected: nil},
		{name: "Secondary side verbatim", primary: &early, secondary: nil, rule: TouchpointSecondary, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := env.createContact(t, "Merge A "+tc.name, nil, nil)
			a.NextTouchpoint = tc.primary
			require.NoError(t, env.contactRepo.Update(a))
			b := env.createContact(t, "Merge B "+tc.name, nil, nil)
			b.NextTouchpoint = tc.secondary
			require.NoError(t, env.contactRepo.Update(b))

			merged, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{Touchpoint: tc.rule})
			require.NoError(t, err)
			if tc.expected == nil {
				assert.Nil(t, merged.NextTouchpoint)
			} else {
				require.NotNil(t, merged.NextTouchpoint)
				assert.True(t, merged.NextTouchpoint.Equal(*tc.expected))
			}
		})
	}
}

func TestMergeArchivedRules(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Active if any side is active", func(t *testing.T) {
		a := env.createContact(t, "Archived One", nil, nil)
		_, err := env.contacts.SetArchived(a.ID, true)
		require.NoError(t, err)
		b := env.createContact(t, "Active One", nil, nil)

		merged, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
		require.NoError(t, err)
		assert.Nil(t, merged.ArchivedAt)
	})

	t.Run("Both archived stays archived", func(t *testing.T) {
		a := env.createContact(t, "Archived Two", nil, nil)
		_, err := env.contacts.SetArchived(a.ID, true)
		require.NoError(t, err)
		b := env.createContact(t, "Archived Three", nil, nil)
		_, err = env.contacts.SetArchived(b.ID, true)
		require.NoError(t, err)

		merged, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
		require.NoError(t, err)
		assert.NotNil(t, merged.ArchivedAt)
	})
}

func TestMergeEmails(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Union with the primary's address staying primary", func(t *testing.T) {
		a := env.createContact(t, "Email A", strPtr("a@example.com"), nil)
		b := env.createContact(t, "Email B", strPtr("b@example.com"), nil)

		merged, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
		require.NoError(t, err)
		require.NotNil(t, merged.Email)
		assert.Equal(t, "a@example.com", *merged.Email)

		emails, err := env.emailRepo.GetByContactID(a.ID)
		require.NoError(t, err)
		require.Len(t, emails, 2)
		assert.Equal(t, "a@example.com", emails[0].Address)
		assert.True(t, emails[0].IsPrimary)
		assert.False(t, emails[1].IsPrimary)
	})

	t.Run("Falls back to the other side when the preferred has none", func(t *testing.T) {
		a := env.createContact(t, "Email C", nil, nil)
		b := env.createContact(t, "Email D", strPtr("d@example.com"), nil)

		merged, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
		require.NoError(t, err)
		require.NotNil(t, merged.Email)
		assert.Equal(t, "d@example.com", *merged.Email)
	})

	t.Run("Preferred side's unmarked address beats the other side's primary", func(t *testing.T) {
		a := env.createContact(t, "Email G", strPtr("g@example.com"), nil)
		a.Email = nil
		require.NoError(t, env.contacts.UpdateContact(a))
		b := env.createContact(t, "Email H", strPtr("h@example.com"), nil)

		merged, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
		require.NoError(t, err)
		require.NotNil(t, merged.Email)
		assert.Equal(t, "g@example.com", *merged.Email)
	})

	t.Run("A shared address collapses to one row", func(t *testing.T) {
		a := env.createContact(t, "Email E", strPtr("shared@example.com"), nil)
		b := env.createContact(t, "Email F", nil, nil)

		// A sync adapter landed the same address on the other contact; only
		// the merge reconciles that.
		src := "gmail-sync"
		dup := models.NewContactEmail(b.ID, "shared@example.com")
		dup.Source = &src
		dup.CreatedAt = testNow.AddDate(0, 0, -30)
		require.NoError(t, env.emailRepo.Create(dup))

		_, err := env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
		require.NoError(t, err)

		emails, err := env.emailRepo.GetByContactID(a.ID)
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "shared@example.com", emails[0].Address)
		assert.True(t, emails[0].IsPrimary)
		// The collision merged provenance and kept the earliest creation time.
		require.NotNil(t, emails[0].Source)
		assert.Equal(t, "gmail-sync", *emails[0].Source)
		assert.True(t, emails[0].CreatedAt.Equal(testNow.AddDate(0, 0, -30)))
	})
}

func TestMergeInteractionsAndDates(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "History A", nil, nil)
	b := env.createContact(t, "History B", nil, nil)

	_, err := env.interactions.LogInteraction(b.ID, models.InteractionCall, "old call", testNow.AddDate(0, 0, -7), nil)
	require.NoError(t, err)

	year := 1990
	aDate := models.NewContactDate(a.ID, models.DateBirthday, 3, 14)
	_, err = env.dates.UpsertDate(aDate, KeepExistingYear)
	require.NoError(t, err)
	bDate := models.NewContactDate(b.ID, models.DateBirthday, 3, 14)
	bDate.Year = &year
	_, err = env.dates.UpsertDate(bDate, KeepExistingYear)
	require.NoError(t, err)
	bOther := models.NewContactDate(b.ID, models.DateNameDay, 7, 1)
	_, err = env.dates.UpsertDate(bOther, KeepExistingYear)
	require.NoError(t, err)

	_, err = env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
	require.NoError(t, err)

	history, err := env.interactions.GetInteractions(a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "old call", history[0].Note)

	dates, err := env.dates.GetDates(a.ID)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	for _, date := range dates {
		if date.Kind == models.DateBirthday {
			// The colliding birthday kept one row and adopted the known year.
			require.NotNil(t, date.Year)
			assert.Equal(t, 1990, *date.Year)
		}
	}
}

func TestMergeResolvesCandidates(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "Ada Lovelace", nil, nil)
	b := env.createContact(t, "Ada L", nil, nil)
	c := env.createContact(t, "Ada Byron", nil, nil)

	pairAB, _, err := env.candidates.CreateCandidate(a.ID, b.ID, models.ReasonManual, nil, nil)
	require.NoError(t, err)
	pairBC, _, err := env.candidates.CreateCandidate(b.ID, c.ID, models.ReasonManual, nil, nil)
	require.NoError(t, err)
	pairAC, _, err := env.candidates.CreateCandidate(a.ID, c.ID, models.ReasonManual, nil, nil)
	require.NoError(t, err)

	_, err = env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
	require.NoError(t, err)

	reloaded, err := env.candidates.GetCandidate(pairAB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateMerged, reloaded.Status)

	reloaded, err = env.candidates.GetCandidate(pairBC.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateDismissed, reloaded.Status)

	// Pairs not touching the absorbed contact stay open.
	reloaded, err = env.candidates.GetCandidate(pairAC.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateOpen, reloaded.Status)
}

func TestMergeContactsErrors(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "Ada Lovelace", nil, nil)

	_, err := env.merges.MergeContacts(a.ID, a.ID, MergeOptions{})
	assert.True(t, models.IsConflict(err))

	_, err = env.merges.MergeContacts(a.ID, "missing-id", MergeOptions{})
	assert.True(t, models.IsNotFound(err))

	_, err = env.merges.MergeContacts(a.ID, a.ID, MergeOptions{Prefer: "neither"})
	assert.True(t, models.IsValidation(err))
}

func TestMergeRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "Ada Lovelace", nil, nil)
	b := env.createContact(t, "Ada L", nil, nil, "friend")

	// Sabotage a table touched mid-merge so the transaction fails after the
	// tag copy has already happened.
	_, err := env.db.Exec(`DROP TABLE interactions`)
	require.NoError(t, err)

	_, err = env.merges.MergeContacts(a.ID, b.ID, MergeOptions{})
	require.Error(t, err)

	// Nothing moved: the primary gained no tags and the secondary survived.
	assert.Empty(t, env.tagNames(t, a.ID))
	reloaded, err := env.contacts.GetContact(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L", reloaded.Name)
	assert.Equal(t, []string{"friend"}, env.tagNames(t, b.ID))
}
