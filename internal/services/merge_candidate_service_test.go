package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomatyss/knotter/internal/models"
)

func TestCreateCandidate(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "Ada Lovelace", nil, nil)
	b := env.createContact(t, "Ada L", nil, nil)

	t.Run("Creates a canonicalized open pair", func(t *testing.T) {
		candidate, created, err := env.candidates.CreateCandidate(b.ID, a.ID, models.ReasonManual, nil, nil)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.CandidateOpen, candidate.Status)
		assert.Less(t, candidate.ContactA, candidate.ContactB)
	})

	t.Run("Re-registering an open pair returns the existing candidate", func(t *testing.T) {
		first, _, err := env.candidates.CreateCandidate(a.ID, b.ID, models.ReasonManual, nil, nil)
		require.NoError(t, err)

		// Same pair in the opposite order.
		second, created, err := env.candidates.CreateCandidate(b.ID, a.ID, "whatever", nil, nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("A contact is never its own duplicate", func(t *testing.T) {
		_, _, err := env.candidates.CreateCandidate(a.ID, a.ID, models.ReasonManual, nil, nil)
		assert.True(t, models.IsConflict(err))
	})

	t.Run("Both contacts must exist", func(t *testing.T) {
		_, _, err := env.candidates.CreateCandidate(a.ID, "missing-id", models.ReasonManual, nil, nil)
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("A preferred ID outside the pair is dropped", func(t *testing.T) {
		c := env.createContact(t, "Grace Hopper", nil, nil)
		d := env.createContact(t, "Grace H", nil, nil)
		outsider := env.createContact(t, "Alan Turing", nil, nil)

		candidate, created, err := env.candidates.CreateCandidate(c.ID, d.ID, models.ReasonManual, nil, &outsider.ID)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Nil(t, candidate.PreferredID)
	})
}

func TestCandidateTransitions(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "Ada Lovelace", nil, nil)
	b := env.createContact(t, "Ada L", nil, nil)

	candidate, _, err := env.candidates.CreateCandidate(a.ID, b.ID, models.ReasonManual, nil, nil)
	require.NoError(t, err)

	dismissed, err := env.candidates.Dismiss(candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateDismissed, dismissed.Status)
	require.NotNil(t, dismissed.ResolvedAt)
	assert.True(t, dismissed.ResolvedAt.Equal(testNow))

	// Terminal states never transition again.
	_, err = env.candidates.Dismiss(candidate.ID)
	assert.True(t, models.IsConflict(err))
	_, err = env.candidates.MarkMerged(candidate.ID)
	assert.True(t, models.IsConflict(err))

	// A resolved pair can be registered again as a fresh candidate.
	fresh, created, err := env.candidates.CreateCandidate(a.ID, b.ID, models.ReasonManual, nil, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, candidate.ID, fresh.ID)
}

func TestListCandidates(t *testing.T) {
	env := newTestEnv(t)
	a := env.createContact(t, "Ada Lovelace", nil, nil)
	b := env.createContact(t, "Ada L", nil, nil)

	candidate, _, err := env.candidates.CreateCandidate(a.ID, b.ID, models.ReasonManual, nil, nil)
	require.NoError(t, err)

	open, err := env.candidates.ListCandidates(models.CandidateOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, candidate.ID, open[0].ID)

	merged, err := env.candidates.ListCandidates(models.CandidateMerged)
	require.NoError(t, err)
	assert.Empty(t, merged)

	_, err = env.candidates.ListCandidates("bogus")
	assert.True(t, models.IsValidation(err))
}
