package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomatyss/knotter/internal/models"
)

func TestLogInteraction(t *testing.T) {
	env := newTestEnv(t)
	contact := env.createContact(t, "Ada Lovelace", nil, nil)

	t.Run("Zero time means now", func(t *testing.T) {
		interaction, err := env.interactions.LogInteraction(contact.ID, "Call", "quick chat", time.Time{}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.InteractionCall, interaction.Kind)
		assert.True(t, interaction.HappenedAt.Equal(testNow))
	})

	t.Run("Backdated entries keep their time", func(t *testing.T) {
		happened := testNow.AddDate(0, 0, -3)
		interaction, err := env.interactions.LogInteraction(contact.ID, "meeting", "lunch", happened, nil)
		require.NoError(t, err)
		assert.True(t, interaction.HappenedAt.Equal(happened))
	})

	t.Run("Free-text kinds are kept lowercased", func(t *testing.T) {
		interaction, err := env.interactions.LogInteraction(contact.ID, "Postcard", "", testNow, nil)
		require.NoError(t, err)
		assert.Equal(t, "postcard", interaction.Kind)
	})

	t.Run("Blank kind is rejected", func(t *testing.T) {
		_, err := env.interactions.LogInteraction(contact.ID, "  ", "", testNow, nil)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("Unknown contact is rejected", func(t *testing.T) {
		_, err := env.interactions.LogInteraction("missing-id", "call", "", testNow, nil)
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("History is newest first", func(t *testing.T) {
		history, err := env.interactions.GetInteractions(contact.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.True(t, history[0].HappenedAt.After(history[len(history)-1].HappenedAt))
	})
}

func TestTouchContact(t *testing.T) {
	env := newTestEnv(t)

	t.Run("With a cadence the touchpoint moves forward", func(t *testing.T) {
		contact := env.createContact(t, "Ada Lovelace", nil, nil)
		contact.CadenceDays = intPtr(14)
		require.NoError(t, env.contacts.UpdateContact(contact))

		interaction, updated, err := env.interactions.TouchContact(contact.ID, "call", "caught up")
		require.NoError(t, err)
		assert.Equal(t, models.InteractionCall, interaction.Kind)
		require.NotNil(t, updated.NextTouchpoint)
		assert.True(t, updated.NextTouchpoint.Equal(testNow.AddDate(0, 0, 14)))
	})

	t.Run("Without a cadence only the interaction is logged", func(t *testing.T) {
		contact := env.createContact(t, "Grace Hopper", nil, nil)

		_, updated, err := env.interactions.TouchContact(contact.ID, "note", "")
		require.NoError(t, err)
		assert.Nil(t, updated.NextTouchpoint)

		history, err := env.interactions.GetInteractions(contact.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})
}
