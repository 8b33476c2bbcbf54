package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomatyss/knotter/internal/models"
)

func TestUpsertDate(t *testing.T) {
	env := newTestEnv(t)
	contact := env.createContact(t, "Ada Lovelace", nil, nil)

	t.Run("Creates on first sight", func(t *testing.T) {
		date := models.NewContactDate(contact.ID, models.DateBirthday, 12, 10)
		created, err := env.dates.UpsertDate(date, KeepExistingYear)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("Hitting the natural key again is not an error", func(t *testing.T) {
		year := 1815
		date := models.NewContactDate(contact.ID, models.DateBirthday, 12, 10)
		date.Year = &year
		created, err := env.dates.UpsertDate(date, KeepExistingYear)
		require.NoError(t, err)
		assert.False(t, created)

		// The stored row had no year, so the incoming one was adopted.
		dates, err := env.dates.GetDates(contact.ID)
		require.NoError(t, err)
		require.Len(t, dates, 1)
		require.NotNil(t, dates[0].Year)
		assert.Equal(t, 1815, *dates[0].Year)
	})

	t.Run("KeepExistingYear preserves a year already on file", func(t *testing.T) {
		other := 1816
		date := models.NewContactDate(contact.ID, models.DateBirthday, 12, 10)
		date.Year = &other
		_, err := env.dates.UpsertDate(date, KeepExistingYear)
		require.NoError(t, err)

		dates, err := env.dates.GetDates(contact.ID)
		require.NoError(t, err)
		require.Len(t, dates, 1)
		assert.Equal(t, 1815, *dates[0].Year)
		// The caller's struct reflects what is actually stored.
		assert.Equal(t, 1815, *date.Year)
	})

	t.Run("OverwriteYear takes the incoming year", func(t *testing.T) {
		other := 1816
		date := models.NewContactDate(contact.ID, models.DateBirthday, 12, 10)
		date.Year = &other
		_, err := env.dates.UpsertDate(date, OverwriteYear)
		require.NoError(t, err)

		dates, err := env.dates.GetDates(contact.ID)
		require.NoError(t, err)
		require.Len(t, dates, 1)
		assert.Equal(t, 1816, *dates[0].Year)
	})

	t.Run("Custom dates with different labels are distinct", func(t *testing.T) {
		first := models.NewContactDate(contact.ID, models.DateCustom, 6, 1)
		first.Label = "anniversary"
		created, err := env.dates.UpsertDate(first, KeepExistingYear)
		require.NoError(t, err)
		assert.True(t, created)

		second := models.NewContactDate(contact.ID, models.DateCustom, 6, 1)
		second.Label = "first met"
		created, err = env.dates.UpsertDate(second, KeepExistingYear)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("Rejects impossible days and blank custom labels", func(t *testing.T) {
		date := models.NewContactDate(contact.ID, models.DateBirthday, 4, 31)
		_, err := env.dates.UpsertDate(date, KeepExistingYear)
		assert.True(t, models.IsValidation(err))

		custom := models.NewContactDate(contact.ID, models.DateCustom, 6, 1)
		_, err = env.dates.UpsertDate(custom, KeepExistingYear)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("Feb 29 is storable without a year", func(t *testing.T) {
		date := models.NewContactDate(contact.ID, models.DateBirthday, 2, 29)
		created, err := env.dates.UpsertDate(date, KeepExistingYear)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestListUpcoming(t *testing.T) {
	env := newTestEnv(t)
	contact := env.createContact(t, "Ada Lovelace", nil, nil)

	// testNow is June 15.
	today := models.NewContactDate(contact.ID, models.DateCustom, 6, 15)
	today.Label = "today"
	_, err := env.dates.UpsertDate(today, KeepExistingYear)
	require.NoError(t, err)

	inWindow := models.NewContactDate(contact.ID, models.DateCustom, 6, 20)
	inWindow.Label = "in window"
	_, err = env.dates.UpsertDate(inWindow, KeepExistingYear)
	require.NoError(t, err)

	outside := models.NewContactDate(contact.ID, models.DateCustom, 7, 20)
	outside.Label = "outside"
	_, err = env.dates.UpsertDate(outside, KeepExistingYear)
	require.NoError(t, err)

	upcoming, err := env.dates.ListUpcoming(7)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "today", upcoming[0].Date.Label)
	assert.True(t, upcoming[0].OccursOn.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "in window", upcoming[1].Date.Label)

	_, err = env.dates.ListUpcoming(0)
	assert.True(t, models.IsValidation(err))
}

func TestOccursOnLeapFallback(t *testing.T) {
	date := models.NewContactDate("c1", models.DateBirthday, 2, 29)

	assert.True(t, date.OccursOn(2024, 2, 29), "leap year matches the literal day")
	assert.False(t, date.OccursOn(2024, 2, 28), "no fallback when the year has a Feb 29")
	assert.True(t, date.OccursOn(2025, 2, 28), "non-leap year falls back to Feb 28")
	assert.False(t, date.OccursOn(2025, 2, 29), "non-leap year has no Feb 29 to match")

	plain := models.NewContactDate("c1", models.DateBirthday, 2, 28)
	assert.True(t, plain.OccursOn(2024, 2, 28))
	assert.False(t, plain.OccursOn(2024, 2, 29))
}
