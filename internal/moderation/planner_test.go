package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadFilterValidate(t *testing.T) {
	cutoff := time.Now()
	category := uint(2)

	t.Run("zero value rejected", func(t *testing.T) {
		assert.Error(t, ThreadFilter{}.Validate())
	})

	t.Run("explicit match-all accepted", func(t *testing.T) {
		assert.NoError(t, MatchAllThreads().Validate())
		assert.True(t, MatchAllThreads().MatchAll())
	})

	t.Run("match-all with criteria rejected", func(t *testing.T) {
		f := MatchAllThreads()
		f.OlderThan = &cutoff
		assert.Error(t, f.Validate())
	})

	t.Run("category only", func(t *testing.T) {
		assert.NoError(t, ThreadFilter{CategoryID: &category}.Validate())
	})

	t.Run("cutoff only", func(t *testing.T) {
		assert.NoError(t, ThreadFilter{OlderThan: &cutoff}.Validate())
	})

	t.Run("category and cutoff", func(t *testing.T) {
		assert.NoError(t, ThreadFilter{CategoryID: &category, OlderThan: &cutoff}.Validate())
	})
}

func TestChatFilterValidate(t *testing.T) {
	assert.NoError(t, ChatFilter{Channel: "general"}.Validate())
	assert.NoError(t, ChatFilter{Channel: AllChannels}.Validate())
	assert.Error(t, ChatFilter{Channel: "lobby"}.Validate())
	assert.Error(t, ChatFilter{}.Validate())
}

func TestInactiveWindow(t *testing.T) {
	w, err := InactiveWindow(30)
	require.NoError(t, err)
	assert.Equal(t, WindowInactivity, w.Mode)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), w.Cutoff(now))

	_, err = InactiveWindow(0)
	assert.Error(t, err)
	_, err = InactiveWindow(-5)
	assert.Error(t, err)
}

func TestRegistrationWindow(t *testing.T) {
	t.Run("end date is inclusive", func(t *testing.T) {
		w, err := RegistrationWindow("2026-01-01", "2026-01-31")
		require.NoError(t, err)
		assert.Equal(t, WindowRegistration, w.Mode)
		assert.Equal(t, 0, w.Start.Hour())
		assert.Equal(t, 23, w.End.Hour())
		assert.Equal(t, 59, w.End.Minute())
		assert.Equal(t, 31, w.End.Day())
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := RegistrationWindow("2026-02-01", "2026-01-01")
		assert.Error(t, err)
	})

	t.Run("malformed dates rejected", func(t *testing.T) {
		_, err := RegistrationWindow("January 1", "2026-01-31")
		assert.Error(t, err)
		_, err = RegistrationWindow("2026-01-01", "31/01/2026")
		assert.Error(t, err)
	})
}

func TestParseCutoffDate(t *testing.T) {
	got, err := ParseCutoffDate("2026-06-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Hour(), "cutoff is the start of the day")

	got, err = ParseCutoffDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseCutoffDate("soon")
	assert.Error(t, err)
}
