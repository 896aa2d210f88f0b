package repository

import (
	"context"
	"testing"
	"time"

	"azox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedMessage(t *testing.T, db *gorm.DB, m models.Message) *models.Message {
	t.Helper()
	if m.MessageType == "" {
		m.MessageType = models.MessageTypeText
	}
	require.NoError(t, db.Create(&m).Error)
	return &m
}

func TestMessageRepository_ListChannel(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "alice@example.com", models.RoleUser)
	bob := seedUser(t, db, "bob", "bob@example.com", models.RoleUser)

	seedMessage(t, db, models.Message{SenderID: alice.ID, Channel: models.ChannelGeneral, Content: "first", CreatedAt: time.Now().Add(-2 * time.Minute)})
	seedMessage(t, db, models.Message{SenderID: bob.ID, Channel: models.ChannelGeneral, Content: "second", CreatedAt: time.Now().Add(-time.Minute)})
	seedMessage(t, db, models.Message{SenderID: alice.ID, Channel: models.ChannelPvP, Content: "other channel", CreatedAt: time.Now()})
	seedMessage(t, db, models.Message{SenderID: alice.ID, Channel: models.ChannelGeneral, Content: "hidden", IsDeleted: true, CreatedAt: time.Now()})
	seedMessage(t, db, models.Message{SenderID: alice.ID, ReceiverID: &bob.ID, Content: "a dm", CreatedAt: time.Now()})

	messages, err := repo.ListChannel(ctx, models.ChannelGeneral, 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content, "channel history is oldest first")
	assert.Equal(t, "second", messages[1].Content)
}

func TestMessageRepository_ListDM(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "alice@example.com", models.RoleUser)
	bob := seedUser(t, db, "bob", "bob@example.com", models.RoleUser)
	carol := seedUser(t, db, "carol", "carol@example.com", models.RoleUser)

	seedMessage(t, db, models.Message{SenderID: alice.ID, ReceiverID: &bob.ID, Content: "hi bob", CreatedAt: time.Now().Add(-3 * time.Minute)})
	seedMessage(t, db, models.Message{SenderID: bob.ID, ReceiverID: &alice.ID, Content: "hi alice", CreatedAt: time.Now().Add(-2 * time.Minute)})
	seedMessage(t, db, models.Message{SenderID: carol.ID, ReceiverID: &alice.ID, Content: "unrelated", CreatedAt: time.Now()})

	t.Run("both directions in one thread", func(t *testing.T) {
		messages, err := repo.ListDM(ctx, alice.ID, bob.ID, 50)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "hi bob", messages[0].Content)
		assert.Equal(t, "hi alice", messages[1].Content)
	})

	t.Run("symmetric for either participant", func(t *testing.T) {
		asBob, err := repo.ListDM(ctx, bob.ID, alice.ID, 50)
		require.NoError(t, err)
		require.Len(t, asBob, 2)
	})
}

func TestMessageRepository_CountSentSince(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "alice@example.com", models.RoleUser)
	bob := seedUser(t, db, "bob", "bob@example.com", models.RoleUser)

	for i := 0; i < 3; i++ {
		seedMessage(t, db, models.Message{SenderID: alice.ID, Channel: models.ChannelGeneral, Content: "spam", CreatedAt: time.Now()})
	}
	// Deleted rows still count against the sender's window.
	seedMessage(t, db, models.Message{SenderID: alice.ID, Channel: models.ChannelGeneral, Content: "gone", IsDeleted: true, CreatedAt: time.Now()})
	// Outside the window.
	seedMessage(t, db, models.Message{SenderID: alice.ID, Channel: models.ChannelGeneral, Content: "old", CreatedAt: time.Now().Add(-2 * time.Minute)})
	// Someone else's traffic.
	seedMessage(t, db, models.Message{SenderID: bob.ID, Channel: models.ChannelGeneral, Content: "other", CreatedAt: time.Now()})

	n, err := repo.CountSentSince(ctx, alice.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestMessageRepository_ListNewDMs(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "alice@example.com", models.RoleUser)
	bob := seedUser(t, db, "bob", "bob@example.com", models.RoleUser)

	seedMessage(t, db, models.Message{SenderID: bob.ID, ReceiverID: &alice.ID, Content: "new", CreatedAt: time.Now()})
	seedMessage(t, db, models.Message{SenderID: bob.ID, ReceiverID: &alice.ID, Content: "old", CreatedAt: time.Now().Add(-time.Hour)})

	messages, err := repo.ListNewDMs(ctx, alice.ID, time.Now().Add(-5*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "new", messages[0].Content)
}
