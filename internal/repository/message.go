package repository

import (
	"context"
	"time"

	"azox/internal/models"
	"azox/internal/observability"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for chat and direct messages.
type MessageRepository interface {
	ListChannel(ctx context.Context, channel string, limit int) ([]models.Message, error)
	ListChannelAfter(ctx context.Context, channel string, afterID uint, limit int) ([]models.Message, error)
	ListDM(ctx context.Context, userA, userB uint, limit int) ([]models.Message, error)
	ListNewDMs(ctx context.Context, userID uint, since time.Time, limit int) ([]models.Message, error)
	ListDMsInvolving(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	CountSentSince(ctx context.Context, senderID uint, since time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// ListChannel returns the newest messages of a public channel, oldest first.
func (r *messageRepository) ListChannel(ctx context.Context, channel string, limit int) ([]models.Message, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "message.ListChannel", "messages")
	defer span.End()

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("channel = ? AND receiver_id IS NULL AND is_deleted = ?", channel, false).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	reverse(messages)
	return messages, nil
}

// ListChannelAfter returns channel messages with an id greater than afterID,
// oldest first. Pollers pass the last id they have seen.
func (r *messageRepository) ListChannelAfter(ctx context.Context, channel string, afterID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("channel = ? AND receiver_id IS NULL AND is_deleted = ? AND id > ?", channel, false, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// ListDM returns the conversation between two users, oldest first. Both
// directions of the pair are part of the same thread.
func (r *messageRepository) ListDM(ctx context.Context, userA, userB uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("is_deleted = ?", false).
		Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA,
		).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	reverse(messages)
	return messages, nil
}

// ListNewDMs returns DMs addressed to userID created after since, newest first.
func (r *messageRepository) ListNewDMs(ctx context.Context, userID uint, since time.Time, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("receiver_id = ? AND is_deleted = ? AND created_at > ?", userID, false, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// ListDMsInvolving returns the newest direct messages a user sent or
// received, for the moderation console. Deleted rows stay visible there.
func (r *messageRepository) ListDMsInvolving(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("receiver_id IS NOT NULL").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// CountSentSince counts every message a user sent after since, deleted or
// not, so deleting messages does not reset the rate limiter.
func (r *messageRepository) CountSentSince(ctx context.Context, senderID uint, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND created_at > ?", senderID, since).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("is_deleted = ?", false).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func reverse(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
