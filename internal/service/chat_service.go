// Package service provides application business logic (forum, chat, settings, notifications).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"azox/internal/authz"
	"azox/internal/cache"
	"azox/internal/middleware"
	"azox/internal/models"
	"azox/internal/repository"

	"gorm.io/gorm"
)

const (
	chatRateWindow = time.Minute
	chatRateLimit  = 10

	// maxChannelPage caps how many messages one poll can fetch.
	maxChannelPage = 50

	// newDMFallback is the lookback window when a client has never polled.
	newDMFallback = 5 * time.Minute
	newDMLimit    = 10
)

type ChatService struct {
	db          *gorm.DB
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

type SendMessageInput struct {
	SenderID uint
	// Channel is set for broadcasts; ReceiverUsername for direct messages.
	// Exactly one of the two must be non-empty.
	Channel          string
	ReceiverUsername string
	Content          string
}

// UserPresence is a user decorated with the online flag for listings.
type UserPresence struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	IsBanned bool        `json:"is_banned"`
	IsOnline bool        `json:"is_online"`
}

func NewChatService(db *gorm.DB, messageRepo repository.MessageRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{db: db, messageRepo: messageRepo, userRepo: userRepo}
}

// ChannelMessages returns messages of a public channel, oldest first. An
// afterID of zero returns the newest page instead.
func (s *ChatService) ChannelMessages(ctx context.Context, channel string, afterID uint, limit int) ([]models.Message, error) {
	if !models.ValidChannel(channel) {
		return nil, models.NewValidationError("Invalid channel")
	}
	if limit <= 0 || limit > maxChannelPage {
		limit = maxChannelPage
	}
	if afterID > 0 {
		return s.messageRepo.ListChannelAfter(ctx, channel, afterID, limit)
	}
	return s.messageRepo.ListChannel(ctx, channel, limit)
}

// SendMessage stores a channel broadcast or a direct message. Sends count
// against a rolling per-sender window whether or not earlier messages have
// since been deleted.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}
	if len(content) > models.MaxMessageLen {
		return nil, models.NewValidationError(fmt.Sprintf("Message too long (max %d characters)", models.MaxMessageLen))
	}

	sender, err := s.requireSender(ctx, in.SenderID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		SenderID:    sender.ID,
		Content:     content,
		MessageType: models.MessageTypeText,
	}

	var receiver *models.User
	switch {
	case in.ReceiverUsername != "":
		receiver, err = s.userRepo.GetByUsername(ctx, in.ReceiverUsername)
		if err != nil {
			return nil, err
		}
		if receiver == nil || !receiver.IsActive {
			return nil, models.NewNotFoundError("user", in.ReceiverUsername)
		}
		if receiver.ID == sender.ID {
			return nil, models.NewValidationError("You cannot message yourself")
		}
		message.ReceiverID = &receiver.ID
	case models.ValidChannel(in.Channel):
		message.Channel = in.Channel
	default:
		return nil, models.NewValidationError("Invalid channel")
	}

	sent, err := s.messageRepo.CountSentSince(ctx, sender.ID, time.Now().Add(-chatRateWindow))
	if err != nil {
		return nil, err
	}
	if sent >= chatRateLimit {
		middleware.ChatRateLimited.Inc()
		return nil, models.NewValidationError("Rate limit exceeded. Please slow down.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		if receiver != nil {
			notification := &models.Notification{
				UserID:      receiver.ID,
				Type:        models.NotificationDM,
				Title:       "New direct message",
				Content:     fmt.Sprintf("%s sent you a message", sender.Username),
				RelatedID:   message.ID,
				RelatedType: models.RelatedMessage,
			}
			return tx.Create(notification).Error
		}
		return nil
	})
	if err != nil {
		return nil, models.NewDatabaseError("send message", err)
	}

	if receiver != nil {
		middleware.ChatMessagesSent.WithLabelValues("dm").Inc()
	} else {
		middleware.ChatMessagesSent.WithLabelValues(message.Channel).Inc()
		cache.InvalidateChannel(ctx, message.Channel)
		s.pruneChannel(ctx, message.Channel)
	}

	message.Sender = sender
	return message, nil
}

// DirectMessages returns the conversation between the actor and another
// user by username. Moderators may read conversations they are not part of;
// every such read leaves an audit log row.
func (s *ChatService) DirectMessages(ctx context.Context, actor authz.Actor, username string, limit int) ([]models.Message, error) {
	other, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, models.NewNotFoundError("user", username)
	}
	if limit <= 0 || limit > maxChannelPage {
		limit = maxChannelPage
	}

	if err := authz.CanViewDM(actor, actor.ID, other.ID); err != nil {
		return nil, err
	}
	if authz.IsDMOverride(actor, actor.ID, other.ID) {
		s.auditOverride(ctx, actor, fmt.Sprintf("viewed DMs of %s", other.Username))
	}

	return s.messageRepo.ListDM(ctx, actor.ID, other.ID, limit)
}

// ConversationBetween returns DMs between two arbitrary users for the
// moderation console. Always audit-logged.
func (s *ChatService) ConversationBetween(ctx context.Context, actor authz.Actor, usernameA, usernameB string, limit int) ([]models.Message, error) {
	userA, err := s.userRepo.GetByUsername(ctx, usernameA)
	if err != nil {
		return nil, err
	}
	if userA == nil {
		return nil, models.NewNotFoundError("user", usernameA)
	}
	userB, err := s.userRepo.GetByUsername(ctx, usernameB)
	if err != nil {
		return nil, err
	}
	if userB == nil {
		return nil, models.NewNotFoundError("user", usernameB)
	}
	if limit <= 0 || limit > maxChannelPage {
		limit = maxChannelPage
	}

	if err := authz.CanViewDM(actor, userA.ID, userB.ID); err != nil {
		return nil, err
	}
	if authz.IsDMOverride(actor, userA.ID, userB.ID) {
		s.auditOverride(ctx, actor, fmt.Sprintf("viewed DMs between %s and %s", userA.Username, userB.Username))
	}

	return s.messageRepo.ListDM(ctx, userA.ID, userB.ID, limit)
}

// UserDMs returns every direct message a user sent or received, for the
// moderation console. Moderator only, always audit-logged.
func (s *ChatService) UserDMs(ctx context.Context, actor authz.Actor, username string, limit int) ([]models.Message, error) {
	if !actor.Role.Moderator() {
		return nil, models.NewForbiddenError("You cannot view direct messages of other users")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", username)
	}
	if limit <= 0 || limit > maxChannelPage {
		limit = maxChannelPage
	}

	s.auditOverride(ctx, actor, fmt.Sprintf("listed all DMs of %s", user.Username))
	return s.messageRepo.ListDMsInvolving(ctx, user.ID, limit)
}

// CheckNewDMs returns unseen direct messages for a poller. A nil since
// falls back to a short window so a fresh client does not replay history.
func (s *ChatService) CheckNewDMs(ctx context.Context, userID uint, since *time.Time) ([]models.Message, error) {
	cutoff := time.Now().Add(-newDMFallback)
	if since != nil {
		cutoff = *since
	}
	return s.messageRepo.ListNewDMs(ctx, userID, cutoff, newDMLimit)
}

// OnlineUsers returns users active within the online window.
func (s *ChatService) OnlineUsers(ctx context.Context) ([]UserPresence, error) {
	users, err := s.userRepo.ListOnline(ctx, time.Now().Add(-models.OnlineWindow))
	if err != nil {
		return nil, err
	}
	return presences(users, time.Now()), nil
}

// AllUsers returns active users matching query (every user when empty),
// each flagged with current presence.
func (s *ChatService) AllUsers(ctx context.Context, query string, limit, offset int) ([]UserPresence, error) {
	users, err := s.userRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return presences(users, time.Now()), nil
}

// TouchActivity stamps the caller's last_active so presence stays fresh.
func (s *ChatService) TouchActivity(ctx context.Context, userID uint) error {
	return s.userRepo.TouchLastActive(ctx, userID)
}

func (s *ChatService) requireSender(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is not active")
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("You are banned and cannot send messages")
	}
	return user, nil
}

// pruneChannel soft-deletes channel history beyond the retention window.
// Best effort after a successful send; a failed prune never fails the send.
func (s *ChatService) pruneChannel(ctx context.Context, channel string) {
	keep := s.db.WithContext(ctx).Model(&models.Message{}).
		Select("id").
		Where("channel = ? AND receiver_id IS NULL AND is_deleted = ?", channel, false).
		Order("created_at DESC").
		Limit(models.ChannelRetention)

	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("channel = ? AND receiver_id IS NULL AND is_deleted = ?", channel, false).
		Where("id NOT IN (?)", keep).
		Update("is_deleted", true)
	if res.Error != nil {
		slog.WarnContext(ctx, "channel prune failed", "channel", channel, "error", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		slog.InfoContext(ctx, "pruned channel history", "channel", channel, "rows", res.RowsAffected)
	}
}

func (s *ChatService) auditOverride(ctx context.Context, actor authz.Actor, detail string) {
	entry := &models.AuditLog{
		ActorID: actor.ID,
		Action:  models.AuditDMOverride,
		Detail:  detail,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		slog.ErrorContext(ctx, "failed to write audit log", "action", entry.Action, "error", err)
	}
}

func presences(users []models.User, now time.Time) []UserPresence {
	out := make([]UserPresence, 0, len(users))
	for _, u := range users {
		out = append(out, UserPresence{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
			IsBanned: u.IsBanned,
			IsOnline: u.Online(now),
		})
	}
	return out
}
