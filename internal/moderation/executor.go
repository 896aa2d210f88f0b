package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"azox/internal/authz"
	"azox/internal/cache"
	"azox/internal/middleware"
	"azox/internal/models"

	"gorm.io/gorm"
)

// Result reports what a moderation action did.
type Result struct {
	Affected int64  `json:"affected"`
	Message  string `json:"message"`
}

// Executor applies moderation actions. Every cascade runs inside a single
// transaction; a failure anywhere rolls the whole action back.
type Executor struct {
	db *gorm.DB
}

// NewExecutor returns an Executor bound to the given database.
func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) resolveUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := e.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewDatabaseError("load user", err)
	}
	return &user, nil
}

func audit(tx *gorm.DB, actorID uint, action, detail string) error {
	entry := models.AuditLog{ActorID: actorID, Action: action, Detail: detail}
	if err := tx.Create(&entry).Error; err != nil {
		return models.NewDatabaseError("write audit log", err)
	}
	return nil
}

func recordAction(action string, affected int64) {
	middleware.ModerationActions.WithLabelValues(action).Inc()
	middleware.BulkRowsAffected.WithLabelValues(action).Observe(float64(affected))
}

// softDeleteUserContent hides everything the given users authored. It is
// shared by the single and bulk soft-delete paths and must run inside tx.
func softDeleteUserContent(tx *gorm.DB, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := tx.Model(&models.Thread{}).
		Where("author_id IN ?", userIDs).
		Update("is_deleted", true).Error; err != nil {
		return models.NewDatabaseError("soft-delete threads", err)
	}
	if err := tx.Model(&models.Post{}).
		Where("author_id IN ?", userIDs).
		Update("is_deleted", true).Error; err != nil {
		return models.NewDatabaseError("soft-delete posts", err)
	}
	if err := tx.Model(&models.Message{}).
		Where("sender_id IN ?", userIDs).
		Update("is_deleted", true).Error; err != nil {
		return models.NewDatabaseError("soft-delete messages", err)
	}
	return nil
}

// DeleteUser deactivates an account and soft-deletes everything it wrote.
// Notifications survive; only the hard-delete path removes them.
func (e *Executor) DeleteUser(ctx context.Context, actor authz.Actor, targetID uint) (*Result, error) {
	target, err := e.resolveUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModerateUser(actor, authz.ActionDeleteUser, authz.UserTarget{ID: target.ID, Role: target.Role}); err != nil {
		return nil, err
	}
	if !target.IsActive {
		// Idempotent: repeating the delete is a no-op, not an error.
		return &Result{Affected: 0, Message: fmt.Sprintf("User %s is already deleted", target.Username)}, nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDeleteUserContent(tx, []uint{target.ID}); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", target.ID).
			Update("is_active", false).Error; err != nil {
			return models.NewDatabaseError("deactivate user", err)
		}
		return audit(tx, actor.ID, models.AuditUserDeleted, fmt.Sprintf("user %s (%d) soft-deleted", target.Username, target.ID))
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(ctx, target.ID)
	recordAction(models.AuditUserDeleted, 1)
	middleware.Logger.InfoContext(ctx, "user soft-deleted",
		slog.Uint64("target_id", uint64(target.ID)),
		slog.Uint64("actor_id", uint64(actor.ID)))
	return &Result{Affected: 1, Message: fmt.Sprintf("User %s deleted", target.Username)}, nil
}

// hardDeleteUsers permanently removes the given accounts and every row that
// references them. Must run inside tx; order matters for foreign keys.
func hardDeleteUsers(tx *gorm.DB, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := tx.Where("user_id IN ?", userIDs).Delete(&models.Notification{}).Error; err != nil {
		return models.NewDatabaseError("delete notifications", err)
	}
	if err := tx.Where("user_id IN ?", userIDs).Delete(&models.UserSession{}).Error; err != nil {
		return models.NewDatabaseError("delete sessions", err)
	}
	if err := tx.Where("sender_id IN ? OR receiver_id IN ?", userIDs, userIDs).Delete(&models.Message{}).Error; err != nil {
		return models.NewDatabaseError("delete messages", err)
	}
	// Posts by the users, then posts left by others inside their threads.
	if err := tx.Where("author_id IN ?", userIDs).Delete(&models.Post{}).Error; err != nil {
		return models.NewDatabaseError("delete posts", err)
	}
	var threadIDs []uint
	if err := tx.Model(&models.Thread{}).Where("author_id IN ?", userIDs).Pluck("id", &threadIDs).Error; err != nil {
		return models.NewDatabaseError("collect threads", err)
	}
	if len(threadIDs) > 0 {
		if err := tx.Where("thread_id IN ?", threadIDs).Delete(&models.Post{}).Error; err != nil {
			return models.NewDatabaseError("delete thread posts", err)
		}
		if err := tx.Where("id IN ?", threadIDs).Delete(&models.Thread{}).Error; err != nil {
			return models.NewDatabaseError("delete threads", err)
		}
	}
	if err := tx.Where("id IN ?", userIDs).Delete(&models.User{}).Error; err != nil {
		return models.NewDatabaseError("delete users", err)
	}
	return nil
}

// HardDeleteUser permanently removes an account by username. Owner only.
func (e *Executor) HardDeleteUser(ctx context.Context, actor authz.Actor, username string) (*Result, error) {
	var target models.User
	if err := e.db.WithContext(ctx).Where("username = ?", username).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewDatabaseError("load user", err)
	}
	if err := authz.CanModerateUser(actor, authz.ActionHardDeleteUser, authz.UserTarget{ID: target.ID, Role: target.Role}); err != nil {
		return nil, err
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := hardDeleteUsers(tx, []uint{target.ID}); err != nil {
			return err
		}
		return audit(tx, actor.ID, models.AuditUserPurged, fmt.Sprintf("user %s (%d) permanently deleted", target.Username, target.ID))
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(ctx, target.ID)
	recordAction(models.AuditUserPurged, 1)
	middleware.Logger.WarnContext(ctx, "user permanently deleted",
		slog.String("username", target.Username),
		slog.Uint64("actor_id", uint64(actor.ID)))
	return &Result{Affected: 1, Message: fmt.Sprintf("User %s permanently deleted", target.Username)}, nil
}

// BanUser marks an account banned. Content stays visible.
func (e *Executor) BanUser(ctx context.Context, actor authz.Actor, targetID uint) (*Result, error) {
	target, err := e.resolveUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModerateUser(actor, authz.ActionBanUser, authz.UserTarget{ID: target.ID, Role: target.Role}); err != nil {
		return nil, err
	}
	if target.IsBanned {
		return &Result{Affected: 0, Message: fmt.Sprintf("User %s is already banned", target.Username)}, nil
	}

	now := time.Now()
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			Updates(map[string]interface{}{"is_banned": true, "banned_at": now}).Error; err != nil {
			return models.NewDatabaseError("ban user", err)
		}
		return audit(tx, actor.ID, models.AuditUserBanned, fmt.Sprintf("user %s (%d) banned", target.Username, target.ID))
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(ctx, target.ID)
	recordAction(models.AuditUserBanned, 1)
	return &Result{Affected: 1, Message: fmt.Sprintf("User %s banned", target.Username)}, nil
}

// UnbanUser lifts a ban.
func (e *Executor) UnbanUser(ctx context.Context, actor authz.Actor, targetID uint) (*Result, error) {
	target, err := e.resolveUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModerateUser(actor, authz.ActionUnbanUser, authz.UserTarget{ID: target.ID, Role: target.Role}); err != nil {
		return nil, err
	}
	if !target.IsBanned {
		return &Result{Affected: 0, Message: fmt.Sprintf("User %s is not banned", target.Username)}, nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			Updates(map[string]interface{}{"is_banned": false, "banned_at": nil}).Error; err != nil {
			return models.NewDatabaseError("unban user", err)
		}
		return audit(tx, actor.ID, models.AuditUserUnbanned, fmt.Sprintf("user %s (%d) unbanned", target.Username, target.ID))
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(ctx, target.ID)
	recordAction(models.AuditUserUnbanned, 1)
	return &Result{Affected: 1, Message: fmt.Sprintf("User %s unbanned", target.Username)}, nil
}

// SetRole promotes or demotes an account within the ladder.
func (e *Executor) SetRole(ctx context.Context, actor authz.Actor, targetID uint, newRole models.Role) (*Result, error) {
	target, err := e.resolveUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanSetRole(actor, authz.UserTarget{ID: target.ID, Role: target.Role}, newRole); err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return &Result{Affected: 0, Message: fmt.Sprintf("User %s already has role %s", target.Username, newRole)}, nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			Update("role", newRole).Error; err != nil {
			return models.NewDatabaseError("update role", err)
		}
		return audit(tx, actor.ID, "role_changed",
			fmt.Sprintf("user %s (%d) role %s -> %s", target.Username, target.ID, target.Role, newRole))
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(ctx, target.ID)
	return &Result{Affected: 1, Message: fmt.Sprintf("User %s is now %s", target.Username, newRole)}, nil
}

// DeleteThread soft-deletes a thread and all its posts in one transaction.
func (e *Executor) DeleteThread(ctx context.Context, actor authz.Actor, threadID uint) (*Result, error) {
	var thread models.Thread
	if err := e.db.WithContext(ctx).Preload("Author").First(&thread, threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thread", threadID)
		}
		return nil, models.NewDatabaseError("load thread", err)
	}
	if err := authz.CanDeleteContent(actor, authz.ContentTarget{OwnerID: thread.AuthorID, OwnerRole: thread.Author.Role}); err != nil {
		return nil, err
	}
	if thread.IsDeleted {
		return &Result{Affected: 0, Message: "Thread is already deleted"}, nil
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("thread_id = ?", thread.ID).
			Update("is_deleted", true).Error; err != nil {
			return models.NewDatabaseError("soft-delete posts", err)
		}
		if err := tx.Model(&models.Thread{}).
			Where("id = ?", thread.ID).
			Update("is_deleted", true).Error; err != nil {
			return models.NewDatabaseError("soft-delete thread", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateThread(ctx, thread.ID)
	recordAction("thread_deleted", 1)
	return &Result{Affected: 1, Message: "Thread deleted"}, nil
}

// DeletePost soft-deletes exactly one post, never its thread.
func (e *Executor) DeletePost(ctx context.Context, actor authz.Actor, postID uint) (*Result, error) {
	var post models.Post
	if err := e.db.WithContext(ctx).Preload("Author").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewDatabaseError("load post", err)
	}
	if err := authz.CanDeleteContent(actor, authz.ContentTarget{OwnerID: post.AuthorID, OwnerRole: post.Author.Role}); err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return &Result{Affected: 0, Message: "Post is already deleted"}, nil
	}

	if err := e.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Update("is_deleted", true).Error; err != nil {
		return nil, models.NewDatabaseError("soft-delete post", err)
	}

	recordAction("post_deleted", 1)
	return &Result{Affected: 1, Message: "Post deleted"}, nil
}

// DeleteMessage soft-deletes a single chat or direct message.
func (e *Executor) DeleteMessage(ctx context.Context, actor authz.Actor, messageID uint) (*Result, error) {
	var message models.Message
	if err := e.db.WithContext(ctx).Preload("Sender").First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", messageID)
		}
		return nil, models.NewDatabaseError("load message", err)
	}
	if err := authz.CanDeleteContent(actor, authz.ContentTarget{OwnerID: message.SenderID, OwnerRole: message.Sender.Role}); err != nil {
		return nil, err
	}
	if message.IsDeleted {
		return &Result{Affected: 0, Message: "Message is already deleted"}, nil
	}

	if err := e.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", message.ID).
		Update("is_deleted", true).Error; err != nil {
		return nil, models.NewDatabaseError("soft-delete message", err)
	}

	recordAction("message_deleted", 1)
	return &Result{Affected: 1, Message: "Message deleted"}, nil
}

// BulkDeleteThreads soft-deletes every thread matching the filter, posts
// included, in one transaction.
func (e *Executor) BulkDeleteThreads(ctx context.Context, actor authz.Actor, filter ThreadFilter) (*Result, error) {
	if err := authz.CanBulkModerate(actor); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var affected int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Thread{}).Where("is_deleted = ?", false)
		if !filter.MatchAll() {
			if filter.CategoryID != nil {
				q = q.Where("category_id = ?", *filter.CategoryID)
			}
			if filter.OlderThan != nil {
				q = q.Where("created_at < ?", *filter.OlderThan)
			}
		}

		var threadIDs []uint
		if err := q.Pluck("id", &threadIDs).Error; err != nil {
			return models.NewDatabaseError("collect threads", err)
		}
		affected = int64(len(threadIDs))
		if affected == 0 {
			return nil
		}

		if err := tx.Model(&models.Post{}).
			Where("thread_id IN ?", threadIDs).
			Update("is_deleted", true).Error; err != nil {
			return models.NewDatabaseError("soft-delete posts", err)
		}
		if err := tx.Model(&models.Thread{}).
			Where("id IN ?", threadIDs).
			Update("is_deleted", true).Error; err != nil {
			return models.NewDatabaseError("soft-delete threads", err)
		}
		return audit(tx, actor.ID, models.AuditBulkThreads, fmt.Sprintf("%d threads deleted", affected))
	})
	if err != nil {
		return nil, err
	}

	recordAction(models.AuditBulkThreads, affected)
	return &Result{Affected: affected, Message: fmt.Sprintf("Deleted %d threads", affected)}, nil
}

// ClearChat soft-deletes public channel messages matching the filter.
// Direct messages are never touched by channel clearing.
func (e *Executor) ClearChat(ctx context.Context, actor authz.Actor, filter ChatFilter) (*Result, error) {
	if err := authz.CanBulkModerate(actor); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var affected int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Message{}).
			Where("receiver_id IS NULL AND is_deleted = ?", false)
		if filter.Channel != AllChannels {
			q = q.Where("channel = ?", filter.Channel)
		}
		if filter.OlderThan != nil {
			q = q.Where("created_at < ?", *filter.OlderThan)
		}

		res := q.Update("is_deleted", true)
		if res.Error != nil {
			return models.NewDatabaseError("clear chat", res.Error)
		}
		affected = res.RowsAffected
		return audit(tx, actor.ID, models.AuditBulkChat,
			fmt.Sprintf("%d messages cleared from %s", affected, filter.Channel))
	})
	if err != nil {
		return nil, err
	}

	for _, ch := range models.ChatChannels {
		if filter.Channel == AllChannels || filter.Channel == ch {
			cache.InvalidateChannel(ctx, ch)
		}
	}
	recordAction(models.AuditBulkChat, affected)
	return &Result{Affected: affected, Message: fmt.Sprintf("Cleared %d messages", affected)}, nil
}

// bulkCandidates selects the plain-user accounts a bulk action may touch.
// The acting moderator and every admin-tier account are excluded here so no
// filter combination can reach them.
func bulkCandidates(tx *gorm.DB, actor authz.Actor, window UserWindow, now time.Time) ([]uint, error) {
	q := tx.Model(&models.User{}).
		Where("role = ? AND is_active = ? AND id <> ?", models.RoleUser, true, actor.ID)

	switch window.Mode {
	case WindowInactivity:
		q = q.Where("last_active < ?", window.Cutoff(now))
	case WindowRegistration:
		q = q.Where("created_at >= ? AND created_at <= ?", window.Start, window.End)
	}

	var ids []uint
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, models.NewDatabaseError("collect users", err)
	}
	return ids, nil
}

// BulkBanUsers bans every plain user matched by the window. Already banned
// accounts are skipped so the affected count reflects new bans only.
func (e *Executor) BulkBanUsers(ctx context.Context, actor authz.Actor, window UserWindow) (*Result, error) {
	if err := authz.CanBulkModerate(actor); err != nil {
		return nil, err
	}

	now := time.Now()
	var affected int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := bulkCandidates(tx, actor, window, now)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return audit(tx, actor.ID, models.AuditBulkUsers, "bulk ban matched no users")
		}

		res := tx.Model(&models.User{}).
			Where("id IN ? AND is_banned = ?", ids, false).
			Updates(map[string]interface{}{"is_banned": true, "banned_at": now})
		if res.Error != nil {
			return models.NewDatabaseError("bulk ban", res.Error)
		}
		affected = res.RowsAffected
		return audit(tx, actor.ID, models.AuditBulkUsers, fmt.Sprintf("%d users banned", affected))
	})
	if err != nil {
		return nil, err
	}

	recordAction(models.AuditBulkUsers, affected)
	return &Result{Affected: affected, Message: fmt.Sprintf("Banned %d users", affected)}, nil
}

// BulkDeleteUsers soft-deletes every plain user matched by the window,
// cascading over their content exactly like a single delete.
func (e *Executor) BulkDeleteUsers(ctx context.Context, actor authz.Actor, window UserWindow) (*Result, error) {
	if err := authz.CanBulkModerate(actor); err != nil {
		return nil, err
	}

	now := time.Now()
	var affected int64
	var ids []uint
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ids, err = bulkCandidates(tx, actor, window, now)
		if err != nil {
			return err
		}
		affected = int64(len(ids))
		if affected == 0 {
			return audit(tx, actor.ID, models.AuditBulkUsers, "bulk delete matched no users")
		}

		if err := softDeleteUserContent(tx, ids); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id IN ?", ids).
			Update("is_active", false).Error; err != nil {
			return models.NewDatabaseError("deactivate users", err)
		}
		return audit(tx, actor.ID, models.AuditBulkUsers, fmt.Sprintf("%d users deleted", affected))
	})
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		cache.InvalidateUser(ctx, id)
	}
	recordAction(models.AuditBulkUsers, affected)
	return &Result{Affected: affected, Message: fmt.Sprintf("Deleted %d users", affected)}, nil
}

// PurgeAllInactive permanently removes every already soft-deleted account.
// Owner only; this is the one bulk action with no undo.
func (e *Executor) PurgeAllInactive(ctx context.Context, actor authz.Actor) (*Result, error) {
	if err := authz.CanPurge(actor); err != nil {
		return nil, err
	}

	var affected int64
	var ids []uint
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("is_active = ?", false).
			Pluck("id", &ids).Error; err != nil {
			return models.NewDatabaseError("collect inactive users", err)
		}
		affected = int64(len(ids))
		if affected == 0 {
			return audit(tx, actor.ID, models.AuditInactivePurge, "purge matched no users")
		}

		if err := hardDeleteUsers(tx, ids); err != nil {
			return err
		}
		return audit(tx, actor.ID, models.AuditInactivePurge, fmt.Sprintf("%d inactive users purged", affected))
	})
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		cache.InvalidateUser(ctx, id)
	}
	recordAction(models.AuditInactivePurge, affected)
	middleware.Logger.WarnContext(ctx, "inactive users purged",
		slog.Int64("count", affected),
		slog.Uint64("actor_id", uint64(actor.ID)))
	return &Result{Affected: affected, Message: fmt.Sprintf("Purged %d inactive users", affected)}, nil
}
