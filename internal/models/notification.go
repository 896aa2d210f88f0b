package models

import "time"

// Notification types.
const (
	NotificationForumReply = "forum_reply"
	NotificationDM         = "direct_message"
)

// Related entity tags for notifications.
const (
	RelatedThread  = "thread"
	RelatedPost    = "post"
	RelatedMessage = "message"
)

// Notification is delivered to exactly one recipient as a side effect of
// someone else acting on their content. Notifications are never soft-deleted;
// they are hard-deleted together with their owning user.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	RelatedID   uint      `json:"related_id"`
	RelatedType string    `gorm:"size:16" json:"related_type"`
	IsRead      bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
