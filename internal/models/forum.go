package models

import "time"

// Category groups forum threads.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Thread is a forum discussion. It is created together with its first post
// in one transaction, and its own IsDeleted flag is the single source of
// truth for listing visibility; every cascade that hides a thread's posts
// also sets the thread flag in the same transaction.
type Thread struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CategoryID uint       `gorm:"not null;index" json:"category_id"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AuthorID   uint       `gorm:"not null;index" json:"author_id"`
	Author     *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	IsDeleted  bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	IsPinned   bool       `gorm:"not null;default:false" json:"is_pinned"`
	IsLocked   bool       `gorm:"not null;default:false" json:"is_locked"`
	ReplyCount int        `gorm:"not null;default:0" json:"reply_count"`
	ViewCount  int        `gorm:"not null;default:0" json:"view_count"`
	LastPostAt *time.Time `json:"last_post_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Post is a single forum message inside a thread.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ThreadID  uint       `gorm:"not null;index" json:"thread_id"`
	Thread    *Thread    `gorm:"foreignKey:ThreadID" json:"thread,omitempty"`
	AuthorID  uint       `gorm:"not null;index" json:"author_id"`
	Author    *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const (
	// MaxThreadTitleLen caps thread titles.
	MaxThreadTitleLen = 255
	// MaxPostContentLen caps post and reply bodies.
	MaxPostContentLen = 10000
)
