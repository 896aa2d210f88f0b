package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"azox/internal/cache"
	"azox/internal/models"
	"azox/internal/repository"

	"gorm.io/gorm"
)

type ForumService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	threadRepo   repository.ThreadRepository
	postRepo     repository.PostRepository
	userRepo     repository.UserRepository
}

type CreateThreadInput struct {
	AuthorID   uint
	CategoryID uint
	Title      string
	Content    string
}

type ReplyInput struct {
	AuthorID uint
	ThreadID uint
	Content  string
}

type EditPostInput struct {
	AuthorID uint
	PostID   uint
	Content  string
}

// ThreadPage is a thread together with one page of its posts.
type ThreadPage struct {
	Thread *models.Thread `json:"thread"`
	Posts  []models.Post  `json:"posts"`
	Total  int64          `json:"total_posts"`
}

func NewForumService(
	db *gorm.DB,
	categoryRepo repository.CategoryRepository,
	threadRepo repository.ThreadRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *ForumService {
	return &ForumService{
		db:           db,
		categoryRepo: categoryRepo,
		threadRepo:   threadRepo,
		postRepo:     postRepo,
		userRepo:     userRepo,
	}
}

// CategorySummary is a category with its live thread and reply totals.
type CategorySummary struct {
	models.Category
	ThreadCount int64 `json:"thread_count"`
	PostCount   int64 `json:"post_count"`
}

func (s *ForumService) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	type grouped struct {
		CategoryID uint
		N          int64
	}

	var threadRows []grouped
	err = s.db.WithContext(ctx).Model(&models.Thread{}).
		Select("category_id, COUNT(*) AS n").
		Where("is_deleted = ?", false).
		Group("category_id").
		Scan(&threadRows).Error
	if err != nil {
		return nil, models.NewDatabaseError("count threads", err)
	}

	var postRows []grouped
	err = s.db.WithContext(ctx).Model(&models.Post{}).
		Select("threads.category_id AS category_id, COUNT(*) AS n").
		Joins("JOIN threads ON threads.id = posts.thread_id").
		Where("posts.is_deleted = ? AND threads.is_deleted = ?", false, false).
		Group("threads.category_id").
		Scan(&postRows).Error
	if err != nil {
		return nil, models.NewDatabaseError("count posts", err)
	}

	threadCounts := make(map[uint]int64, len(threadRows))
	for _, row := range threadRows {
		threadCounts[row.CategoryID] = row.N
	}
	postCounts := make(map[uint]int64, len(postRows))
	for _, row := range postRows {
		postCounts[row.CategoryID] = row.N
	}

	summaries := make([]CategorySummary, 0, len(categories))
	for _, category := range categories {
		summaries = append(summaries, CategorySummary{
			Category:    category,
			ThreadCount: threadCounts[category.ID],
			PostCount:   postCounts[category.ID],
		})
	}
	return summaries, nil
}

func (s *ForumService) ListThreads(ctx context.Context, categoryID uint, limit, offset int) ([]models.Thread, error) {
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.threadRepo.ListByCategory(ctx, categoryID, limit, offset)
}

func (s *ForumService) ListRecentThreads(ctx context.Context, limit int) ([]models.Thread, error) {
	return s.threadRepo.ListRecent(ctx, limit)
}

// GetThread returns a visible thread with one page of posts and bumps the
// view counter. The counter bump is best effort and never fails the read.
func (s *ForumService) GetThread(ctx context.Context, threadID uint, limit, offset int) (*ThreadPage, error) {
	thread, err := s.threadRepo.GetVisibleByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListByThread(ctx, threadID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.postRepo.CountByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	_ = s.threadRepo.IncrementViews(ctx, threadID)

	return &ThreadPage{Thread: thread, Posts: posts, Total: total}, nil
}

// CreateThread creates a thread and its opening post in one transaction, so
// a thread can never exist without a first post.
func (s *ForumService) CreateThread(ctx context.Context, in CreateThreadInput) (*models.Thread, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > models.MaxThreadTitleLen {
		return nil, models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", models.MaxThreadTitleLen))
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > models.MaxPostContentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", models.MaxPostContentLen))
	}

	author, err := s.requireAuthor(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	thread := &models.Thread{
		CategoryID: in.CategoryID,
		AuthorID:   author.ID,
		Title:      title,
		LastPostAt: &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(thread).Error; err != nil {
			return err
		}
		first := &models.Post{
			ThreadID: thread.ID,
			AuthorID: author.ID,
			Content:  content,
		}
		return tx.Create(first).Error
	})
	if err != nil {
		return nil, models.NewDatabaseError("create thread", err)
	}

	cache.InvalidateCategories(ctx)
	return thread, nil
}

// Reply appends a post to a thread. The post, the thread's reply counters
// and the author notification all commit or roll back together.
func (s *ForumService) Reply(ctx context.Context, in ReplyInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > models.MaxPostContentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", models.MaxPostContentLen))
	}

	author, err := s.requireAuthor(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	thread, err := s.threadRepo.GetVisibleByID(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	if thread.IsLocked {
		return nil, models.NewValidationError("Thread is locked")
	}

	post := &models.Post{
		ThreadID: thread.ID,
		AuthorID: author.ID,
		Content:  content,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Thread{}).
			Where("id = ?", thread.ID).
			Updates(map[string]interface{}{
				"reply_count":  gorm.Expr("reply_count + 1"),
				"last_post_at": post.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}

		if thread.AuthorID != author.ID {
			notification := &models.Notification{
				UserID:      thread.AuthorID,
				Type:        models.NotificationForumReply,
				Title:       "New reply to your thread",
				Content:     fmt.Sprintf("%s replied to \"%s\"", author.Username, thread.Title),
				RelatedID:   post.ID,
				RelatedType: models.RelatedPost,
			}
			if err := tx.Create(notification).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, models.NewDatabaseError("create reply", err)
	}

	cache.InvalidateThread(ctx, thread.ID)
	return post, nil
}

// EditPost rewrites the body of the caller's own post and stamps edited_at.
// Moderators do not get an edit override, only a delete one.
func (s *ForumService) EditPost(ctx context.Context, in EditPostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > models.MaxPostContentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", models.MaxPostContentLen))
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, models.NewNotFoundError("post", in.PostID)
	}
	if post.AuthorID != in.AuthorID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	now := time.Now()
	post.Content = content
	post.EditedAt = &now
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{"content": content, "edited_at": now})
	if res.Error != nil {
		return nil, models.NewDatabaseError("edit post", res.Error)
	}

	cache.InvalidateThread(ctx, post.ThreadID)
	return post, nil
}

// requireAuthor loads the acting user and rejects banned accounts. Inactive
// accounts cannot hold a valid session, but the check is repeated here so a
// race with a concurrent delete cannot slip a write through.
func (s *ForumService) requireAuthor(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is not active")
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("You are banned and cannot post")
	}
	return user, nil
}
