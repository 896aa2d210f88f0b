package repository

import (
	"context"
	"errors"

	"azox/internal/cache"
	"azox/internal/models"

	"gorm.io/gorm"
)

// ThreadRepository defines persistence operations for forum threads.
type ThreadRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	GetVisibleByID(ctx context.Context, id uint) (*models.Thread, error)
	ListByCategory(ctx context.Context, categoryID uint, limit, offset int) ([]models.Thread, error)
	ListRecent(ctx context.Context, limit int) ([]models.Thread, error)
	IncrementViews(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository returns a new ThreadRepository implementation.
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

// GetByID loads a thread regardless of its deletion flag. Moderation paths
// need deleted threads; reader paths should use GetVisibleByID.
func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		First(&thread, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thread", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &thread, nil
}

func (r *threadRepository) GetVisibleByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	key := cache.ThreadKey(id)

	err := cache.Aside(ctx, key, &thread, cache.ThreadTTL, func() error {
		err := r.db.WithContext(ctx).
			Preload("Author").
			Preload("Category").
			Where("is_deleted = ?", false).
			First(&thread, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Thread", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) ListByCategory(ctx context.Context, categoryID uint, limit, offset int) ([]models.Thread, error) {
	var threads []models.Thread
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("category_id = ? AND is_deleted = ?", categoryID, false).
		Order("is_pinned DESC, last_post_at DESC NULLS LAST, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&threads).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return threads, nil
}

func (r *threadRepository) ListRecent(ctx context.Context, limit int) ([]models.Thread, error) {
	var threads []models.Thread
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return threads, nil
}

func (r *threadRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Thread{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *threadRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Thread{}).Where("is_deleted = ?", false).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
