package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promoHunter/domain"

	"gorm.io/gorm"
)

// PostRepository is the source of truth for publish history and implements
// the repost cooldown checks on top of it.
type PostRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{
		DB:  db,
		now: time.Now,
	}
}

// RecordPost appends one publish event.
func (r *PostRepository) RecordPost(ctx context.Context, itemID int64, variant, messageID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	post := domain.Post{
		ItemID:    itemID,
		Variant:   variant,
		MessageID: messageID,
		PostedAt:  r.now(),
	}
	if err := r.DB.WithContext(ctx).Create(&post).Error; err != nil {
		return fmt.Errorf("failed to record post: %w", err)
	}

	return nil
}

// LastPostedAt returns the most recent publish time for an item, or nil when
// it has never been posted.
func (r *PostRepository) LastPostedAt(ctx context.Context, itemID int64) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var post domain.Post
	err := r.DB.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("posted_at DESC").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last post: %w", err)
	}

	return &post.PostedAt, nil
}

// CanRepost reports whether the item is outside its cooldown window. Items
// never posted are always eligible.
func (r *PostRepository) CanRepost(ctx context.Context, itemID int64, cooldown time.Duration) (bool, error) {
	last, err := r.LastPostedAt(ctx, itemID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}

	return r.now().Sub(*last) >= cooldown, nil
}

// Recent lists the latest publish events, newest first.
func (r *PostRepository) Recent(ctx context.Context, limit int) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}

	var posts []domain.Post
	err := r.DB.WithContext(ctx).
		Order("posted_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}

	return posts, nil
}
