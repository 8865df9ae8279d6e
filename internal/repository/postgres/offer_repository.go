package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promoHunter/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OfferRepository struct {
	DB *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{DB: db}
}

// UpsertSnapshot writes the latest snapshot of an offer, keyed by item id.
func (r *OfferRepository) UpsertSnapshot(ctx context.Context, offer domain.Offer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if offer.ItemID <= 0 {
		return errors.New("offer has no item id")
	}

	now := time.Now()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	offer.UpdatedAt = now

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"shop_id", "shop_name", "name", "category", "link",
				"price", "discount", "rating", "sales", "updated_at",
			}),
		}).
		Create(&offer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert offer snapshot: %w", err)
	}

	return nil
}

func (r *OfferRepository) AddPricePoint(ctx context.Context, itemID int64, price float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	point := domain.OfferPrice{
		ItemID:     itemID,
		Price:      price,
		CapturedAt: time.Now(),
	}
	if err := r.DB.WithContext(ctx).Create(&point).Error; err != nil {
		return fmt.Errorf("failed to insert price point: %w", err)
	}

	return nil
}

func (r *OfferRepository) FindByID(ctx context.Context, itemID int64) (domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Offer{}, fmt.Errorf("context error: %w", err)
	}

	var offer domain.Offer
	err := r.DB.WithContext(ctx).First(&offer, "item_id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Offer{}, errors.New("offer not found")
		}
		return domain.Offer{}, fmt.Errorf("failed to find offer: %w", err)
	}

	return offer, nil
}
