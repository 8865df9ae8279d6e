package postgres

import (
	"context"
	"fmt"
	"time"

	"promoHunter/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversionRepository struct {
	DB *gorm.DB
}

func NewConversionRepository(db *gorm.DB) *ConversionRepository {
	return &ConversionRepository{DB: db}
}

// ---- report ingestion ----

func (r *ConversionRepository) UpsertConversion(ctx context.Context, conv domain.Conversion) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversion_id"}},
			UpdateAll: true,
		}).
		Create(&conv).Error
	if err != nil {
		return fmt.Errorf("failed to upsert conversion: %w", err)
	}

	return nil
}

func (r *ConversionRepository) UpsertConversionItem(ctx context.Context, item domain.ConversionItem) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversion_id"}, {Name: "order_id"}, {Name: "item_id"}},
			UpdateAll: true,
		}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert conversion item: %w", err)
	}

	return nil
}

// ---- EV aggregations ----

const sumByItemSQL = `
SELECT COALESCE(SUM(ci.commission), 0)
FROM conversion_items ci
JOIN conversions c ON c.conversion_id = ci.conversion_id
WHERE (c.purchase_time IS NULL OR c.purchase_time >= ?)
  AND ci.item_id = ?`

func (r *ConversionRepository) SumCommissionByItem(ctx context.Context, itemID int64, since time.Time) (float64, error) {
	return r.sum(ctx, sumByItemSQL, since, itemID)
}

const sumByShopSQL = `
SELECT COALESCE(SUM(ci.commission), 0)
FROM conversion_items ci
JOIN conversions c ON c.conversion_id = ci.conversion_id
WHERE (c.purchase_time IS NULL OR c.purchase_time >= ?)
  AND ci.shop_name = ?`

func (r *ConversionRepository) SumCommissionByShop(ctx context.Context, shopName string, since time.Time) (float64, error) {
	return r.sum(ctx, sumByShopSQL, since, shopName)
}

const sumByCategorySQL = `
SELECT COALESCE(SUM(ci.commission), 0)
FROM conversion_items ci
JOIN conversions c ON c.conversion_id = ci.conversion_id
WHERE (c.purchase_time IS NULL OR c.purchase_time >= ?)
  AND ci.category = ?`

func (r *ConversionRepository) SumCommissionByCategory(ctx context.Context, category string, since time.Time) (float64, error) {
	return r.sum(ctx, sumByCategorySQL, since, category)
}

func (r *ConversionRepository) sum(ctx context.Context, query string, args ...interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var sum float64
	err := r.DB.WithContext(ctx).Raw(query, args...).Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum commissions: %w", err)
	}

	return sum, nil
}

const topCategorySQL = `
SELECT category
FROM conversion_items
WHERE item_id = ? AND category <> ''
GROUP BY category
ORDER BY COUNT(*) DESC
LIMIT 1`

// TopCategoryForItem returns the most frequent category the item converted
// under; ok=false when the item has no conversion history.
func (r *ConversionRepository) TopCategoryForItem(ctx context.Context, itemID int64) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("context error: %w", err)
	}

	var category string
	result := r.DB.WithContext(ctx).Raw(topCategorySQL, itemID).Scan(&category)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to find top category: %w", result.Error)
	}
	if result.RowsAffected == 0 || category == "" {
		return "", false, nil
	}

	return category, true, nil
}
