package evsignal

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Saturation constants: the item-level signal saturates fastest because its
// commission volumes are naturally the smallest.
const (
	itemSaturation     = 30.0
	shopSaturation     = 80.0
	categorySaturation = 150.0

	weightItem     = 0.6
	weightShop     = 0.3
	weightCategory = 0.1
)

// ConversionRepository aggregates commission amounts from the conversion
// history over a trailing window.
type ConversionRepository interface {
	SumCommissionByItem(ctx context.Context, itemID int64, since time.Time) (float64, error)
	SumCommissionByShop(ctx context.Context, shopName string, since time.Time) (float64, error)
	SumCommissionByCategory(ctx context.Context, category string, since time.Time) (float64, error)
	// TopCategoryForItem returns the item's most frequent historical category,
	// or ok=false when the item has never converted.
	TopCategoryForItem(ctx context.Context, itemID int64) (string, bool, error)
}

type Service struct {
	conversions ConversionRepository
	now         func() time.Time
}

func NewService(conversions ConversionRepository) *Service {
	return &Service{
		conversions: conversions,
		now:         time.Now,
	}
}

// saturate maps a commission sum onto [0,1): 1 - exp(-x/k). Monotone in x,
// zero at zero history.
func saturate(x, k float64) float64 {
	if x <= 0 {
		return 0
	}
	if k < 1e-9 {
		k = 1e-9
	}
	return 1.0 - math.Exp(-x/k)
}

// Estimate blends item, shop, and category commission signals into one
// expected-value score in [0,1]. Absent history at any granularity
// contributes zero; an offer with no history at all scores 0, which is a
// neutral outcome, not an error.
func (s *Service) Estimate(ctx context.Context, itemID int64, offerName, shopName string, windowDays int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	if windowDays <= 0 {
		windowDays = 28
	}
	since := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	itemSum, err := s.conversions.SumCommissionByItem(ctx, itemID, since)
	if err != nil {
		return 0, fmt.Errorf("item commission sum: %w", err)
	}

	var shopSum float64
	if shopName != "" {
		shopSum, err = s.conversions.SumCommissionByShop(ctx, shopName, since)
		if err != nil {
			return 0, fmt.Errorf("shop commission sum: %w", err)
		}
	}

	var catSum float64
	category, ok, err := s.conversions.TopCategoryForItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("top category lookup: %w", err)
	}
	if ok && category != "" {
		catSum, err = s.conversions.SumCommissionByCategory(ctx, category, since)
		if err != nil {
			return 0, fmt.Errorf("category commission sum: %w", err)
		}
	}

	ev := weightItem*saturate(itemSum, itemSaturation) +
		weightShop*saturate(shopSum, shopSaturation) +
		weightCategory*saturate(catSum, categorySaturation)

	return ev, nil
}
