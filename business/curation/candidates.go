package curation

import (
	"context"
	"errors"

	"promoHunter/domain"
	"promoHunter/pkg/logger"
)

// RawOffer is one record as the feed returns it. Upstream integrations
// disagree on field names, so every alternate is carried here and resolved
// to a single canonical domain.Offer by normalizeRaw.
type RawOffer struct {
	ItemID int64

	Name        string
	ProductName string
	ItemName    string

	Price    float64
	PriceMin float64
	PriceMax float64

	// Discount may arrive as a fraction (0.10) or a percentage (10.0).
	Discount          float64
	PriceDiscountRate float64

	Rating     float64
	RatingStar float64

	Sales          int64
	HistoricalSold int64

	ShopID   int64
	ShopName string
	Category string

	URL         string
	OfferLink   string
	ProductLink string
}

// OfferFeed is the upstream offer source. Either search may fail per query;
// the collector consumes whatever subset succeeds.
type OfferFeed interface {
	SearchByKeyword(ctx context.Context, keyword string, page, limit int) ([]RawOffer, error)
	SearchByShop(ctx context.Context, shopID int64, page, limit int) ([]RawOffer, error)
}

var errMissingItemID = errors.New("raw offer has no item id")

// normalizeRaw resolves alternate field names into one canonical Offer.
// Only a missing identifier rejects the record.
func normalizeRaw(raw RawOffer) (domain.Offer, error) {
	if raw.ItemID <= 0 {
		return domain.Offer{}, errMissingItemID
	}

	name := firstNonEmpty(raw.Name, raw.ProductName, raw.ItemName)
	link := firstNonEmpty(raw.OfferLink, raw.ProductLink, raw.URL)

	price := raw.Price
	if price <= 0 {
		price = raw.PriceMin
	}
	if price <= 0 {
		price = raw.PriceMax
	}
	if price < 0 {
		price = 0
	}

	discount := raw.PriceDiscountRate
	if discount == 0 {
		discount = raw.Discount
	}
	if discount > 1.0 {
		discount = discount / 100.0
	}
	if discount < 0 {
		discount = 0
	}
	if discount > 1 {
		discount = 1
	}

	rating := raw.RatingStar
	if rating == 0 {
		rating = raw.Rating
	}
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	sales := raw.Sales
	if sales == 0 {
		sales = raw.HistoricalSold
	}
	if sales < 0 {
		sales = 0
	}

	return domain.Offer{
		ItemID:   raw.ItemID,
		ShopID:   raw.ShopID,
		ShopName: raw.ShopName,
		Name:     name,
		Category: raw.Category,
		Link:     link,
		Price:    price,
		Discount: discount,
		Rating:   rating,
		Sales:    sales,
	}, nil
}

// collectCandidates walks every keyword and shop over the configured pages.
// A failed query loses only that page; the rest of the collection proceeds.
func (s *Service) collectCandidates(ctx context.Context) []domain.Offer {
	rid := RunIDFromContext(ctx)
	out := make([]domain.Offer, 0, len(s.cfg.Keywords)*s.cfg.PagesPerQuery*s.cfg.ItemsPerPage)

	appendRaw := func(raws []RawOffer) {
		for _, raw := range raws {
			offer, err := normalizeRaw(raw)
			if err != nil {
				logger.Warn("dropping malformed offer record", "run_id", rid, "reason", err.Error())
				continue
			}
			out = append(out, offer)
		}
	}

	for _, kw := range s.cfg.Keywords {
		for page := 1; page <= s.cfg.PagesPerQuery; page++ {
			raws, err := s.feed.SearchByKeyword(ctx, kw, page, s.cfg.ItemsPerPage)
			if err != nil {
				logger.Warn("keyword search failed", "run_id", rid, "keyword", kw, "page", page, "error", err)
				continue
			}
			appendRaw(raws)
		}
	}

	for _, shopID := range s.cfg.ShopIDs {
		for page := 1; page <= s.cfg.PagesPerQuery; page++ {
			raws, err := s.feed.SearchByShop(ctx, shopID, page, s.cfg.ItemsPerPage)
			if err != nil {
				logger.Warn("shop search failed", "run_id", rid, "shop_id", shopID, "page", page, "error", err)
				continue
			}
			appendRaw(raws)
		}
	}

	logger.Info("raw collection done", "run_id", rid, "offers", len(out))
	return out
}

// qualityFilter drops offers below the rating and discount gates.
func qualityFilter(offers []domain.Offer, minRating, minDiscount float64) []domain.Offer {
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.Rating > 0 && o.Rating < minRating {
			continue
		}
		if o.Discount < minDiscount {
			continue
		}
		out = append(out, o)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
