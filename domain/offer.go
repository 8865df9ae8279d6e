package domain

import (
	"time"
)

// CREATE TABLE public.offers (
//     item_id     BIGINT PRIMARY KEY,
//     shop_id     BIGINT,
//     shop_name   TEXT,
//     name        TEXT,
//     category    TEXT,
//     link        TEXT,
//     price       NUMERIC,
//     discount    NUMERIC,
//     rating      NUMERIC,
//     sales       BIGINT,
//     created_at  TIMESTAMPTZ DEFAULT NOW(),
//     updated_at  TIMESTAMPTZ DEFAULT NOW()
// );

// Offer is one product candidate, snapshotted per run. ItemID is the only
// cross-run identity.
type Offer struct {
	ItemID   int64   `gorm:"column:item_id;primaryKey"`
	ShopID   int64   `gorm:"column:shop_id"`
	ShopName string  `gorm:"column:shop_name;type:text"`
	Name     string  `gorm:"column:name;type:text"`
	Category string  `gorm:"column:category;type:text"`
	Link     string  `gorm:"column:link;type:text"`
	Price    float64 `gorm:"column:price;type:numeric"`
	// Discount is a fraction in [0,1], already normalized by the feed layer.
	Discount  float64   `gorm:"column:discount;type:numeric"`
	Rating    float64   `gorm:"column:rating;type:numeric"`
	Sales     int64     `gorm:"column:sales"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	// Dedup signatures, computed by the curation layer. Not persisted.
	NameSignature    string `gorm:"-"`
	FeatureSignature string `gorm:"-"`
}

func (Offer) TableName() string {
	return "offers"
}

// ScoredOffer annotates an Offer with its ranking components. Immutable once
// built; ordering is total (FinalScore desc, ItemID asc on ties).
type ScoredOffer struct {
	Offer         Offer
	Relevance     float64 // 0-100
	EVSignal      float64 // 0-1
	DiscountScore float64 // 0-1
	FinalScore    float64
}

// CREATE TABLE public.offer_prices (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     item_id     BIGINT,
//     price       NUMERIC,
//     captured_at TIMESTAMPTZ DEFAULT NOW()
// );

// OfferPrice is one captured price point for an offer.
type OfferPrice struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ItemID     int64     `gorm:"column:item_id;index"`
	Price      float64   `gorm:"column:price;type:numeric"`
	CapturedAt time.Time `gorm:"column:captured_at"`
}

func (OfferPrice) TableName() string {
	return "offer_prices"
}
