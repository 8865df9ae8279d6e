//go:build !integration

package curation

import (
	"testing"

	"promoHunter/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRaw_ResolvesAlternateFields(t *testing.T) {
	raw := RawOffer{
		ItemID:            42,
		ProductName:       "Fone Bluetooth",
		PriceMin:          99.9,
		PriceDiscountRate: 25.0, // percentage form
		RatingStar:        4.8,
		HistoricalSold:    1200,
		ShopID:            7,
		ShopName:          "Loja Boa",
		Category:          "audio",
		OfferLink:         "https://s.shopee.com.br/abc",
	}

	offer, err := normalizeRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(42), offer.ItemID)
	assert.Equal(t, "Fone Bluetooth", offer.Name)
	assert.Equal(t, 99.9, offer.Price)
	assert.InDelta(t, 0.25, offer.Discount, 1e-9)
	assert.Equal(t, 4.8, offer.Rating)
	assert.Equal(t, int64(1200), offer.Sales)
	assert.Equal(t, "https://s.shopee.com.br/abc", offer.Link)
}

func TestNormalizeRaw_PrefersCanonicalNames(t *testing.T) {
	raw := RawOffer{
		ItemID:   1,
		Name:     "canonical",
		ItemName: "alternate",
		Price:    10,
		PriceMin: 5,
	}

	offer, err := normalizeRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, "canonical", offer.Name)
	assert.Equal(t, 10.0, offer.Price)
}

func TestNormalizeRaw_FractionDiscountKept(t *testing.T) {
	offer, err := normalizeRaw(RawOffer{ItemID: 1, Name: "x", Discount: 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, offer.Discount, 1e-9)
}

func TestNormalizeRaw_ClampsOutOfRange(t *testing.T) {
	offer, err := normalizeRaw(RawOffer{
		ItemID:   1,
		Name:     "x",
		Price:    -5,
		Discount: 180, // 180% becomes 1.8, clamped to 1
		Rating:   9.5,
		Sales:    -3,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, offer.Price)
	assert.Equal(t, 1.0, offer.Discount)
	assert.Equal(t, 5.0, offer.Rating)
	assert.Equal(t, int64(0), offer.Sales)
}

func TestNormalizeRaw_RejectsMissingItemID(t *testing.T) {
	_, err := normalizeRaw(RawOffer{Name: "sem id"})
	assert.ErrorIs(t, err, errMissingItemID)
}

func TestQualityFilter(t *testing.T) {
	offers := []domain.Offer{
		{ItemID: 1, Rating: 4.9, Discount: 0.30}, // passes
		{ItemID: 2, Rating: 4.2, Discount: 0.30}, // low rating
		{ItemID: 3, Rating: 4.9, Discount: 0.05}, // shallow discount
		{ItemID: 4, Rating: 0, Discount: 0.30},   // unrated passes the rating gate
	}

	out := qualityFilter(offers, 4.7, 0.15)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ItemID)
	assert.Equal(t, int64(4), out[1].ItemID)
}
