//go:build !integration

package curation

import (
	"context"
	"testing"

	"promoHunter/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEV struct {
	value float64
	err   error
}

func (s stubEV) Estimate(_ context.Context, _ int64, _, _ string, _ int) (float64, error) {
	return s.value, s.err
}

type stubCopy struct {
	copies []OfferCopy
	err    error
	calls  int
}

func (s *stubCopy) ScoreAndWrite(_ context.Context, _ []domain.Offer) ([]OfferCopy, error) {
	s.calls++
	return s.copies, s.err
}

func newScoringService(copySvc CopyService, ev EVEstimator) *Service {
	cfg := DefaultConfig()
	return NewService(nil, copySvc, ev, nil, nil, nil, cfg)
}

func TestFallbackRelevance_StaysInLowerBand(t *testing.T) {
	// a flawless offer still cannot reach the top of the scale
	best := fallbackRelevance(domain.Offer{Rating: 5.0, Discount: 0.5})
	assert.InDelta(t, 80.0, best, 1e-9)

	typical := fallbackRelevance(domain.Offer{Rating: 4.8, Discount: 0.2})
	assert.Less(t, typical, 70.0)

	assert.Equal(t, 0.0, fallbackRelevance(domain.Offer{}))
}

func TestScoreOffers_HardRelevanceGate(t *testing.T) {
	svc := newScoringService(nil, stubEV{})

	offers := []domain.Offer{
		{ItemID: 1, Name: "bom", Rating: 4.9, Discount: 0.3},
		{ItemID: 2, Name: "fraco", Rating: 4.9, Discount: 0.3},
	}
	copies := map[int64]OfferCopy{
		1: {ItemID: 1, Relevance: 90},
		2: {ItemID: 2, Relevance: 40}, // below the gate
	}

	ranked := svc.scoreOffers(context.Background(), offers, copies)
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(1), ranked[0].Offer.ItemID)
}

func TestScoreOffers_CompositeBlend(t *testing.T) {
	svc := newScoringService(nil, stubEV{value: 0.5})

	offers := []domain.Offer{{ItemID: 1, Name: "x", Rating: 5, Discount: 0.4}}
	copies := map[int64]OfferCopy{1: {ItemID: 1, Relevance: 80}}

	ranked := svc.scoreOffers(context.Background(), offers, copies)
	require.Len(t, ranked, 1)

	// 0.45*(80/100) + 0.25*0.4 + 0.30*0.5
	assert.InDelta(t, 0.61, ranked[0].FinalScore, 1e-9)
	assert.Equal(t, 80.0, ranked[0].Relevance)
	assert.Equal(t, 0.5, ranked[0].EVSignal)
}

func TestScoreOffers_EVFailureScoresZeroEV(t *testing.T) {
	svc := newScoringService(nil, stubEV{err: assert.AnError})

	offers := []domain.Offer{{ItemID: 1, Name: "x", Rating: 5, Discount: 0.4}}
	copies := map[int64]OfferCopy{1: {ItemID: 1, Relevance: 80}}

	ranked := svc.scoreOffers(context.Background(), offers, copies)
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.0, ranked[0].EVSignal)
	assert.InDelta(t, 0.46, ranked[0].FinalScore, 1e-9)
}

func TestScoreOffers_SortsByScoreThenID(t *testing.T) {
	svc := newScoringService(nil, stubEV{})

	offers := []domain.Offer{
		{ItemID: 7, Name: "a", Rating: 4.9, Discount: 0.2},
		{ItemID: 3, Name: "b", Rating: 4.9, Discount: 0.2},
		{ItemID: 5, Name: "c", Rating: 4.9, Discount: 0.5},
	}
	copies := map[int64]OfferCopy{
		7: {ItemID: 7, Relevance: 70},
		3: {ItemID: 3, Relevance: 70},
		5: {ItemID: 5, Relevance: 70},
	}

	ranked := svc.scoreOffers(context.Background(), offers, copies)
	require.Len(t, ranked, 3)
	assert.Equal(t, int64(5), ranked[0].Offer.ItemID)
	assert.Equal(t, int64(3), ranked[1].Offer.ItemID)
	assert.Equal(t, int64(7), ranked[2].Offer.ItemID)
}

func TestFetchCopies_UnavailableFallsBackToNil(t *testing.T) {
	copySvc := &stubCopy{err: ErrCopywriterUnavailable}
	svc := newScoringService(copySvc, stubEV{})

	out := svc.fetchCopies(context.Background(), []domain.Offer{{ItemID: 1, Name: "x"}})
	assert.Nil(t, out)
	assert.Equal(t, 1, copySvc.calls)
}

func TestFetchCopies_NilServiceSkips(t *testing.T) {
	svc := newScoringService(nil, stubEV{})
	assert.Nil(t, svc.fetchCopies(context.Background(), []domain.Offer{{ItemID: 1}}))
}

func TestFetchCopies_MapsByItemID(t *testing.T) {
	copySvc := &stubCopy{copies: []OfferCopy{
		{ItemID: 1, Relevance: 90, PitchA: "direto", PitchB: "criativo"},
		{ItemID: 2, Relevance: 55},
	}}
	svc := newScoringService(copySvc, stubEV{})

	out := svc.fetchCopies(context.Background(), []domain.Offer{{ItemID: 1}, {ItemID: 2}})
	require.Len(t, out, 2)
	assert.Equal(t, "direto", out[1].PitchA)
	assert.Equal(t, 55.0, out[2].Relevance)
}
