package curation

import (
	"context"
	"errors"
	"sort"

	"promoHunter/domain"
	"promoHunter/pkg/logger"
)

// OfferCopy is the copywriter's verdict on one offer: a relevance score and
// two short pitch variants.
type OfferCopy struct {
	ItemID    int64
	Relevance float64 // 0-100
	PitchA    string
	PitchB    string
}

// ErrCopywriterUnavailable signals the collaborator could not serve the
// batch at all. The scorer falls back to the local heuristic; anything else
// is a per-item problem handled item by item.
var ErrCopywriterUnavailable = errors.New("copywriter unavailable")

// CopyService scores a batch of offers and writes their pitch texts.
type CopyService interface {
	ScoreAndWrite(ctx context.Context, offers []domain.Offer) ([]OfferCopy, error)
}

// EVEstimator produces the historical expected-value signal in [0,1].
type EVEstimator interface {
	Estimate(ctx context.Context, itemID int64, offerName, shopName string, windowDays int) (float64, error)
}

// fallbackRelevance imputes a relevance score when the copywriter is down.
// Deterministic in rating and discount, and deliberately in a lower band
// (realistic ceiling around 75) so imputed offers only pass the gate when
// their fundamentals are strong.
func fallbackRelevance(o domain.Offer) float64 {
	return clamp(o.Rating/5.0*60.0+o.Discount*40.0, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// compositeScore blends relevance, discount depth, and the EV signal.
func (s *Service) compositeScore(relevance, discount, ev float64) float64 {
	return s.cfg.WeightRelevance*(relevance/100.0) +
		s.cfg.WeightDiscount*clamp(discount, 0, 1) +
		s.cfg.WeightEV*clamp(ev, 0, 1)
}

// scoreOffers builds the ranked list. Offers below the relevance gate are
// excluded outright, never down-weighted. The copy map may be nil (full
// fallback) or partial (per-item fallback).
func (s *Service) scoreOffers(ctx context.Context, offers []domain.Offer, copies map[int64]OfferCopy) []domain.ScoredOffer {
	rid := RunIDFromContext(ctx)
	scored := make([]domain.ScoredOffer, 0, len(offers))

	for _, o := range offers {
		relevance := fallbackRelevance(o)
		if c, ok := copies[o.ItemID]; ok {
			relevance = clamp(c.Relevance, 0, 100)
		}
		if relevance < s.cfg.MinRelevance {
			continue
		}

		ev, err := s.ev.Estimate(ctx, o.ItemID, o.Name, o.ShopName, s.cfg.EVWindowDays)
		if err != nil {
			logger.Warn("ev estimate failed, using zero", "run_id", rid, "item_id", o.ItemID, "error", err)
			ev = 0
		}

		discount := clamp(o.Discount, 0, 1)
		scored = append(scored, domain.ScoredOffer{
			Offer:         o,
			Relevance:     relevance,
			EVSignal:      ev,
			DiscountScore: discount,
			FinalScore:    s.compositeScore(relevance, discount, ev),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].FinalScore == scored[j].FinalScore {
			return scored[i].Offer.ItemID < scored[j].Offer.ItemID
		}
		return scored[i].FinalScore > scored[j].FinalScore
	})
	return scored
}

// fetchCopies asks the copywriter for the top candidates. Unavailability is
// recoverable: the caller proceeds with an empty map and the fallback band.
func (s *Service) fetchCopies(ctx context.Context, offers []domain.Offer) map[int64]OfferCopy {
	rid := RunIDFromContext(ctx)
	if s.copy == nil || len(offers) == 0 {
		return nil
	}

	batch := offers
	limit := s.cfg.RelevanceTopK
	if limit < s.cfg.TargetPosts*2 {
		limit = s.cfg.TargetPosts * 2
	}
	// keep the prompt bounded
	if len(batch) > 30 {
		batch = batch[:30]
	}

	copies, err := s.copy.ScoreAndWrite(ctx, batch)
	if err != nil {
		if errors.Is(err, ErrCopywriterUnavailable) {
			logger.Error("copywriter unavailable, falling back to heuristic relevance", "run_id", rid, "offers", len(batch))
			return nil
		}
		logger.Error("copywriter failed", "run_id", rid, "error", err)
		return nil
	}

	out := make(map[int64]OfferCopy, len(copies))
	for i, c := range copies {
		if i >= limit {
			break
		}
		out[c.ItemID] = c
	}
	return out
}
