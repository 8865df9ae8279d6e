package curation

import (
	"context"
	"fmt"
	"time"

	"promoHunter/domain"
	"promoHunter/pkg/logger"
	"promoHunter/pkg/metrics"
)

// OfferRepository persists offer snapshots and price history.
type OfferRepository interface {
	UpsertSnapshot(ctx context.Context, offer domain.Offer) error
	AddPricePoint(ctx context.Context, itemID int64, price float64) error
}

// RunResult reports one pipeline run. A shortfall (Published < Target) is a
// valid outcome, not an error.
type RunResult struct {
	RunID     string `json:"run_id"`
	Collected int    `json:"collected"`
	Filtered  int    `json:"filtered"`
	Deduped   int    `json:"deduped"`
	Ranked    int    `json:"ranked"`
	Selected  int    `json:"selected"`
	Published int    `json:"published"`
	Attempted int    `json:"attempted"`
	Target    int    `json:"target"`
}

// ---- Usecase / Service ----

type Service struct {
	feed    OfferFeed
	copy    CopyService
	ev      EVEstimator
	sink    PublishSink
	tracker CooldownTracker
	offers  OfferRepository
	cfg     Config
}

func NewService(
	feed OfferFeed,
	copySvc CopyService,
	ev EVEstimator,
	sink PublishSink,
	tracker CooldownTracker,
	offers OfferRepository,
	cfg Config,
) *Service {
	return &Service{
		feed:    feed,
		copy:    copySvc,
		ev:      ev,
		sink:    sink,
		tracker: tracker,
		offers:  offers,
		cfg:     cfg,
	}
}

// Run executes one curation cycle:
// collect -> quality filter -> dedupe -> score -> select -> publish passes.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("context error: %w", err)
	}

	ctx = WithRunID(ctx)
	rid := RunIDFromContext(ctx)
	res := RunResult{RunID: rid, Target: s.cfg.TargetPosts}

	start := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	// 1) collect
	raw := s.collectCandidates(ctx)
	res.Collected = len(raw)

	// 2) quality gates
	filtered := qualityFilter(raw, s.cfg.MinRating, s.cfg.MinDiscount)
	res.Filtered = len(filtered)
	logger.Info("quality filter done", "run_id", rid, "kept", len(filtered), "dropped", len(raw)-len(filtered))

	// 3) dedupe
	deduped := Dedupe(filtered)
	res.Deduped = len(deduped)
	logger.Info("dedupe done", "run_id", rid, "kept", len(deduped))

	// 4) snapshot persistence; a failed row loses only that row
	s.persistSnapshots(ctx, deduped)

	// 5) relevance + EV + composite score
	copies := s.fetchCopies(ctx, deduped)
	ranked := s.scoreOffers(ctx, deduped, copies)
	res.Ranked = len(ranked)

	// 6) diversity-capped shortlist
	shortlist := SelectDiverse(ranked, s.cfg.TargetPosts, s.cfg.MaxCategoryShare)
	res.Selected = len(shortlist)
	logger.Info("selection done", "run_id", rid, "ranked", len(ranked), "selected", len(shortlist))

	// 7) escalating publish passes
	pub := &volumePublisher{sink: s.sink, tracker: s.tracker, pause: s.cfg.PublishPause}
	passes := []publishPass{
		{
			name:     "strict",
			cooldown: s.cfg.Cooldown(),
			candidates: func(context.Context) []Publication {
				return s.toPublications(scoredOffers(shortlist), copies)
			},
		},
		{
			name:     "backfill",
			cooldown: s.cfg.Cooldown(),
			candidates: func(context.Context) []Publication {
				return s.toPublications(scoredOffers(ranked), copies)
			},
		},
		{
			name:       "rescue",
			cooldown:   s.cfg.RescueCooldown(),
			maxReposts: s.cfg.MaxRescueReposts,
			candidates: func(ctx context.Context) []Publication {
				return s.collectRescue(ctx, raw, copies)
			},
		},
	}

	res.Published, res.Attempted = pub.run(ctx, s.cfg.TargetPosts, passes)

	outcome := "full"
	if res.Published < res.Target {
		outcome = "shortfall"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()

	logger.Info("run done",
		"run_id", rid,
		"published", res.Published,
		"attempted", res.Attempted,
		"target", res.Target,
	)
	return res, nil
}

func (s *Service) persistSnapshots(ctx context.Context, offers []domain.Offer) {
	if s.offers == nil {
		return
	}
	rid := RunIDFromContext(ctx)
	for _, o := range offers {
		if err := s.offers.UpsertSnapshot(ctx, o); err != nil {
			logger.Warn("offer snapshot upsert failed", "run_id", rid, "item_id", o.ItemID, "error", err)
			continue
		}
		if o.Price > 0 {
			if err := s.offers.AddPricePoint(ctx, o.ItemID, o.Price); err != nil {
				logger.Warn("price point insert failed", "run_id", rid, "item_id", o.ItemID, "error", err)
			}
		}
	}
}

// collectRescue re-collects with relaxed quality gates, ranks by pre-score,
// and orders never-posted offers first, then longest-unposted.
func (s *Service) collectRescue(ctx context.Context, raw []domain.Offer, copies map[int64]OfferCopy) []Publication {
	rid := RunIDFromContext(ctx)
	logger.Warn("rescue pass engaged, relaxing quality gates", "run_id", rid)

	minRating := s.cfg.MinRating - relaxedRatingDelta
	if minRating < 0 {
		minRating = 0
	}
	minDiscount := s.cfg.MinDiscount - relaxedDiscountDelta
	if minDiscount < 0 {
		minDiscount = 0
	}

	relaxed := Dedupe(qualityFilter(raw, minRating, minDiscount))
	ordered := orderForRescue(ctx, s.tracker, relaxed)
	logger.Info("rescue pool ready", "run_id", rid, "candidates", len(ordered))
	return s.toPublications(ordered, copies)
}

// toPublications attaches pitches and campaign tagging to each offer.
func (s *Service) toPublications(offers []domain.Offer, copies map[int64]OfferCopy) []Publication {
	out := make([]Publication, 0, len(offers))
	for _, o := range offers {
		pub := Publication{
			Offer:   o,
			Variant: s.cfg.Variant,
			CTA:     s.cfg.CTA,
			SubID:   fmt.Sprintf("BOT-%s-%d", s.cfg.Variant, o.ItemID),
		}
		if c, ok := copies[o.ItemID]; ok {
			pub.PitchA = c.PitchA
			pub.PitchB = c.PitchB
		}
		out = append(out, pub)
	}
	return out
}

func scoredOffers(scored []domain.ScoredOffer) []domain.Offer {
	out := make([]domain.Offer, 0, len(scored))
	for _, so := range scored {
		out = append(out, so.Offer)
	}
	return out
}
