package curation

import (
	"context"
	"sort"
	"time"

	"promoHunter/domain"
	"promoHunter/pkg/logger"
)

// Publication is one offer ready for the outbound channel, with its pitch
// texts and campaign tagging already attached.
type Publication struct {
	Offer   domain.Offer
	PitchA  string
	PitchB  string
	Variant string
	CTA     string
	SubID   string
}

// PublishSink delivers one publication to the outbound channel and returns
// the external message id when the channel provides one.
type PublishSink interface {
	Publish(ctx context.Context, pub Publication) (messageID string, err error)
}

// CooldownTracker answers repost eligibility and records publish events.
type CooldownTracker interface {
	CanRepost(ctx context.Context, itemID int64, cooldown time.Duration) (bool, error)
	RecordPost(ctx context.Context, itemID int64, variant, messageID string) error
	LastPostedAt(ctx context.Context, itemID int64) (*time.Time, error)
}

// ---- multi-pass publish strategy ----

// publishPass parameterizes one escalation step: where candidates come from,
// which cooldown window applies, and an optional per-pass post budget.
// The same loop runs every pass; only these knobs change.
type publishPass struct {
	name       string
	candidates func(ctx context.Context) []Publication
	cooldown   time.Duration
	// maxReposts caps how many previously posted offers this pass may repost;
	// never-posted offers do not count against it. 0 means no cap.
	maxReposts int
}

type publishState struct {
	published int
	attempted int
	seenIDs   map[int64]struct{}
	seenNames map[string]struct{}
}

// volumePublisher drives escalating passes until the target publish count is
// reached or every pass is exhausted. Individual publish failures are
// skipped; a shortfall at the end is a reported outcome, not an error.
type volumePublisher struct {
	sink    PublishSink
	tracker CooldownTracker
	pause   time.Duration
}

func (p *volumePublisher) run(ctx context.Context, target int, passes []publishPass) (published, attempted int) {
	rid := RunIDFromContext(ctx)
	st := &publishState{
		seenIDs:   make(map[int64]struct{}),
		seenNames: make(map[string]struct{}),
	}

	for _, pass := range passes {
		if st.published >= target {
			break
		}
		before := st.published
		p.runPass(ctx, pass, st, target)
		logger.Info("publish pass done",
			"run_id", rid,
			"pass", pass.name,
			"posted", st.published-before,
			"published_total", st.published,
			"attempted_total", st.attempted,
			"target", target,
		)
	}

	if st.published < target {
		ShortfallRunsTotal.Inc()
		logger.Warn("publish target not reached",
			"run_id", rid, "published", st.published, "attempted", st.attempted, "target", target)
	}
	return st.published, st.attempted
}

func (p *volumePublisher) runPass(ctx context.Context, pass publishPass, st *publishState, target int) {
	rid := RunIDFromContext(ctx)
	repostsThisPass := 0

	for _, pub := range pass.candidates(ctx) {
		if st.published >= target {
			return
		}

		itemID := pub.Offer.ItemID
		if itemID <= 0 {
			continue
		}
		if _, dup := st.seenIDs[itemID]; dup {
			continue
		}

		sig := pub.Offer.NameSignature
		if sig == "" {
			sig = nameSignature(pub.Offer.Name)
		}
		if _, dup := st.seenNames[sig]; dup {
			continue
		}

		ok, err := p.tracker.CanRepost(ctx, itemID, pass.cooldown)
		if err != nil {
			logger.Warn("cooldown check failed, skipping offer",
				"run_id", rid, "pass", pass.name, "item_id", itemID, "error", err)
			continue
		}
		if !ok {
			logger.Debug("cooldown active", "run_id", rid, "pass", pass.name, "item_id", itemID)
			continue
		}

		// the repost cap throttles repetition only; a first-time offer is
		// always worth a slot
		isRepost := false
		if pass.maxReposts > 0 {
			last, err := p.tracker.LastPostedAt(ctx, itemID)
			if err != nil {
				logger.Warn("last post lookup failed, counting offer as repost",
					"run_id", rid, "pass", pass.name, "item_id", itemID, "error", err)
				isRepost = true
			} else {
				isRepost = last != nil
			}
			if isRepost && repostsThisPass >= pass.maxReposts {
				logger.Debug("repost budget exhausted, skipping previously posted offer",
					"run_id", rid, "pass", pass.name, "item_id", itemID, "budget", pass.maxReposts)
				continue
			}
		}

		st.seenIDs[itemID] = struct{}{}
		st.seenNames[sig] = struct{}{}
		st.attempted++

		messageID, err := p.sink.Publish(ctx, pub)
		if err != nil {
			PublishFailuresTotal.Inc()
			logger.Error("publish failed, moving to next candidate",
				"run_id", rid, "pass", pass.name, "item_id", itemID, "error", err)
			continue
		}

		if err := p.tracker.RecordPost(ctx, itemID, pub.Variant, messageID); err != nil {
			// the post went out; losing the record only weakens future cooldowns
			logger.Error("failed to record post",
				"run_id", rid, "pass", pass.name, "item_id", itemID, "error", err)
		}

		OffersPublishedTotal.WithLabelValues(pass.name).Inc()
		st.published++
		if isRepost {
			repostsThisPass++
		}

		if p.pause > 0 {
			// courtesy delay toward the channel; deliberately not cancellable
			time.Sleep(p.pause)
		}
	}
}

// orderForRescue ranks rescue candidates: known never-posted offers first,
// then offers whose post history could not be read, then offers posted
// longest ago; pre-score decides within each group.
func orderForRescue(ctx context.Context, tracker CooldownTracker, offers []domain.Offer) []domain.Offer {
	rid := RunIDFromContext(ctx)

	type rescueInfo struct {
		offer    domain.Offer
		rank     int // 0 never posted, 1 history unknown, 2 previously posted
		lastPost *time.Time
		score    float64
	}

	infos := make([]rescueInfo, 0, len(offers))
	for _, o := range offers {
		last, err := tracker.LastPostedAt(ctx, o.ItemID)
		rank := 0
		if err != nil {
			logger.Warn("last post lookup failed, demoting rescue candidate",
				"run_id", rid, "item_id", o.ItemID, "error", err)
			last, rank = nil, 1
		} else if last != nil {
			rank = 2
		}
		infos = append(infos, rescueInfo{offer: o, rank: rank, lastPost: last, score: preScore(o)})
	}

	sort.Slice(infos, func(i, j int) bool {
		a, b := infos[i], infos[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.lastPost != nil && b.lastPost != nil && !a.lastPost.Equal(*b.lastPost) {
			return a.lastPost.Before(*b.lastPost)
		}
		if a.score == b.score {
			return a.offer.ItemID < b.offer.ItemID
		}
		return a.score > b.score
	})

	out := make([]domain.Offer, 0, len(infos))
	for _, in := range infos {
		out = append(out, in.offer)
	}
	return out
}
