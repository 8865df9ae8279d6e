package curation

import "time"

// Config carries the tuning values for one pipeline run. Weights and caps are
// business-tuned defaults; nothing here is derived at runtime.
type Config struct {
	TargetPosts   int
	PagesPerQuery int
	ItemsPerPage  int
	Keywords      []string
	ShopIDs       []int64

	// quality gates applied before dedup/scoring
	MinRating   float64
	MinDiscount float64

	// composite score inputs
	MinRelevance    float64
	WeightRelevance float64
	WeightDiscount  float64
	WeightEV        float64
	EVWindowDays    int

	// selection + repetition control
	MaxCategoryShare     float64
	CooldownDays         int
	RescueCooldownFactor float64
	MaxRescueReposts     int

	RelevanceTopK int
	Variant       string
	CTA           string
	PublishPause  time.Duration
}

const (
	defaultTargetPosts          = 6
	defaultPagesPerQuery        = 2
	defaultItemsPerPage         = 15
	defaultMinRating            = 4.7
	defaultMinDiscount          = 0.15
	defaultMinRelevance         = 65.0
	defaultWeightRelevance      = 0.45
	defaultWeightDiscount       = 0.25
	defaultWeightEV             = 0.30
	defaultEVWindowDays         = 28
	defaultMaxCategoryShare     = 0.5
	defaultCooldownDays         = 5
	defaultRescueCooldownFactor = 0.6
	defaultMaxRescueReposts     = 3
	defaultRelevanceTopK        = 6
	defaultPublishPause         = 600 * time.Millisecond

	// relaxation applied by the rescue re-collection
	relaxedRatingDelta   = 0.2
	relaxedDiscountDelta = 0.05
)

func DefaultConfig() Config {
	return Config{
		TargetPosts:   defaultTargetPosts,
		PagesPerQuery: defaultPagesPerQuery,
		ItemsPerPage:  defaultItemsPerPage,

		MinRating:   defaultMinRating,
		MinDiscount: defaultMinDiscount,

		MinRelevance:    defaultMinRelevance,
		WeightRelevance: defaultWeightRelevance,
		WeightDiscount:  defaultWeightDiscount,
		WeightEV:        defaultWeightEV,
		EVWindowDays:    defaultEVWindowDays,

		MaxCategoryShare:     defaultMaxCategoryShare,
		CooldownDays:         defaultCooldownDays,
		RescueCooldownFactor: defaultRescueCooldownFactor,
		MaxRescueReposts:     defaultMaxRescueReposts,

		RelevanceTopK: defaultRelevanceTopK,
		Variant:       "A",
		CTA:           "Ver oferta",
		PublishPause:  defaultPublishPause,
	}
}

// Cooldown returns the nominal repost cooldown window.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}

// RescueCooldown returns the relaxed window used only by the rescue pass.
func (c Config) RescueCooldown() time.Duration {
	return time.Duration(float64(c.Cooldown()) * c.RescueCooldownFactor)
}
