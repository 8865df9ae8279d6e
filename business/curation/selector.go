package curation

import (
	"promoHunter/domain"
)

// selectionState is the working set of one selection pass.
type selectionState struct {
	chosen     []domain.ScoredOffer
	byCategory map[string]int
	namesSeen  map[string]struct{}
}

func newSelectionState(target int) *selectionState {
	return &selectionState{
		chosen:     make([]domain.ScoredOffer, 0, target),
		byCategory: make(map[string]int),
		namesSeen:  make(map[string]struct{}),
	}
}

// categoryCap is the per-category slot budget: floor(target*share), but a
// category is always allowed at least one slot.
func categoryCap(target int, share float64) int {
	limit := int(float64(target) * share)
	if limit < 1 {
		limit = 1
	}
	return limit
}

// SelectDiverse walks the ranked list once, greedily accepting offers while
// enforcing the per-category cap and the duplicate-name guard. It never
// backtracks; relaxation across passes is the publisher's job.
func SelectDiverse(ranked []domain.ScoredOffer, target int, maxCategoryShare float64) []domain.ScoredOffer {
	if target <= 0 || len(ranked) == 0 {
		return nil
	}

	capPerCategory := categoryCap(target, maxCategoryShare)
	st := newSelectionState(target)

	for _, so := range ranked {
		if len(st.chosen) >= target {
			break
		}

		sig := so.Offer.NameSignature
		if sig == "" {
			sig = nameSignature(so.Offer.Name)
		}
		if _, dup := st.namesSeen[sig]; dup {
			continue
		}

		cat := categoryKey(so.Offer.Category)
		if st.byCategory[cat] >= capPerCategory {
			continue
		}

		st.chosen = append(st.chosen, so)
		st.byCategory[cat]++
		st.namesSeen[sig] = struct{}{}
	}

	return st.chosen
}

func categoryKey(category string) string {
	if category == "" {
		return "outros"
	}
	return category
}
