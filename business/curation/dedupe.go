package curation

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"promoHunter/domain"
)

// ---- name signature ----

// fillerTokens are marketing/noise words that never distinguish products.
var fillerTokens = map[string]struct{}{
	"original": {}, "oficial": {}, "premium": {}, "novo": {}, "nova": {},
	"promocao": {}, "oferta": {}, "barato": {}, "top": {}, "kit": {},
	"wireless": {}, "portatil": {},
	// colors
	"preto": {}, "branco": {}, "azul": {}, "vermelho": {}, "rosa": {},
	"verde": {}, "cinza": {}, "dourado": {}, "prata": {},
	"black": {}, "white": {}, "blue": {}, "red": {}, "pink": {},
	"green": {}, "gray": {}, "gold": {}, "silver": {},
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)

// nameSignature lower-cases, strips punctuation, and drops filler tokens so
// spelling variants of the same listing collapse.
func nameSignature(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnumRe.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, filler := fillerTokens[f]; filler {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// ---- feature signature ----

// specPatterns extract the salient numeric spec that separates product tiers
// (sensor resolution, battery, capacity, storage, power).
var specPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{3,5})\s*dpi`),
	regexp.MustCompile(`ip(\d{2})`),
	regexp.MustCompile(`(\d{3,6})\s*mah`),
	regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:l|litros)\b`),
	regexp.MustCompile(`(\d+)\s*(?:gb|tb)\b`),
	regexp.MustCompile(`(\d{3,4})p\b`),
	regexp.MustCompile(`(\d+)\s*w\b`),
	regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:pol|polegadas)\b`),
}

func salientSpec(normName string) string {
	for _, re := range specPatterns {
		if m := re.FindString(normName); m != "" {
			return strings.ReplaceAll(strings.ReplaceAll(m, " ", ""), ",", ".")
		}
	}
	return ""
}

// brandGuess takes the leading token of the cleaned name. Listings in the
// same category almost always front-load the brand.
func brandGuess(normName string) string {
	fields := strings.Fields(normName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// featureSignature is the coarse product identity: category + brand guess +
// salient spec. Offers sharing it are treated as the same underlying product.
func featureSignature(o domain.Offer) string {
	norm := nameSignature(o.Name)
	cat := strings.ToLower(strings.TrimSpace(o.Category))
	if cat == "" {
		cat = "outros"
	}
	return cat + "|" + brandGuess(norm) + "|" + salientSpec(norm)
}

// ---- pre-score ----

// preScore is the cheap ranking heuristic used before the composite score
// exists: rates reputation, discount depth, and popularity. It also ranks
// rescue candidates.
func preScore(o domain.Offer) float64 {
	return o.Rating*10.0 + o.Discount*100.0 + math.Log1p(float64(o.Sales))*5.0
}

// ---- dedup ----

// Dedupe collapses duplicate identifiers (last record wins) and, for offers
// sharing a feature signature, keeps only the best pre-scoring one. The
// result carries both signatures and does not depend on input order beyond
// the last-wins rule for identical identifiers.
func Dedupe(offers []domain.Offer) []domain.Offer {
	byID := make(map[int64]domain.Offer, len(offers))
	for _, o := range offers {
		byID[o.ItemID] = o
	}

	byFeature := make(map[string]domain.Offer, len(byID))
	for _, o := range byID {
		o.NameSignature = nameSignature(o.Name)
		o.FeatureSignature = featureSignature(o)

		best, ok := byFeature[o.FeatureSignature]
		if !ok {
			byFeature[o.FeatureSignature] = o
			continue
		}
		bs, os := preScore(best), preScore(o)
		if os > bs || (os == bs && o.ItemID < best.ItemID) {
			byFeature[o.FeatureSignature] = o
		}
	}

	out := make([]domain.Offer, 0, len(byFeature))
	for _, o := range byFeature {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := preScore(out[i]), preScore(out[j])
		if si == sj {
			return out[i].ItemID < out[j].ItemID
		}
		return si > sj
	})
	return out
}
