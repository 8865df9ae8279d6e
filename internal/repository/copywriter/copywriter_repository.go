package copywriter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"promoHunter/business/curation"
	"promoHunter/domain"
	"promoHunter/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
)

type CopywriterConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	BasicAuthUsername string
	BasicAuthPassword string
}

// CopywriterRepository asks a text-generation API to score offers for the
// channel audience and write two short pitch variants per offer. The model
// output is free text that should contain a JSON array; parsing is defensive
// because models decorate their answers.
type CopywriterRepository struct {
	cfg    CopywriterConfig
	client *http.Client
}

func NewCopywriterRepository(cfg CopywriterConfig) *CopywriterRepository {
	return &CopywriterRepository{
		cfg:    cfg,
		client: &http.Client{Timeout: 45 * time.Second},
	}
}

// ---- wire types ----

type generatePayload struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type copyVerdict struct {
	ItemID    int64   `json:"item_id"`
	Relevance float64 `json:"relevance"`
	PitchA    string  `json:"pitch_a"`
	PitchB    string  `json:"pitch_b"`
}

func (r *CopywriterRepository) ScoreAndWrite(ctx context.Context, offers []domain.Offer) ([]curation.OfferCopy, error) {
	if len(offers) == 0 {
		return nil, nil
	}

	payload := generatePayload{
		Contents: []content{{Parts: []part{{Text: buildPrompt(offers)}}}},
	}
	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(r.cfg.BaseURL, "/"), r.cfg.Model, r.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payloadByte)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curation.ErrCopywriterUnavailable, err)
	}
	req.Header.Add("Content-Type", "application/json")
	if r.cfg.BasicAuthUsername != "" {
		buildBasicAuth := goshortcute.StringtoBase64Encode(r.cfg.BasicAuthUsername + ":" + r.cfg.BasicAuthPassword)
		req.Header.Add("Proxy-Authorization", "Basic "+buildBasicAuth)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curation.ErrCopywriterUnavailable, err)
	}
	defer res.Body.Close()

	bodyBytes, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.Warn("copywriter returned negative response", "status", res.StatusCode)
		return nil, fmt.Errorf("%w: status %d", curation.ErrCopywriterUnavailable, res.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(bodyBytes, &decoded); err != nil {
		return nil, fmt.Errorf("decode copywriter response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("copywriter returned no candidates")
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	verdicts, err := parseVerdicts(text)
	if err != nil {
		return nil, fmt.Errorf("parse copywriter output: %w", err)
	}

	known := make(map[int64]struct{}, len(offers))
	for _, o := range offers {
		known[o.ItemID] = struct{}{}
	}

	out := make([]curation.OfferCopy, 0, len(verdicts))
	for _, v := range verdicts {
		if _, ok := known[v.ItemID]; !ok {
			continue
		}
		out = append(out, curation.OfferCopy{
			ItemID:    v.ItemID,
			Relevance: v.Relevance,
			PitchA:    strings.TrimSpace(v.PitchA),
			PitchB:    strings.TrimSpace(v.PitchB),
		})
	}
	return out, nil
}

// ---- prompt ----

func buildPrompt(offers []domain.Offer) string {
	var b strings.Builder
	b.WriteString("Você é o redator de um canal de ofertas no Telegram. ")
	b.WriteString("Para cada produto abaixo, avalie a relevância para o público (0 a 100) ")
	b.WriteString("e escreva dois textos curtos de divulgação em português, um direto (pitch_a) ")
	b.WriteString("e um mais criativo (pitch_b), no máximo 160 caracteres cada.\n\n")
	b.WriteString("Responda APENAS com um array JSON no formato: ")
	b.WriteString(`[{"item_id": 123, "relevance": 80, "pitch_a": "...", "pitch_b": "..."}]`)
	b.WriteString("\n\nProdutos:\n")

	for _, o := range offers {
		fmt.Fprintf(&b, "- item_id=%d | %s | preço R$ %.2f | desconto %d%% | nota %.1f | %d vendidos | categoria %s\n",
			o.ItemID, o.Name, o.Price, int(o.Discount*100), o.Rating, o.Sales, o.Category)
	}
	return b.String()
}

// ---- output parsing ----

var trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)

// parseVerdicts pulls the largest JSON array out of the model's text. Models
// wrap answers in code fences or prose, so everything outside the outermost
// brackets is discarded and trailing commas are dropped before decoding.
func parseVerdicts(text string) ([]copyVerdict, error) {
	block := largestJSONArray(text)
	if block == "" {
		return nil, fmt.Errorf("no json array in output")
	}
	block = trailingCommaRe.ReplaceAllString(block, "$1")

	var verdicts []copyVerdict
	if err := json.Unmarshal([]byte(block), &verdicts); err != nil {
		return nil, fmt.Errorf("unmarshal verdicts: %w", err)
	}
	return verdicts, nil
}

// largestJSONArray returns the longest balanced [...] span in the text,
// ignoring brackets inside string literals.
func largestJSONArray(text string) string {
	best := ""
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					if span := text[start : i+1]; len(span) > len(best) {
						best = span
					}
					i = len(text)
				}
			}
		}
	}
	return best
}
