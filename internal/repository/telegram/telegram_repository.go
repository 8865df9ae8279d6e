package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"promoHunter/business/curation"
	"promoHunter/pkg/logger"
)

type TelegramConfig struct {
	BaseURL  string
	BotToken string
	ChatID   string
	DryRun   bool
}

// TelegramRepository posts offer messages to a channel via the Bot API.
// Formatting degrades in steps: HTML first, then plain text, then a minimal
// name-plus-link message, so a markup rejection never costs the publication.
type TelegramRepository struct {
	cfg    TelegramConfig
	client *http.Client
}

func NewTelegramRepository(cfg TelegramConfig) *TelegramRepository {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	return &TelegramRepository{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendMessagePayload struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (r *TelegramRepository) Publish(ctx context.Context, pub curation.Publication) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	link := trackedLink(pub.Offer.Link, pub.SubID)

	if r.cfg.DryRun {
		logger.Info("dry-run publish",
			"item_id", pub.Offer.ItemID, "variant", pub.Variant, "name", pub.Offer.Name)
		return fmt.Sprintf("dry-%d", pub.Offer.ItemID), nil
	}

	attempts := []sendMessagePayload{
		{ChatID: r.cfg.ChatID, Text: buildHTMLMessage(pub, link), ParseMode: "HTML", DisableWebPagePreview: false},
		{ChatID: r.cfg.ChatID, Text: buildPlainMessage(pub, link), DisableWebPagePreview: false},
		{ChatID: r.cfg.ChatID, Text: fmt.Sprintf("%s\n%s", pub.Offer.Name, link), DisableWebPagePreview: false},
	}

	var lastErr error
	for i, payload := range attempts {
		messageID, err := r.sendMessage(ctx, payload)
		if err == nil {
			return messageID, nil
		}
		lastErr = err
		if i < len(attempts)-1 {
			logger.Warn("telegram send failed, degrading format",
				"item_id", pub.Offer.ItemID, "attempt", i+1, "error", err)
		}
	}

	return "", fmt.Errorf("telegram publish failed: %w", lastErr)
}

func (r *TelegramRepository) sendMessage(ctx context.Context, payload sendMessagePayload) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", r.cfg.BaseURL, r.cfg.BotToken)

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payloadByte)))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	bodyBytes, _ := io.ReadAll(res.Body)

	var decoded sendMessageResponse
	if err := json.Unmarshal(bodyBytes, &decoded); err != nil {
		return "", fmt.Errorf("decode telegram response (status %d): %w", res.StatusCode, err)
	}
	if !decoded.OK {
		return "", fmt.Errorf("telegram api returned negative response %d: %s", res.StatusCode, decoded.Description)
	}

	return strconv.FormatInt(decoded.Result.MessageID, 10), nil
}

// ---- message building ----

func buildHTMLMessage(pub curation.Publication, link string) string {
	var b strings.Builder

	b.WriteString("🔥 <b>")
	b.WriteString(htmlEscape(pub.Offer.Name))
	b.WriteString("</b>\n\n")

	if pitch := pickPitch(pub); pitch != "" {
		b.WriteString(htmlEscape(pitch))
		b.WriteString("\n\n")
	}

	if original := originalPrice(pub.Offer.Price, pub.Offer.Discount); original > 0 {
		b.WriteString("De <s>")
		b.WriteString(formatBRL(original))
		b.WriteString("</s> por <b>")
		b.WriteString(formatBRL(pub.Offer.Price))
		b.WriteString("</b>")
		b.WriteString(fmt.Sprintf(" (-%d%%)", int(math.Round(pub.Offer.Discount*100))))
		b.WriteString("\n")
	} else {
		b.WriteString("Por <b>")
		b.WriteString(formatBRL(pub.Offer.Price))
		b.WriteString("</b>\n")
	}

	if meta := metaLine(pub.Offer.Rating, pub.Offer.Sales); meta != "" {
		b.WriteString(meta)
		b.WriteString("\n")
	}

	b.WriteString("\n👉 <a href=\"")
	b.WriteString(htmlEscape(link))
	b.WriteString("\">")
	b.WriteString(htmlEscape(pub.CTA))
	b.WriteString("</a>")

	return b.String()
}

func buildPlainMessage(pub curation.Publication, link string) string {
	var b strings.Builder

	b.WriteString("🔥 ")
	b.WriteString(pub.Offer.Name)
	b.WriteString("\n\n")

	if pitch := pickPitch(pub); pitch != "" {
		b.WriteString(pitch)
		b.WriteString("\n\n")
	}

	if original := originalPrice(pub.Offer.Price, pub.Offer.Discount); original > 0 {
		b.WriteString(fmt.Sprintf("De %s por %s (-%d%%)\n",
			formatBRL(original), formatBRL(pub.Offer.Price), int(math.Round(pub.Offer.Discount*100))))
	} else {
		b.WriteString(fmt.Sprintf("Por %s\n", formatBRL(pub.Offer.Price)))
	}

	if meta := metaLine(pub.Offer.Rating, pub.Offer.Sales); meta != "" {
		b.WriteString(meta)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pub.CTA)
	b.WriteString(": ")
	b.WriteString(link)

	return b.String()
}

func pickPitch(pub curation.Publication) string {
	if pub.Variant == "B" && pub.PitchB != "" {
		return pub.PitchB
	}
	if pub.PitchA != "" {
		return pub.PitchA
	}
	return pub.PitchB
}

func metaLine(rating float64, sales int64) string {
	parts := []string{}
	if rating > 0 {
		parts = append(parts, fmt.Sprintf("⭐ %.1f", rating))
	}
	if sales > 0 {
		parts = append(parts, fmt.Sprintf("🛒 %s vendidos", formatThousands(sales)))
	}
	return strings.Join(parts, " | ")
}

// originalPrice reconstructs the pre-discount price. A discount at or above
// one hundred percent would divide by zero and is treated as no discount.
func originalPrice(price, discount float64) float64 {
	if discount <= 0 || discount >= 1 {
		return 0
	}
	return price / (1 - discount)
}

// formatBRL renders "R$ 1.234,56".
func formatBRL(v float64) string {
	cents := int64(math.Round(v * 100))
	whole := cents / 100
	frac := cents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("R$ %s,%02d", formatThousands(whole), frac)
}

func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return replacer.Replace(s)
}

// trackedLink appends the attribution sub id to the offer link.
func trackedLink(link, subID string) string {
	if subID == "" {
		return link
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" {
		return link
	}
	q := u.Query()
	q.Set("utm_content", subID)
	q.Set("sub_id", subID)
	u.RawQuery = q.Encode()
	return u.String()
}
