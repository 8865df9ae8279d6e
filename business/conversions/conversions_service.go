package conversions

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"promoHunter/domain"
	"promoHunter/pkg/logger"
	"promoHunter/pkg/metrics"
)

// ConversionRecord is one conversion node from the affiliate report.
// Commission amounts arrive as locale-formatted strings ("1.234,56") and are
// parsed defensively; an unparsable amount becomes zero, not a failed sync.
type ConversionRecord struct {
	ConversionID    int64
	PurchaseTime    *time.Time
	ClickTime       *time.Time
	UTMContent      string
	NetCommission   string
	TotalCommission string
	CampaignType    string
	Items           []ConversionRecordItem
}

type ConversionRecordItem struct {
	OrderID    string
	ItemID     int64
	ItemName   string
	Qty        int
	Commission string
	ShopID     int64
	ShopName   string
	Category   string
}

// ReportQuery selects a report slice by purchase or completion window.
type ReportQuery struct {
	PurchaseStart time.Time
	PurchaseEnd   time.Time
	CompleteStart time.Time
	CompleteEnd   time.Time
	Limit         int
}

// ConversionReport is the upstream report source.
type ConversionReport interface {
	FetchConversions(ctx context.Context, q ReportQuery) ([]ConversionRecord, error)
}

// ConversionWriter persists report rows with upsert-by-natural-key semantics.
type ConversionWriter interface {
	UpsertConversion(ctx context.Context, conv domain.Conversion) error
	UpsertConversionItem(ctx context.Context, item domain.ConversionItem) error
}

type SyncResult struct {
	Conversions int `json:"conversions"`
	Items       int `json:"items"`
	Skipped     int `json:"skipped"`
}

type Service struct {
	report ConversionReport
	writer ConversionWriter
	now    func() time.Time
}

func NewService(report ConversionReport, writer ConversionWriter) *Service {
	return &Service{
		report: report,
		writer: writer,
		now:    time.Now,
	}
}

// Sync pulls the report over two windows, recent purchases and recently
// completed orders, and upserts everything. A single bad record is skipped,
// never the run.
func (s *Service) Sync(ctx context.Context, purchaseDays, completeDays int) (SyncResult, error) {
	if err := ctx.Err(); err != nil {
		return SyncResult{}, fmt.Errorf("context error: %w", err)
	}
	if purchaseDays <= 0 {
		purchaseDays = 1
	}
	if completeDays <= 0 {
		completeDays = 7
	}

	now := s.now()
	var res SyncResult

	queries := []ReportQuery{
		{PurchaseStart: now.AddDate(0, 0, -purchaseDays), PurchaseEnd: now, Limit: 500},
		{CompleteStart: now.AddDate(0, 0, -completeDays), CompleteEnd: now, Limit: 500},
	}

	for _, q := range queries {
		records, err := s.report.FetchConversions(ctx, q)
		if err != nil {
			return res, fmt.Errorf("fetch conversion report: %w", err)
		}
		for _, rec := range records {
			if rec.ConversionID == 0 {
				res.Skipped++
				continue
			}
			if err := s.storeRecord(ctx, rec, &res); err != nil {
				logger.Warn("conversion record skipped", "conversion_id", rec.ConversionID, "error", err)
				res.Skipped++
			}
		}
	}

	metrics.ConversionSyncsTotal.Inc()
	logger.Info("conversion sync done",
		"conversions", res.Conversions, "items", res.Items, "skipped", res.Skipped)
	return res, nil
}

func (s *Service) storeRecord(ctx context.Context, rec ConversionRecord, res *SyncResult) error {
	conv := domain.Conversion{
		ConversionID:    rec.ConversionID,
		PurchaseTime:    rec.PurchaseTime,
		ClickTime:       rec.ClickTime,
		UTMContent:      rec.UTMContent,
		NetCommission:   ParseMoney(rec.NetCommission),
		TotalCommission: ParseMoney(rec.TotalCommission),
		CampaignType:    rec.CampaignType,
	}
	if err := s.writer.UpsertConversion(ctx, conv); err != nil {
		return fmt.Errorf("upsert conversion: %w", err)
	}
	res.Conversions++

	for _, it := range rec.Items {
		if it.ItemID == 0 || it.OrderID == "" {
			res.Skipped++
			continue
		}
		item := domain.ConversionItem{
			ConversionID: rec.ConversionID,
			OrderID:      it.OrderID,
			ItemID:       it.ItemID,
			ItemName:     it.ItemName,
			Qty:          it.Qty,
			Commission:   ParseMoney(it.Commission),
			ShopID:       it.ShopID,
			ShopName:     it.ShopName,
			Category:     it.Category,
		}
		if err := s.writer.UpsertConversionItem(ctx, item); err != nil {
			logger.Warn("conversion item skipped",
				"conversion_id", rec.ConversionID, "order_id", it.OrderID, "item_id", it.ItemID, "error", err)
			res.Skipped++
			continue
		}
		res.Items++
	}
	return nil
}

var moneyStripRe = regexp.MustCompile(`[^0-9,.]+`)

// ParseMoney handles "R$ 1.234,56", "1,234.56", and plain "12.5". Anything
// unparsable is zero.
func ParseMoney(s string) float64 {
	if s == "" {
		return 0
	}
	t := moneyStripRe.ReplaceAllString(s, "")
	if t == "" {
		return 0
	}

	// The separator that appears last is the decimal mark.
	lastComma := strings.LastIndex(t, ",")
	lastDot := strings.LastIndex(t, ".")
	switch {
	case lastComma > lastDot:
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	case lastDot > lastComma:
		t = strings.ReplaceAll(t, ",", "")
	}

	parts := strings.Split(t, ".")
	if len(parts) > 2 {
		t = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}

	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0
	}
	return f
}
