package shopee

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"promoHunter/business/conversions"
	"promoHunter/business/curation"
	"promoHunter/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const graphqlPath = "/graphql"

// Auth modes in the order they are attempted. The affiliate API changed its
// signature base string across versions; on an invalid-signature response the
// client rotates to the next mode and remembers the one that worked.
const (
	authModePayload = "v2_payload"
	authModePath    = "v3_path"
	authModeMinimal = "v1_min"
)

var authModes = []string{authModePayload, authModePath, authModeMinimal}

type ShopeeConfig struct {
	PartnerID  string
	APIKey     string
	GraphQLURL string
}

// ShopeeRepository talks to the affiliate GraphQL API. It implements the
// offer feed and the conversion report source.
type ShopeeRepository struct {
	cfg          ShopeeConfig
	client       *resty.Client
	lastAuthMode string
	now          func() time.Time
}

func NewShopeeRepository(cfg ShopeeConfig) *ShopeeRepository {
	client := resty.New().
		SetTimeout(20*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(800*time.Millisecond).
		SetHeader("User-Agent", "PromoHunterBot/1.0 (+promo-hunter)").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code == 429 || code >= 500
		})

	return &ShopeeRepository{
		cfg:    cfg,
		client: client,
		now:    time.Now,
	}
}

// ---- auth ----

func (r *ShopeeRepository) authHeader(payload []byte, mode string, ts int64) (string, error) {
	var base string
	switch mode {
	case authModePayload:
		base = fmt.Sprintf("%s%d%s%s", r.cfg.PartnerID, ts, payload, r.cfg.APIKey)
	case authModePath:
		base = fmt.Sprintf("%s%d%s%s%s", r.cfg.PartnerID, ts, graphqlPath, payload, r.cfg.APIKey)
	case authModeMinimal:
		base = fmt.Sprintf("%s%d%s", r.cfg.PartnerID, ts, r.cfg.APIKey)
	default:
		return "", fmt.Errorf("unknown auth mode: %s", mode)
	}

	sum := sha256.Sum256([]byte(base))
	sign := hex.EncodeToString(sum[:])
	return fmt.Sprintf("SHA256 Credential=%s, Timestamp=%d, Signature=%s", r.cfg.PartnerID, ts, sign), nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func invalidSignature(errs []graphqlError) bool {
	for _, e := range errs {
		if e.Message == "Invalid Signature" || e.Message == "Invalid Authorization Header" {
			return true
		}
	}
	return false
}

// postGraphQL sends the query, rotating auth modes on signature rejections.
func (r *ShopeeRepository) postGraphQL(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	modes := make([]string, 0, len(authModes))
	if r.lastAuthMode != "" {
		modes = append(modes, r.lastAuthMode)
	}
	for _, m := range authModes {
		if m != r.lastAuthMode {
			modes = append(modes, m)
		}
	}

	for _, mode := range modes {
		header, err := r.authHeader(body, mode, r.now().Unix())
		if err != nil {
			return nil, err
		}

		resp, err := r.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("Authorization", header).
			SetBody(body).
			Post(r.cfg.GraphQLURL)
		if err != nil {
			return nil, fmt.Errorf("graphql request failed: %w", err)
		}

		if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
			logger.Warn("feed auth rejected, rotating signature mode", "mode", mode, "status", resp.StatusCode())
			continue
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("graphql returned status %d", resp.StatusCode())
		}

		var envelope graphqlEnvelope
		if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
			return nil, fmt.Errorf("decode graphql response: %w", err)
		}

		if len(envelope.Errors) > 0 {
			if invalidSignature(envelope.Errors) {
				logger.Warn("feed rejected signature, rotating mode", "mode", mode)
				continue
			}
			return nil, fmt.Errorf("graphql errors: %s", envelope.Errors[0].Message)
		}

		r.lastAuthMode = mode
		return envelope.Data, nil
	}

	return nil, fmt.Errorf("feed authentication failed: every signature mode was rejected")
}

// ---- offer search ----

const offerFields = `
itemId
name
price
priceMin
priceMax
discount
historicalSold
shopId
shopName
rating
category
url`

const searchQuery = `
query Search($keyword: String!, $offset: Int!, $limit: Int!) {
  itemSearch(keyword: $keyword, offset: $offset, limit: $limit) {
    totalCount
    items {` + offerFields + `
    }
  }
}`

const shopQuery = `
query ShopItems($shopId: Long!, $offset: Int!, $limit: Int!) {
  itemSearchByShop(shopId: $shopId, offset: $offset, limit: $limit) {
    totalCount
    items {` + offerFields + `
    }
  }
}`

type offerNode struct {
	ItemID         int64       `json:"itemId"`
	Name           string      `json:"name"`
	Price          json.Number `json:"price"`
	PriceMin       json.Number `json:"priceMin"`
	PriceMax       json.Number `json:"priceMax"`
	Discount       json.Number `json:"discount"`
	HistoricalSold int64       `json:"historicalSold"`
	ShopID         int64       `json:"shopId"`
	ShopName       string      `json:"shopName"`
	Rating         json.Number `json:"rating"`
	Category       string      `json:"category"`
	URL            string      `json:"url"`
}

type offerBlock struct {
	TotalCount int         `json:"totalCount"`
	Items      []offerNode `json:"items"`
}

func (r *ShopeeRepository) SearchByKeyword(ctx context.Context, keyword string, page, limit int) ([]curation.RawOffer, error) {
	data, err := r.postGraphQL(ctx, searchQuery, map[string]any{
		"keyword": keyword,
		"offset":  (page - 1) * limit,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search %q: %w", keyword, err)
	}

	var payload struct {
		ItemSearch offerBlock `json:"itemSearch"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode keyword search: %w", err)
	}

	return toRawOffers(payload.ItemSearch.Items), nil
}

func (r *ShopeeRepository) SearchByShop(ctx context.Context, shopID int64, page, limit int) ([]curation.RawOffer, error) {
	data, err := r.postGraphQL(ctx, shopQuery, map[string]any{
		"shopId": shopID,
		"offset": (page - 1) * limit,
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("shop search %d: %w", shopID, err)
	}

	var payload struct {
		ItemSearchByShop offerBlock `json:"itemSearchByShop"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode shop search: %w", err)
	}

	return toRawOffers(payload.ItemSearchByShop.Items), nil
}

func toRawOffers(nodes []offerNode) []curation.RawOffer {
	out := make([]curation.RawOffer, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, curation.RawOffer{
			ItemID:         n.ItemID,
			Name:           n.Name,
			Price:          toFloat(n.Price),
			PriceMin:       toFloat(n.PriceMin),
			PriceMax:       toFloat(n.PriceMax),
			Discount:       toFloat(n.Discount),
			HistoricalSold: n.HistoricalSold,
			ShopID:         n.ShopID,
			ShopName:       n.ShopName,
			Rating:         toFloat(n.Rating),
			Category:       n.Category,
			URL:            n.URL,
		})
	}
	return out
}

func toFloat(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// ---- conversion report ----

const conversionQuery = `
query ConversionReport($purchaseStart: Long, $purchaseEnd: Long, $completeStart: Long, $completeEnd: Long, $limit: Int!) {
  conversionReport(purchaseTimeStart: $purchaseStart, purchaseTimeEnd: $purchaseEnd, completeTimeStart: $completeStart, completeTimeEnd: $completeEnd, limit: $limit) {
    nodes {
      conversionId
      purchaseTime
      clickTime
      utmContent
      netCommission
      totalCommission
      campaignType
      orders {
        orderId
        items {
          itemId
          itemName
          qty
          itemTotalCommission
          shopId
          shopName
          globalCategoryLv1Name
        }
      }
    }
  }
}`

type conversionNode struct {
	ConversionID    int64  `json:"conversionId"`
	PurchaseTime    int64  `json:"purchaseTime"`
	ClickTime       int64  `json:"clickTime"`
	UTMContent      string `json:"utmContent"`
	NetCommission   string `json:"netCommission"`
	TotalCommission string `json:"totalCommission"`
	CampaignType    string `json:"campaignType"`
	Orders          []struct {
		OrderID string `json:"orderId"`
		Items   []struct {
			ItemID              int64  `json:"itemId"`
			ItemName            string `json:"itemName"`
			Qty                 int    `json:"qty"`
			ItemTotalCommission string `json:"itemTotalCommission"`
			ShopID              int64  `json:"shopId"`
			ShopName            string `json:"shopName"`
			CategoryLv1         string `json:"globalCategoryLv1Name"`
		} `json:"items"`
	} `json:"orders"`
}

func (r *ShopeeRepository) FetchConversions(ctx context.Context, q conversions.ReportQuery) ([]conversions.ConversionRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 500
	}

	variables := map[string]any{"limit": limit}
	if !q.PurchaseStart.IsZero() {
		variables["purchaseStart"] = q.PurchaseStart.Unix()
		variables["purchaseEnd"] = q.PurchaseEnd.Unix()
	}
	if !q.CompleteStart.IsZero() {
		variables["completeStart"] = q.CompleteStart.Unix()
		variables["completeEnd"] = q.CompleteEnd.Unix()
	}

	data, err := r.postGraphQL(ctx, conversionQuery, variables)
	if err != nil {
		return nil, fmt.Errorf("conversion report: %w", err)
	}

	var payload struct {
		ConversionReport struct {
			Nodes []conversionNode `json:"nodes"`
		} `json:"conversionReport"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode conversion report: %w", err)
	}

	out := make([]conversions.ConversionRecord, 0, len(payload.ConversionReport.Nodes))
	for _, n := range payload.ConversionReport.Nodes {
		rec := conversions.ConversionRecord{
			ConversionID:    n.ConversionID,
			PurchaseTime:    unixOrNil(n.PurchaseTime),
			ClickTime:       unixOrNil(n.ClickTime),
			UTMContent:      n.UTMContent,
			NetCommission:   n.NetCommission,
			TotalCommission: n.TotalCommission,
			CampaignType:    n.CampaignType,
		}
		for _, order := range n.Orders {
			for _, it := range order.Items {
				rec.Items = append(rec.Items, conversions.ConversionRecordItem{
					OrderID:    order.OrderID,
					ItemID:     it.ItemID,
					ItemName:   it.ItemName,
					Qty:        it.Qty,
					Commission: it.ItemTotalCommission,
					ShopID:     it.ShopID,
					ShopName:   it.ShopName,
					Category:   it.CategoryLv1,
				})
			}
		}
		out = append(out, rec)
	}

	return out, nil
}

func unixOrNil(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0)
	return &t
}
