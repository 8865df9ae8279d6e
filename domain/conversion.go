package domain

import "time"

// CREATE TABLE public.conversions (
//     conversion_id    BIGINT PRIMARY KEY,
//     purchase_time    TIMESTAMPTZ,
//     click_time       TIMESTAMPTZ,
//     utm_content      TEXT,
//     net_commission   NUMERIC,
//     total_commission NUMERIC,
//     campaign_type    TEXT
// );

// Conversion is one commission-bearing conversion event from the affiliate
// report. Rows are append-only facts; a re-sync upserts the same natural key.
type Conversion struct {
	ConversionID    int64      `gorm:"column:conversion_id;primaryKey"`
	PurchaseTime    *time.Time `gorm:"column:purchase_time"`
	ClickTime       *time.Time `gorm:"column:click_time"`
	UTMContent      string     `gorm:"column:utm_content;type:text"`
	NetCommission   float64    `gorm:"column:net_commission;type:numeric"`
	TotalCommission float64    `gorm:"column:total_commission;type:numeric"`
	CampaignType    string     `gorm:"column:campaign_type;type:text"`
}

func (Conversion) TableName() string {
	return "conversions"
}

// CREATE TABLE public.conversion_items (
//     conversion_id   BIGINT,
//     order_id        TEXT,
//     item_id         BIGINT,
//     item_name       TEXT,
//     qty             INTEGER,
//     commission      NUMERIC,
//     shop_id         BIGINT,
//     shop_name       TEXT,
//     category        TEXT,
//     PRIMARY KEY (conversion_id, order_id, item_id)
// );

// ConversionItem is one line item of a conversion, carrying the commission
// amount the EV estimator aggregates.
type ConversionItem struct {
	ConversionID int64   `gorm:"column:conversion_id;primaryKey"`
	OrderID      string  `gorm:"column:order_id;primaryKey;type:text"`
	ItemID       int64   `gorm:"column:item_id;primaryKey;index"`
	ItemName     string  `gorm:"column:item_name;type:text"`
	Qty          int     `gorm:"column:qty"`
	Commission   float64 `gorm:"column:commission;type:numeric"`
	ShopID       int64   `gorm:"column:shop_id"`
	ShopName     string  `gorm:"column:shop_name;type:text;index"`
	Category     string  `gorm:"column:category;type:text;index"`
}

func (ConversionItem) TableName() string {
	return "conversion_items"
}
