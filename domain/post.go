package domain

import "time"

// CREATE TABLE public.posts (
//     id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     item_id    BIGINT,
//     variant    TEXT,
//     message_id TEXT,
//     posted_at  TIMESTAMPTZ DEFAULT NOW()
// );

// Post records one publish event. Append-only; the most recent row per item
// drives repost cooldown.
type Post struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ItemID    int64     `gorm:"column:item_id;index"`
	Variant   string    `gorm:"column:variant;type:text"`
	MessageID string    `gorm:"column:message_id;type:text"`
	PostedAt  time.Time `gorm:"column:posted_at"`
}

func (Post) TableName() string {
	return "posts"
}
