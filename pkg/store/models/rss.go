package models

import "time"

// RSSFeed is a subscribed news source. Fetching is performed by an
// external collaborator; the core only reads persisted items.
type RSSFeed struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string     `gorm:"not null;size:128" json:"title"`
	URL           string     `gorm:"uniqueIndex;not null;size:512" json:"url"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for RSSFeed.
func (RSSFeed) TableName() string {
	return "rss_feeds"
}

// RSSItem is one persisted entry of a feed, unique per (feed, link).
type RSSItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FeedID      int64     `gorm:"uniqueIndex:idx_feed_link;not null" json:"feed_id"`
	Title       string    `gorm:"not null;size:255" json:"title"`
	Link        string    `gorm:"uniqueIndex:idx_feed_link;not null;size:512" json:"link"`
	Description string    `json:"description,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for RSSItem.
func (RSSItem) TableName() string {
	return "rss_items"
}

// RSSReadPosition is the per-user high-water mark of the largest item id
// considered read within a feed, mirroring the board ReadPosition. A
// missing row means nothing has been read.
type RSSReadPosition struct {
	UserID         int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FeedID         int64     `gorm:"primaryKey;autoIncrement:false" json:"feed_id"`
	LastReadItemID int64     `gorm:"not null;default:0" json:"last_read_item_id"`
	LastReadAt     time.Time `json:"last_read_at"`
}

// TableName returns the table name for RSSReadPosition.
func (RSSReadPosition) TableName() string {
	return "rss_read_positions"
}
