package models

import (
	"time"
)

// Job is one posting scraped from an external job board.
// JobURL is the natural key: re-scraping the same posting updates the
// existing row in place instead of inserting a duplicate.
type Job struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title          string `gorm:"not null" json:"title"`
	Company        string `gorm:"not null" json:"company"`
	Location       string `json:"location"`
	Experience     string `json:"experience"`
	Education      string `json:"education"`
	SalaryRange    string `json:"salary_range"`
	JobURL         string `gorm:"uniqueIndex;size:512;not null" json:"job_url"`
	SourceWebsite  string `json:"source_website"`
	PostingDate    string `json:"posting_date"`
	Industry       string `json:"industry"`
	JobDescription string `gorm:"type:text" json:"job_description"`

	// Workflow state owned by the user, never written by the scraper.
	Status string `gorm:"default:'unfollowed'" json:"status"`
}

// IngestMeta is a key/value table holding a single logical row
// (meta_key = "last_update"): the timestamp of the most recent successful
// scrape write, shown to the frontend as data freshness.
type IngestMeta struct {
	MetaKey   string `gorm:"primaryKey;size:50"`
	MetaValue string `gorm:"size:255"`
}

// LastUpdateKey is the meta_key under which ingestion freshness is stored.
const LastUpdateKey = "last_update"

// TimeFormat is the wire format for the freshness timestamp.
const TimeFormat = "2006-01-02 15:04:05"
