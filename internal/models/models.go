package models

// Paths of the JSON documents kept in the backing repository.
const (
	NewsPath  = "data/news_data.json"
	FeedsPath = "data/feeds.json"
	StatsPath = "data/stats.json"
)

// DateFormat is the ISO date used as the key of archive and stats entries.
const DateFormat = "2006-01-02"

// Article is one feed entry that survived the recency filter. Published keeps
// the source-supplied date string for display; the parsed instant is only
// used during filtering and never stored.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
}

// Topic groups related articles inside a daily report.
type Topic struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Links   []string `json:"links"`
}

// Report is the briefing generated for a single day.
type Report struct {
	Briefing string  `json:"briefing"`
	Topics   []Topic `json:"topics"`
}

// Archive maps ISO dates to daily reports. Keys accumulate over time;
// nothing prunes them.
type Archive map[string]Report

// Stats maps ISO dates to visit counts.
type Stats map[string]int
