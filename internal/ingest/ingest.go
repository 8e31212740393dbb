package ingest

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/amosov/newsroom/internal/models"
)

// Fetcher pulls RSS/Atom feeds and keeps entries published inside a trailing
// recency window.
type Fetcher struct {
	parser *gofeed.Parser
	window time.Duration
	log    *slog.Logger
}

// New creates a fetcher. window bounds how far back entries may be dated.
func New(window time.Duration, logger *slog.Logger) *Fetcher {
	if window <= 0 {
		window = 72 * time.Hour
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		parser: gofeed.NewParser(),
		window: window,
		log:    logger,
	}
}

// Fetch parses every feed URL and returns the recent entries as articles.
// A feed that fails to fetch or parse is logged and skipped; it never blocks
// the remaining feeds. Entries whose published date cannot be parsed are
// dropped rather than treated as fresh.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, now time.Time) []models.Article {
	cutoff := stripZone(now).Add(-f.window)

	var articles []models.Article
	for _, url := range urls {
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			f.log.Warn("fetch feed", slog.String("url", url), slog.Any("err", err))
			continue
		}

		kept := 0
		for _, item := range feed.Items {
			if item.PublishedParsed == nil {
				continue
			}
			if stripZone(*item.PublishedParsed).Before(cutoff) {
				continue
			}
			articles = append(articles, toArticle(item))
			kept++
		}

		f.log.Debug("feed fetched",
			slog.String("url", url),
			slog.Int("entries", len(feed.Items)),
			slog.Int("kept", kept),
		)
	}

	return articles
}

// stripZone rebuilds the wall-clock reading of t in UTC, discarding the
// source offset. Feeds disagree wildly about zones; comparing naive instants
// matches what their publishers display.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func toArticle(item *gofeed.Item) models.Article {
	title := item.Title
	if title == "" {
		title = "No Title"
	}
	return models.Article{
		Title:     title,
		Link:      item.Link,
		Summary:   item.Description,
		Published: item.Published,
	}
}
