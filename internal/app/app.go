package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/amosov/newsroom/internal/models"
)

// ErrNoArticles reports that every configured feed came back empty inside
// the recency window, so there was nothing to synthesize or merge.
var ErrNoArticles = errors.New("no recent articles")

// ErrFeedExists reports that an added feed URL is already configured.
var ErrFeedExists = errors.New("feed already configured")

// DocumentStore is the persistence port: JSON documents addressed by
// path-like keys, with an explicit "absent" outcome on load.
type DocumentStore interface {
	Load(ctx context.Context, path string, v any) (bool, error)
	Save(ctx context.Context, path string, v any, message string) error
	List(ctx context.Context, dir string) ([]string, error)
}

// Ingester fetches recent articles from a set of feed URLs.
type Ingester interface {
	Fetch(ctx context.Context, urls []string, now time.Time) []models.Article
}

// Synthesizer produces a dated briefing from articles. An empty article list
// yields (nil, nil).
type Synthesizer interface {
	Synthesize(ctx context.Context, articles []models.Article, now time.Time) (models.Archive, error)
}

// Service orchestrates the load -> ingest -> synthesize -> merge -> save
// cycle and the feed/stats bookkeeping around it. All calls are sequential;
// nothing here guards against a second Service racing on the same documents.
type Service struct {
	store  DocumentStore
	ingest Ingester
	synth  Synthesizer
	now    func() time.Time
	log    *slog.Logger
}

// New wires the ports into a service. A nil clock defaults to time.Now.
func New(store DocumentStore, ingest Ingester, synth Synthesizer, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, ingest: ingest, synth: synth, now: now, log: logger}
}

// State is everything the dashboard renders from.
type State struct {
	News  models.Archive
	Stats models.Stats
	Feeds []string
}

// LoadState reads the three documents, substituting empty defaults for any
// that do not exist yet.
func (s *Service) LoadState(ctx context.Context) (*State, error) {
	state := &State{News: models.Archive{}, Stats: models.Stats{}}

	if _, err := s.store.Load(ctx, models.NewsPath, &state.News); err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}
	if _, err := s.store.Load(ctx, models.StatsPath, &state.Stats); err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	if _, err := s.store.Load(ctx, models.FeedsPath, &state.Feeds); err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}

	return state, nil
}

// Analyze runs one full cycle: fetch the configured feeds, synthesize a
// briefing, merge it into the archive, and save the archive. It returns the
// number of articles handed to the synthesizer. ErrNoArticles means the run
// had nothing to work with; the archive is left untouched.
func (s *Service) Analyze(ctx context.Context) (int, error) {
	var feeds []string
	if _, err := s.store.Load(ctx, models.FeedsPath, &feeds); err != nil {
		return 0, fmt.Errorf("load feeds: %w", err)
	}

	now := s.now()
	articles := s.ingest.Fetch(ctx, feeds, now)
	if len(articles) == 0 {
		return 0, ErrNoArticles
	}
	s.log.Info("articles fetched", slog.Int("count", len(articles)), slog.Int("feeds", len(feeds)))

	result, err := s.synth.Synthesize(ctx, articles, now)
	if err != nil {
		return len(articles), fmt.Errorf("synthesize: %w", err)
	}
	if len(result) == 0 {
		return len(articles), ErrNoArticles
	}

	news := models.Archive{}
	if _, err := s.store.Load(ctx, models.NewsPath, &news); err != nil {
		return len(articles), fmt.Errorf("load news: %w", err)
	}
	for date, report := range result {
		news[date] = report
	}

	if err := s.store.Save(ctx, models.NewsPath, news, "Update news data"); err != nil {
		return len(articles), fmt.Errorf("save news: %w", err)
	}

	return len(articles), nil
}

// AddFeed appends a feed URL to the list, deduplicated by exact string
// match, and saves it.
func (s *Service) AddFeed(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty feed url")
	}

	var feeds []string
	if _, err := s.store.Load(ctx, models.FeedsPath, &feeds); err != nil {
		return fmt.Errorf("load feeds: %w", err)
	}
	if slices.Contains(feeds, url) {
		return ErrFeedExists
	}

	feeds = append(feeds, url)
	if err := s.store.Save(ctx, models.FeedsPath, feeds, "Update feeds list"); err != nil {
		return fmt.Errorf("save feeds: %w", err)
	}
	return nil
}

// RemoveFeed deletes a feed URL from the list. Removing an unknown URL is a
// no-op.
func (s *Service) RemoveFeed(ctx context.Context, url string) error {
	var feeds []string
	if _, err := s.store.Load(ctx, models.FeedsPath, &feeds); err != nil {
		return fmt.Errorf("load feeds: %w", err)
	}

	idx := slices.Index(feeds, url)
	if idx < 0 {
		return nil
	}
	feeds = slices.Delete(feeds, idx, idx+1)

	if err := s.store.Save(ctx, models.FeedsPath, feeds, "Update feeds list"); err != nil {
		return fmt.Errorf("save feeds: %w", err)
	}
	return nil
}

// RecordVisit bumps today's visit counter and saves the stats document. The
// caller decides when a session has already been counted; this method always
// increments.
func (s *Service) RecordVisit(ctx context.Context) error {
	stats := models.Stats{}
	if _, err := s.store.Load(ctx, models.StatsPath, &stats); err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	today := s.now().Format(models.DateFormat)
	updated := Increment(stats, today)

	if err := s.store.Save(ctx, models.StatsPath, updated, "Update stats for "+today); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// ListDocuments returns the paths of the stored documents.
func (s *Service) ListDocuments(ctx context.Context) ([]string, error) {
	return s.store.List(ctx, "data")
}

// Increment returns a copy of stats with the counter for day bumped by one.
// The input map is left unchanged.
func Increment(stats models.Stats, day string) models.Stats {
	out := make(models.Stats, len(stats)+1)
	for k, v := range stats {
		out[k] = v
	}
	out[day]++
	return out
}
