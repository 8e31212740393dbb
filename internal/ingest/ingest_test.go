package ingest_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amosov/newsroom/internal/ingest"
	"github.com/amosov/newsroom/internal/models"
)

func rssServer(t *testing.T, items ...string) *httptest.Server {
	t.Helper()
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title><link>http://feed.test</link><description>test</description>`
	for _, item := range items {
		body += item
	}
	body += `</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rssItem(title, link, desc, pubDate string) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><description>%s</description><pubDate>%s</pubDate></item>`,
		title, link, desc, pubDate)
}

func TestFetchRecencyWindow(t *testing.T) {
	// Window of 3 days ending 2024-01-10T00:00:00 puts the cutoff at
	// 2024-01-07T00:00:00.
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	srv := rssServer(t,
		rssItem("fresh", "http://a/1", "s1", "Sun, 07 Jan 2024 00:00:01 +0000"),
		rssItem("boundary", "http://a/2", "s2", "Sun, 07 Jan 2024 00:00:00 +0000"),
		rssItem("stale", "http://a/3", "s3", "Sat, 06 Jan 2024 23:59:59 +0000"),
	)

	f := ingest.New(72*time.Hour, nil)
	got := f.Fetch(context.Background(), []string{srv.URL}, now)

	titles := make([]string, 0, len(got))
	for _, art := range got {
		titles = append(titles, art.Title)
	}
	require.Equal(t, []string{"fresh", "boundary"}, titles)
}

func TestFetchStripsZoneBeforeComparing(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	srv := rssServer(t,
		// 2024-01-07T01:00:01+02:00 is 2024-01-06T23:00:01 UTC, but the
		// naive wall-clock reading lands inside the window.
		rssItem("offset", "http://a/1", "s", "Sun, 07 Jan 2024 01:00:01 +0200"),
	)

	f := ingest.New(72*time.Hour, nil)
	got := f.Fetch(context.Background(), []string{srv.URL}, now)

	require.Len(t, got, 1)
	require.Equal(t, "offset", got[0].Title)
}

func TestFetchDropsUnparseableDates(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	srv := rssServer(t,
		rssItem("undated", "http://a/1", "s", "not a date"),
		rssItem("dated", "http://a/2", "s", "Tue, 09 Jan 2024 12:00:00 +0000"),
	)

	f := ingest.New(72*time.Hour, nil)
	got := f.Fetch(context.Background(), []string{srv.URL}, now)

	require.Len(t, got, 1)
	require.Equal(t, "dated", got[0].Title)
}

func TestFetchFeedFailureDoesNotBlockOthers(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	healthy := rssServer(t,
		rssItem("one", "http://b/1", "s", "Tue, 09 Jan 2024 08:00:00 +0000"),
		rssItem("two", "http://b/2", "s", "Tue, 09 Jan 2024 09:00:00 +0000"),
	)

	f := ingest.New(72*time.Hour, nil)
	got := f.Fetch(context.Background(), []string{broken.URL, healthy.URL}, now)

	require.Len(t, got, 2)
	require.Equal(t, "one", got[0].Title)
	require.Equal(t, "two", got[1].Title)
}

func TestFetchDefaultsAndOriginalDateString(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	srv := rssServer(t,
		rssItem("", "", "", "Tue, 09 Jan 2024 12:00:00 +0000"),
	)

	f := ingest.New(72*time.Hour, nil)
	got := f.Fetch(context.Background(), []string{srv.URL}, now)

	require.Len(t, got, 1)
	require.Equal(t, models.Article{
		Title:     "No Title",
		Link:      "",
		Summary:   "",
		Published: "Tue, 09 Jan 2024 12:00:00 +0000",
	}, got[0])
}

func TestFetchNoFeeds(t *testing.T) {
	f := ingest.New(72*time.Hour, nil)
	require.Empty(t, f.Fetch(context.Background(), nil, time.Now()))
}
