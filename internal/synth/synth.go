package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/amosov/newsroom/internal/models"
)

// Provider produces a completion for a prompt. Implementations wrap a
// text-generation API; tests substitute a stub.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// maxPromptArticles caps how many articles ride into a single prompt. The
// earliest-indexed articles win; there is no relevance ranking.
const maxPromptArticles = 50

const promptTemplate = `You are an expert IT journalist. Analyze the following news articles collected on %[1]s.

Tasks:
1. Summarize the overall IT trend/briefing for today.
2. Group similar articles into topics.
3. For each topic, provide a title, a detailed analysis content, and a list of related original links.

Output strictly in the following JSON format (no markdown code blocks, just raw JSON):
{
  "%[1]s": {
    "briefing": "Overall summary of today's IT news trends...",
    "topics": [
      {
        "title": "Topic Title",
        "content": "Detailed analysis of this topic...",
        "links": ["http://link1...", "http://link2..."]
      }
    ]
  }
}

Articles:
%[2]s`

// Synthesizer turns fetched articles into a dated briefing via a text
// completion provider.
type Synthesizer struct {
	provider Provider
	log      *slog.Logger
}

// New wires a provider into a synthesizer.
func New(provider Provider, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synthesizer{provider: provider, log: logger}
}

// Synthesize asks the provider for a briefing covering the articles. An
// empty article list yields (nil, nil) without touching the provider. The
// result maps today's date to the generated report; a transport or parse
// failure surfaces as an error and nothing is merged.
func (s *Synthesizer) Synthesize(ctx context.Context, articles []models.Article, now time.Time) (models.Archive, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	prompt := BuildPrompt(articles, now)
	s.log.Debug("prompt built",
		slog.Int("articles", min(len(articles), maxPromptArticles)),
		slog.Int("prompt_len", len(prompt)),
	)

	raw, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	archive, err := ParseReport(raw)
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	return archive, nil
}

// BuildPrompt renders the synthesis prompt, embedding at most the first
// maxPromptArticles articles as enumerated title/summary/link/date blocks.
func BuildPrompt(articles []models.Article, now time.Time) string {
	if len(articles) > maxPromptArticles {
		articles = articles[:maxPromptArticles]
	}

	var b strings.Builder
	for i, art := range articles {
		fmt.Fprintf(&b, "%d. Title: %s\nSummary: %s\nLink: %s\nDate: %s\n\n",
			i+1, art.Title, art.Summary, art.Link, art.Published)
	}

	return fmt.Sprintf(promptTemplate, now.Format(models.DateFormat), b.String())
}

// ParseReport decodes a provider reply into an archive fragment, tolerating
// a fenced code block around the JSON body.
func ParseReport(raw string) (models.Archive, error) {
	var archive models.Archive
	if err := json.Unmarshal([]byte(StripFences(raw)), &archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// StripFences removes a leading ```json or ``` marker and a trailing ```
// from a reply. Plain JSON passes through unchanged.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
