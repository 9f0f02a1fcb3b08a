package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
)

const geminiPrompt = `Extract Google Maps reviews from this HTML. Return ONLY valid JSON:
{"reviews": [{"reviewer_name": "name", "rating": 5, "review_text": "text", "review_date": "date"}]}

HTML: `

// Gemini extracts review entities by sending snapshot markup to the
// Gemini API with a fixed JSON schema prompt.
type Gemini struct {
	client     *genai.Client
	model      string
	limiter    *rate.Limiter
	attempts   int
	backoff    time.Duration
	backoffMax time.Duration
	charLimit  int
	logger     *slog.Logger
}

// NewGemini builds the extraction client. httpClient overrides the
// transport, which lets tests serve canned responses; pass nil to use the
// default.
func NewGemini(ctx context.Context, cfg *config.Config, limiter *rate.Limiter, logger *slog.Logger, httpClient *http.Client) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini extractor requires an API key")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:     client,
		model:      cfg.Model,
		limiter:    limiter,
		attempts:   cfg.ExtractAttempts,
		backoff:    cfg.ExtractBackoff,
		backoffMax: cfg.ExtractBackoffMax,
		charLimit:  cfg.PromptCharLimit,
		logger:     logger.With(slog.String("component", "extract.gemini")),
	}, nil
}

// Extract sends one snapshot to the model and decodes the structured
// response. Transient service failures and undecodable responses are
// retried with exponential backoff; attempts are bounded and tracked per
// call, never shared across snapshots.
func (g *Gemini) Extract(ctx context.Context, snapshot *models.Snapshot) ([]*models.Review, error) {
	prompt := g.buildPrompt(snapshot.Content)

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if attempt > 1 {
			delay := g.backoff * time.Duration(1<<(attempt-2))
			if g.backoffMax > 0 && delay > g.backoffMax {
				delay = g.backoffMax
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		text, err := g.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			g.logger.Warn("extraction call failed",
				slog.Int("attempt", attempt),
				slog.Int("step", snapshot.Step),
				slog.Any("error", err))
			continue
		}

		reviews, err := ParseReviews(text)
		if err != nil {
			lastErr = err
			g.logger.Warn("extraction response unusable",
				slog.Int("attempt", attempt),
				slog.Int("step", snapshot.Step),
				slog.Any("error", err))
			continue
		}
		return reviews, nil
	}
	return nil, fmt.Errorf("extraction failed after %d attempts: %w", g.attempts, lastErr)
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.1)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// buildPrompt appends the snapshot markup, truncated on a rune boundary so
// oversized captures fit the model's input window.
func (g *Gemini) buildPrompt(html string) string {
	if len(html) > g.charLimit {
		cut := g.charLimit
		for cut > 0 && !utf8.RuneStart(html[cut]) {
			cut--
		}
		html = html[:cut]
	}
	return geminiPrompt + html
}
