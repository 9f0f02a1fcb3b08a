package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/parser"
)

// Selector inventory for the target's current markup. Containers are
// tried in order and the first non-empty match wins.
var (
	domContainerSelectors = []string{"[data-review-id]", ".jftiEf", ".MyEned", ".fontBodyMedium"}
	domNameSelectors      = []string{".d4r55", ".X43Kjb", ".TSUbDb", ".WNxzHc", "a[data-value]", ".fontBodyMedium a"}
	domTextSelectors      = []string{".wiI7pd", ".MyEned span"}
	domDateSelectors      = []string{".rsqaWe", ".p34Ii"}
)

// DOM extracts review entities straight from the snapshot markup using
// the selector inventory above. It needs no API key and serves as the
// fallback extractor, at the cost of breaking whenever the target ships
// new class names.
type DOM struct {
	logger *slog.Logger
}

// NewDOM builds the selector-based extractor.
func NewDOM(logger *slog.Logger) *DOM {
	if logger == nil {
		logger = slog.Default()
	}
	return &DOM{logger: logger.With(slog.String("component", "extract.dom"))}
}

// Extract parses the snapshot and walks its review containers.
func (d *DOM) Extract(ctx context.Context, snapshot *models.Snapshot) ([]*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.Content))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot markup: %w", err)
	}

	containers := d.containers(doc)
	reviews := make([]*models.Review, 0, containers.Length())
	containers.Each(func(_ int, sel *goquery.Selection) {
		review := extractOne(sel)
		if err := parser.ValidateReview(review); err != nil {
			d.logger.Debug("container rejected", slog.Any("error", err))
			return
		}
		reviews = append(reviews, review)
	})
	return reviews, nil
}

func (d *DOM) containers(doc *goquery.Document) *goquery.Selection {
	for _, query := range domContainerSelectors {
		if sel := doc.Find(query); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Find(domContainerSelectors[0])
}

func extractOne(container *goquery.Selection) *models.Review {
	name := parser.NormalizeReviewerName(firstText(container, domNameSelectors))
	text := parser.NormalizeReviewText(firstText(container, domTextSelectors))
	rating := starRating(container)
	return &models.Review{
		ReviewerName: name,
		Rating:       rating,
		ReviewText:   text,
		ReviewDate:   parser.NormalizeDate(firstText(container, domDateSelectors)),
		Fingerprint:  models.ComputeFingerprint(name, text, rating),
	}
}

// starRating reads the rating from the star widget's aria-label
// ("5 stars", "Rated 4 out of 5").
func starRating(container *goquery.Selection) int {
	rating := 0
	container.Find(`[role="img"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label, ok := sel.Attr("aria-label")
		if !ok || !strings.Contains(strings.ToLower(label), "star") {
			return true
		}
		if n := parser.ParseStarRating(label); n > 0 {
			rating = n
			return false
		}
		return true
	})
	return rating
}

func firstText(container *goquery.Selection, queries []string) string {
	for _, query := range queries {
		found := container.Find(query).First()
		if found.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
	}
	return ""
}
