// Package extract turns captured review-region snapshots into validated
// review entities, either through the Gemini API or directly from the
// markup.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/parser"
)

// rawReview is the shape the extraction service is asked to produce.
type rawReview struct {
	ReviewerName string      `json:"reviewer_name"`
	Rating       ratingValue `json:"rating"`
	ReviewText   string      `json:"review_text"`
	ReviewDate   string      `json:"review_date"`
}

type reviewEnvelope struct {
	Reviews []rawReview `json:"reviews"`
}

// ratingValue tolerates the numeric shapes the model emits: 5, 5.0, "5".
// Unparseable values decode to 0 and fail validation later, so one bad
// rating discards its entity instead of the whole response.
type ratingValue int

func (rv *ratingValue) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*rv = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*rv = 0
		return nil
	}
	*rv = ratingValue(int(f))
	return nil
}

// StripFences removes the markdown code fences the model sometimes wraps
// around its JSON payload.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// ParseReviews decodes an extraction response into validated entities.
// Entities that fail validation are dropped individually; a response that
// cannot be decoded at all is an error so the caller can retry.
func ParseReviews(text string) ([]*models.Review, error) {
	payload := StripFences(text)

	var envelope reviewEnvelope
	err := json.Unmarshal([]byte(payload), &envelope)
	if err != nil || envelope.Reviews == nil {
		var bare []rawReview
		if bareErr := json.Unmarshal([]byte(payload), &bare); bareErr != nil {
			if err == nil {
				err = bareErr
			}
			return nil, fmt.Errorf("decode extraction response: %w", err)
		}
		envelope.Reviews = bare
	}

	reviews := make([]*models.Review, 0, len(envelope.Reviews))
	for _, raw := range envelope.Reviews {
		review := buildReview(raw)
		if parser.ValidateReview(review) != nil {
			continue
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func buildReview(raw rawReview) *models.Review {
	name := parser.NormalizeReviewerName(raw.ReviewerName)
	text := parser.NormalizeReviewText(raw.ReviewText)
	rating := int(raw.Rating)
	return &models.Review{
		ReviewerName: name,
		Rating:       rating,
		ReviewText:   text,
		ReviewDate:   parser.NormalizeDate(raw.ReviewDate),
		Fingerprint:  models.ComputeFingerprint(name, text, rating),
	}
}
