package service

import (
	"context"
	"encoding/json"
	"html"
	"strings"

	"anoa.com/communityreview/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

const reviewsIndex = "reviews"

type ReviewDocument struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	UserNickname string `json:"user_nickname"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	CreatedAt    int64  `json:"created_at"`
}

type ReviewIndex interface {
	IndexReview(ctx context.Context, review *entity.Review) error
	DeleteReview(ctx context.Context, id string) error
	SearchReviews(ctx context.Context, query string, limit int) ([]ReviewDocument, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

// NewMeiliSearchService returns an index that silently does nothing when
// client is nil, so the site runs without a search server.
func NewMeiliSearchService(client meilisearch.ServiceManager) ReviewIndex {
	if client == nil {
		return disabledIndex{}
	}

	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"user_id", "rating"}
	if _, err := s.client.Index(reviewsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("failed to update reviews filterable attributes")
	}

	sortable := []string{"created_at", "rating"}
	if _, err := s.client.Index(reviewsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Warn().Err(err).Msg("failed to update reviews sortable attributes")
	}

	log.Info().Msg("meilisearch indexes initialized")
}

// cleanForIndex strips any markup a reviewer typed so only words are indexed.
func (s *meiliSearchService) cleanForIndex(content string) string {
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</p>", " ")

	clean := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(clean), " ")
}

func (s *meiliSearchService) IndexReview(ctx context.Context, review *entity.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := ReviewDocument{
		ID:           review.ID.String(),
		UserID:       review.UserID.String(),
		UserName:     s.cleanForIndex(review.UserName),
		UserNickname: s.cleanForIndex(review.UserNickname),
		Rating:       review.Rating,
		Comment:      s.cleanForIndex(review.Comment),
		CreatedAt:    review.CreatedAt.Unix(),
	}

	task, err := s.client.Index(reviewsIndex).AddDocuments([]ReviewDocument{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Debug().Str("review_id", doc.ID).Int64("task_uid", task.TaskUID).Msg("indexed review")
	return nil
}

func (s *meiliSearchService) DeleteReview(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.Index(reviewsIndex).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) SearchReviews(ctx context.Context, query string, limit int) ([]ReviewDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	raw, err := s.client.Index(reviewsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
		Sort:  []string{"created_at:desc"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Hits []ReviewDocument `json:"hits"`
	}
	if raw != nil {
		if err := json.Unmarshal(*raw, &result); err != nil {
			return nil, err
		}
	}
	return result.Hits, nil
}

func strPtr(s string) *string {
	return &s
}

type disabledIndex struct{}

func (disabledIndex) IndexReview(context.Context, *entity.Review) error { return nil }

func (disabledIndex) DeleteReview(context.Context, string) error { return nil }

func (disabledIndex) SearchReviews(context.Context, string, int) ([]ReviewDocument, error) {
	return []ReviewDocument{}, nil
}
