package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/communityreview/internal/modules/review/dto"
	search "anoa.com/communityreview/internal/modules/search/service"
	"anoa.com/communityreview/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	deleted []uuid.UUID
	viewer  *uuid.UUID
}

func (s *stubService) SubmitReview(_ context.Context, userID *uuid.UUID, input dto.SubmitReviewInput) ([]dto.ReviewView, error) {
	if userID == nil {
		return nil, apperror.ErrUnauthorized
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperror.Invalid("rating must be between 1 and 5")
	}
	return []dto.ReviewView{{Rating: input.Rating, Comment: input.Comment}}, nil
}

func (s *stubService) LoadReviews(_ context.Context, viewer *uuid.UUID) ([]dto.ReviewView, error) {
	s.viewer = viewer
	return []dto.ReviewView{{Stars: "★★★★☆"}}, nil
}

func (s *stubService) DeleteReview(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubService) Stats(context.Context, uuid.UUID) (*dto.Stats, error) {
	return &dto.Stats{AverageRating: "0.0"}, nil
}

func (s *stubService) Search(context.Context, string, int) ([]search.ReviewDocument, error) {
	return nil, nil
}

func setupRouter(svc *stubService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	h := NewReviewHandler(svc)
	r.GET("/reviews", h.ListReviews)
	r.POST("/reviews", h.SubmitReview)
	r.DELETE("/reviews/:id", h.DeleteReview)
	r.GET("/reviews/search", h.SearchReviews)
	return r
}

func TestSubmitReviewHandler(t *testing.T) {
	svc := &stubService{}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(`{"rating":4,"comment":"nice"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc, "").ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(`{"rating":9,"comment":"nice"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc, uuid.NewString()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "rating must be between 1 and 5")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(`{"rating":4,"comment":"nice"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc, uuid.NewString()).ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data []dto.ReviewView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "nice", body.Data[0].Comment)
}

func TestListReviewsPassesViewer(t *testing.T) {
	svc := &stubService{}
	viewer := uuid.New()

	w := httptest.NewRecorder()
	setupRouter(svc, viewer.String()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.viewer)
	assert.Equal(t, viewer, *svc.viewer)

	w = httptest.NewRecorder()
	setupRouter(svc, "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.viewer)
}

func TestDeleteReviewHandler(t *testing.T) {
	svc := &stubService{}
	id := uuid.New()

	w := httptest.NewRecorder()
	setupRouter(svc, uuid.NewString()).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/reviews/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	setupRouter(svc, uuid.NewString()).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/reviews/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{id}, svc.deleted)
}

func TestSearchRequiresQuery(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(&stubService{}, uuid.NewString()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
