package handler

import (
	"net/http"

	"anoa.com/communityreview/internal/modules/review/dto"
	review "anoa.com/communityreview/internal/modules/review/service"
	"anoa.com/communityreview/pkg/apperror"
	"anoa.com/communityreview/pkg/response"
	"anoa.com/communityreview/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	reviewService review.ReviewService
}

func NewReviewHandler(reviewService review.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviewService.LoadReviews(c.Request.Context(), response.OptionalUserID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reviews})
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	var input dto.SubmitReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	reviews, err := h.reviewService.SubmitReview(c.Request.Context(), response.OptionalUserID(c), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "review posted", "data": reviews})
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.Invalid("invalid review id"))
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}

func (h *ReviewHandler) GetStats(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	stats, err := h.reviewService.Stats(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ReviewHandler) SearchReviews(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	hits, err := h.reviewService.Search(c.Request.Context(), query.Q, query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hits})
}
