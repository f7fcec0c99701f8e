package dto

import (
	"time"

	"anoa.com/communityreview/internal/entity"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type SubmitReviewInput struct {
	Rating  int    `json:"rating" form:"rating"`
	Comment string `json:"comment" form:"comment"`
}

// Validate rejects an unset rating (zero) together with anything outside
// the star range. The comment is kept exactly as typed.
func (r SubmitReviewInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating,
			validation.Required.Error("please select a star rating"),
			validation.Min(entity.MinRating).Error("rating must be between 1 and 5"),
			validation.Max(entity.MaxRating).Error("rating must be between 1 and 5"),
		),
		validation.Field(&r.Comment,
			validation.Required.Error("please write a comment"),
		),
	)
}

type Author struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Initial   string    `json:"initial"`
}

type ReviewView struct {
	ID        uuid.UUID `json:"id"`
	Author    Author    `json:"author"`
	Rating    int       `json:"rating"`
	Stars     string    `json:"stars"`
	Comment   string    `json:"comment"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	CanDelete bool      `json:"can_delete"`
}

type Stats struct {
	ReviewCount   int64  `json:"review_count"`
	AverageRating string `json:"average_rating"`
}

type SearchQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
