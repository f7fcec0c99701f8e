package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review carries a snapshot of its author taken at submission time; later
// profile edits are not propagated.
type Review struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	UserEmail    string    `gorm:"size:100" json:"user_email"`
	UserName     string    `gorm:"size:100" json:"user_name"`
	UserNickname string    `gorm:"size:50" json:"user_nickname"`
	UserAvatar   *string   `gorm:"type:text" json:"user_avatar,omitempty"`
	Rating       int       `gorm:"not null;check:rating_range,rating >= 1 AND rating <= 5" json:"rating"`
	Comment      string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReviewStats is the per-author aggregate kept in step with the reviews table.
type ReviewStats struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ReviewCount int64     `gorm:"not null;default:0" json:"review_count"`
	RatingSum   int64     `gorm:"not null;default:0" json:"rating_sum"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
