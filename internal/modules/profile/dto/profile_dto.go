package dto

import "github.com/google/uuid"

type AdminControls struct {
	Video         bool `json:"video"`
	Gallery       bool `json:"gallery"`
	DeleteReviews bool `json:"delete_reviews"`
}

// ProfileView is everything the header and profile panel show.
type ProfileView struct {
	UserID        uuid.UUID     `json:"user_id"`
	AvatarURL     *string       `json:"avatar_url,omitempty"`
	Initial       string        `json:"initial"`
	FullName      string        `json:"full_name"`
	Nickname      string        `json:"nickname"`
	JoinYear      int           `json:"join_year"`
	ReviewEmail   string        `json:"review_email"`
	ReviewCount   int64         `json:"review_count"`
	AverageRating string        `json:"average_rating"`
	IsAdmin       bool          `json:"is_admin"`
	AdminControls AdminControls `json:"admin_controls"`
}
