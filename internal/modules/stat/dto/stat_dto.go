package dto

// SiteStats is the community summary shown on the landing page.
type SiteStats struct {
	TotalMembers  int64  `json:"total_members"`
	TotalReviews  int64  `json:"total_reviews"`
	AverageRating string `json:"average_rating"`
}
