package dto

import "time"

type UploadVideoInput struct {
	URL string `json:"url" form:"url" binding:"required"`
}

type VideoView struct {
	VideoID   string    `json:"video_id"`
	URL       string    `json:"url"`
	EmbedURL  string    `json:"embed_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GalleryImageView struct {
	ID          uint      `json:"id"`
	ImageID     string    `json:"image_id"`
	ImageURL    string    `json:"image_url"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// UploadReport describes a gallery batch. Files after Failed were not tried.
type UploadReport struct {
	Uploaded []GalleryImageView `json:"uploaded"`
	Failed   string             `json:"failed,omitempty"`
	Error    string             `json:"error,omitempty"`
}
