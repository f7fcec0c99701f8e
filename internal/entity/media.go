package entity

import "time"

// MainVideoKey addresses the single main video row.
const MainVideoKey = "main"

type MainVideo struct {
	ID        string    `gorm:"size:20;primaryKey" json:"-"`
	VideoID   string    `gorm:"size:11;not null" json:"video_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GalleryImage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ImageID     string    `gorm:"size:255;not null" json:"image_id"`
	ImageURL    string    `gorm:"type:text;not null" json:"image_url"`
	ContentType string    `gorm:"size:50" json:"content_type"`
	UploadedAt  time.Time `gorm:"index" json:"uploaded_at"`
}

// OrphanBlob records an uploaded blob that has no metadata row and could not
// be deleted right away.
type OrphanBlob struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
