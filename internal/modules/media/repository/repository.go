package repository

import (
	"context"
	"errors"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MediaRepository interface {
	UpsertVideo(ctx context.Context, video *entity.MainVideo) error
	GetVideo(ctx context.Context) (*entity.MainVideo, error)
	CreateImage(ctx context.Context, image *entity.GalleryImage) error
	ListImages(ctx context.Context) ([]entity.GalleryImage, error)
	CreateOrphan(ctx context.Context, orphan *entity.OrphanBlob) error
	ListOrphans(ctx context.Context, limit int) ([]entity.OrphanBlob, error)
	DeleteOrphan(ctx context.Context, id uint) error
}

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

// UpsertVideo overwrites the singleton row in full.
func (r *mediaRepository) UpsertVideo(ctx context.Context, video *entity.MainVideo) error {
	video.ID = entity.MainVideoKey
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"video_id", "url", "updated_at"}),
	}).Create(video).Error
}

func (r *mediaRepository) GetVideo(ctx context.Context) (*entity.MainVideo, error) {
	var video entity.MainVideo
	if err := r.db.WithContext(ctx).Where("id = ?", entity.MainVideoKey).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (r *mediaRepository) CreateImage(ctx context.Context, image *entity.GalleryImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *mediaRepository) ListImages(ctx context.Context) ([]entity.GalleryImage, error) {
	var images []entity.GalleryImage
	if err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Order("id DESC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *mediaRepository) CreateOrphan(ctx context.Context, orphan *entity.OrphanBlob) error {
	return r.db.WithContext(ctx).Create(orphan).Error
}

func (r *mediaRepository) ListOrphans(ctx context.Context, limit int) ([]entity.OrphanBlob, error) {
	var orphans []entity.OrphanBlob
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orphans).Error; err != nil {
		return nil, err
	}
	return orphans, nil
}

func (r *mediaRepository) DeleteOrphan(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.OrphanBlob{}, id).Error
}
