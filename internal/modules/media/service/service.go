package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/internal/modules/media/dto"
	"anoa.com/communityreview/internal/modules/media/repository"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/storage"
	"github.com/rs/zerolog/log"
)

const (
	galleryFolder = "gallery"

	orphanBatchSize = 100
)

type MediaService interface {
	UploadVideo(ctx context.Context, rawURL string) (*dto.VideoView, error)
	LoadVideo(ctx context.Context) (*dto.VideoView, error)
	UploadGalleryImages(ctx context.Context, files []*commonDto.UploadFile) (*dto.UploadReport, error)
	LoadGallery(ctx context.Context) ([]dto.GalleryImageView, error)
	CleanupOrphanBlobs(ctx context.Context) (int, error)
}

type mediaService struct {
	repo         repository.MediaRepository
	imageStorage storage.ImageStorage
	processor    *storage.ImageProcessor
	now          func() time.Time
}

func NewMediaService(repo repository.MediaRepository, imageStorage storage.ImageStorage, processor *storage.ImageProcessor) MediaService {
	return &mediaService{
		repo:         repo,
		imageStorage: imageStorage,
		processor:    processor,
		now:          time.Now,
	}
}

func (s *mediaService) UploadVideo(ctx context.Context, rawURL string) (*dto.VideoView, error) {
	videoID, err := ParseYouTubeID(rawURL)
	if err != nil {
		return nil, err
	}

	video := &entity.MainVideo{
		VideoID:   videoID,
		URL:       rawURL,
		UpdatedAt: s.now(),
	}
	if err := s.repo.UpsertVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	log.Info().Str("video_id", videoID).Msg("main video updated")
	return s.LoadVideo(ctx)
}

// LoadVideo returns nil when no video was ever set.
func (s *mediaService) LoadVideo(ctx context.Context) (*dto.VideoView, error) {
	video, err := s.repo.GetVideo(ctx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &dto.VideoView{
		VideoID:   video.VideoID,
		URL:       video.URL,
		EmbedURL:  EmbedURL(video.VideoID),
		UpdatedAt: video.UpdatedAt,
	}, nil
}

// UploadGalleryImages handles files one after another and stops at the
// first failure. Images registered before the failure stay; the failing
// image never leaves a blob without a row behind, or if it does, the blob
// is recorded for the cleanup worker.
func (s *mediaService) UploadGalleryImages(ctx context.Context, files []*commonDto.UploadFile) (*dto.UploadReport, error) {
	if len(files) == 0 {
		return nil, apperror.Invalid("please select at least one image")
	}
	if s.imageStorage == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "file storage is not configured", apperror.ErrInternal)
	}

	report := &dto.UploadReport{Uploaded: make([]dto.GalleryImageView, 0, len(files))}

	for _, file := range files {
		image, err := s.uploadOne(ctx, file)
		if err != nil {
			report.Failed = file.FileName
			report.Error = err.Error()
			log.Warn().Err(err).Str("file", file.FileName).Int("uploaded", len(report.Uploaded)).Msg("gallery upload aborted")
			return report, err
		}
		report.Uploaded = append(report.Uploaded, toImageView(image))
	}

	log.Info().Int("count", len(report.Uploaded)).Msg("gallery images uploaded")
	return report, nil
}

func (s *mediaService) uploadOne(ctx context.Context, file *commonDto.UploadFile) (*entity.GalleryImage, error) {
	if file == nil || file.Reader == nil {
		return nil, apperror.Invalid("empty file")
	}

	prepared, err := s.processor.Prepare(file.Reader)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := storage.ObjectKey(now, file.FileName)

	url, err := s.imageStorage.UploadImage(ctx, prepared.Reader(), galleryFolder, key)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", file.FileName, err)
	}

	image := &entity.GalleryImage{
		ImageID:     key,
		ImageURL:    url,
		ContentType: prepared.ContentType,
		UploadedAt:  now,
	}
	if err := s.repo.CreateImage(ctx, image); err != nil {
		s.compensate(ctx, url, err)
		return nil, fmt.Errorf("failed to save %s: %w", file.FileName, err)
	}

	return image, nil
}

// compensate removes a blob whose metadata row could not be written.
func (s *mediaService) compensate(ctx context.Context, url string, cause error) {
	// The request context may already be cancelled; the cleanup still has to run.
	cleanupCtx := context.WithoutCancel(ctx)

	delErr := s.imageStorage.DeleteImage(cleanupCtx, url)
	if delErr == nil {
		return
	}

	log.Warn().Err(delErr).Str("url", url).Msg("failed to delete unregistered blob, recording orphan")
	orphan := &entity.OrphanBlob{
		FileURL: url,
		Reason:  cause.Error(),
	}
	if err := s.repo.CreateOrphan(cleanupCtx, orphan); err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to record orphan blob")
	}
}

func (s *mediaService) LoadGallery(ctx context.Context) ([]dto.GalleryImageView, error) {
	images, err := s.repo.ListImages(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]dto.GalleryImageView, 0, len(images))
	for i := range images {
		views = append(views, toImageView(&images[i]))
	}
	return views, nil
}

// CleanupOrphanBlobs deletes recorded orphans. Rows whose blob still cannot
// be deleted are kept for the next run.
func (s *mediaService) CleanupOrphanBlobs(ctx context.Context) (int, error) {
	if s.imageStorage == nil {
		return 0, nil
	}

	orphans, err := s.repo.ListOrphans(ctx, orphanBatchSize)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, orphan := range orphans {
		if err := s.imageStorage.DeleteImage(ctx, orphan.FileURL); err != nil {
			log.Warn().Err(err).Str("url", orphan.FileURL).Msg("orphan blob still not deletable")
			continue
		}
		if err := s.repo.DeleteOrphan(ctx, orphan.ID); err != nil {
			log.Warn().Err(err).Uint("orphan_id", orphan.ID).Msg("failed to delete orphan record")
			continue
		}
		cleaned++
	}
	return cleaned, nil
}

func toImageView(image *entity.GalleryImage) dto.GalleryImageView {
	return dto.GalleryImageView{
		ID:          image.ID,
		ImageID:     image.ImageID,
		ImageURL:    image.ImageURL,
		ContentType: image.ContentType,
		UploadedAt:  image.UploadedAt,
	}
}
