package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/communityreview/internal/entity"
	profileDto "anoa.com/communityreview/internal/modules/profile/dto"
	review "anoa.com/communityreview/internal/modules/review/service"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const avatarFolder = "avatars"

type ProfileRepository interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
}

type StatsReader interface {
	GetStats(ctx context.Context, userID uuid.UUID) (*entity.ReviewStats, error)
}

type ProfileService interface {
	LoadUserProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileView, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar *commonDto.UploadFile) (*profileDto.ProfileView, error)
}

type profileService struct {
	repo         ProfileRepository
	stats        StatsReader
	imageStorage storage.ImageStorage
	processor    *storage.ImageProcessor
	now          func() time.Time
}

func NewProfileService(repo ProfileRepository, stats StatsReader, imageStorage storage.ImageStorage, processor *storage.ImageProcessor) ProfileService {
	return &profileService{
		repo:         repo,
		stats:        stats,
		imageStorage: imageStorage,
		processor:    processor,
		now:          time.Now,
	}
}

func (s *profileService) LoadUserProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileView, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(http.StatusNotFound, "profile not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	view := &profileDto.ProfileView{
		UserID:        profile.UserID,
		AvatarURL:     profile.AvatarURL,
		FullName:      profile.FullName,
		Nickname:      profile.Nickname,
		JoinYear:      profile.CreatedAt.Year(),
		ReviewEmail:   profile.Email,
		AverageRating: review.FormatAverage(0, 0),
		IsAdmin:       profile.IsAdmin,
		AdminControls: profileDto.AdminControls{
			Video:         profile.IsAdmin,
			Gallery:       profile.IsAdmin,
			DeleteReviews: profile.IsAdmin,
		},
	}
	if profile.AvatarURL == nil || *profile.AvatarURL == "" {
		view.AvatarURL = nil
		view.Initial = review.Initial(profile.FullName)
	}

	stats, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to load review stats")
		return view, nil
	}
	view.ReviewCount = stats.ReviewCount
	view.AverageRating = review.FormatAverage(stats.ReviewCount, stats.RatingSum)

	return view, nil
}

func (s *profileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar *commonDto.UploadFile) (*profileDto.ProfileView, error) {
	if avatar == nil || avatar.Reader == nil {
		return nil, apperror.Invalid("avatar file is required")
	}
	if s.imageStorage == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "file storage is not configured", apperror.ErrInternal)
	}

	prepared, err := s.processor.Prepare(avatar.Reader)
	if err != nil {
		return nil, err
	}

	url, err := s.imageStorage.UploadImage(ctx, prepared.Reader(), avatarFolder, storage.ObjectKey(s.now(), avatar.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.repo.UpdateAvatar(ctx, userID, url); err != nil {
		if delErr := s.imageStorage.DeleteImage(ctx, url); delErr != nil {
			log.Warn().Err(delErr).Str("url", url).Msg("failed to delete unused avatar")
		}
		return nil, err
	}

	return s.LoadUserProfile(ctx, userID)
}
