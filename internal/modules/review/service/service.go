package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/internal/modules/review/dto"
	"anoa.com/communityreview/internal/modules/review/repository"
	search "anoa.com/communityreview/internal/modules/search/service"
	"anoa.com/communityreview/pkg/apperror"
	"anoa.com/communityreview/pkg/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const rateLimitAction = "review"

type ProfileFinder interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
}

type ReviewService interface {
	SubmitReview(ctx context.Context, userID *uuid.UUID, input dto.SubmitReviewInput) ([]dto.ReviewView, error)
	LoadReviews(ctx context.Context, viewer *uuid.UUID) ([]dto.ReviewView, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*dto.Stats, error)
	Search(ctx context.Context, query string, limit int) ([]search.ReviewDocument, error)
}

type Options struct {
	RateLimit time.Duration
	Location  *time.Location
}

type reviewService struct {
	repo      repository.ReviewRepository
	profiles  ProfileFinder
	index     search.ReviewIndex
	rdb       *redis.Client
	rateLimit time.Duration
	loc       *time.Location
}

func NewReviewService(repo repository.ReviewRepository, profiles ProfileFinder, index search.ReviewIndex, rdb *redis.Client, opts Options) ReviewService {
	if index == nil {
		index = search.NewMeiliSearchService(nil)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &reviewService{
		repo:      repo,
		profiles:  profiles,
		index:     index,
		rdb:       rdb,
		rateLimit: opts.RateLimit,
		loc:       loc,
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, userID *uuid.UUID, input dto.SubmitReviewInput) ([]dto.ReviewView, error) {
	if userID == nil {
		return nil, apperror.New(http.StatusUnauthorized, "please sign in to post a review", apperror.ErrUnauthorized)
	}

	if err := input.Validate(); err != nil {
		return nil, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput)
	}

	allowed, err := cache.CheckAndSetRateLimit(ctx, s.rdb, *userID, rateLimitAction, s.rateLimit)
	if err != nil {
		log.Warn().Err(err).Msg("review rate limit check failed, allowing")
		allowed = true
	}
	if !allowed {
		ttl, _ := cache.GetRateLimitTTL(ctx, s.rdb, *userID, rateLimitAction)
		return nil, apperror.New(http.StatusTooManyRequests,
			fmt.Sprintf("please wait %d seconds before posting another review", int(ttl.Seconds())),
			apperror.ErrRateLimitExceeded)
	}

	profile, err := s.profiles.FindProfile(ctx, *userID)
	if err != nil {
		s.releaseRateLimit(ctx, *userID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(http.StatusNotFound, "profile not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	review := &entity.Review{
		UserID:       *userID,
		UserEmail:    profile.Email,
		UserName:     profile.FullName,
		UserNickname: profile.Nickname,
		UserAvatar:   profile.AvatarURL,
		Rating:       input.Rating,
		Comment:      input.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		s.releaseRateLimit(ctx, *userID)
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	if err := s.index.IndexReview(ctx, review); err != nil {
		log.Warn().Err(err).Str("review_id", review.ID.String()).Msg("failed to index review")
	}

	return s.LoadReviews(ctx, userID)
}

func (s *reviewService) releaseRateLimit(ctx context.Context, userID uuid.UUID) {
	if err := cache.ClearRateLimit(ctx, s.rdb, userID, rateLimitAction); err != nil {
		log.Warn().Err(err).Msg("failed to clear review rate limit")
	}
}

func (s *reviewService) LoadReviews(ctx context.Context, viewer *uuid.UUID) ([]dto.ReviewView, error) {
	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	canDelete := s.viewerIsAdmin(ctx, viewer)

	views := make([]dto.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, dto.ReviewView{
			ID: r.ID,
			Author: dto.Author{
				UserID:    r.UserID,
				Email:     r.UserEmail,
				Name:      r.UserName,
				Nickname:  r.UserNickname,
				AvatarURL: r.UserAvatar,
				Initial:   Initial(r.UserName),
			},
			Rating:    r.Rating,
			Stars:     Stars(r.Rating),
			Comment:   r.Comment,
			Date:      FormatDate(r.CreatedAt, s.loc),
			CreatedAt: r.CreatedAt,
			CanDelete: canDelete,
		})
	}

	return views, nil
}

func (s *reviewService) viewerIsAdmin(ctx context.Context, viewer *uuid.UUID) bool {
	if viewer == nil {
		return false
	}

	profile, err := s.profiles.FindProfile(ctx, *viewer)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", viewer.String()).Msg("failed to load viewer profile")
		}
		return false
	}
	return profile.IsAdmin
}

// DeleteReview assumes the caller already passed the admin check.
func (s *reviewService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if err := s.index.DeleteReview(ctx, deleted.ID.String()); err != nil {
		log.Warn().Err(err).Str("review_id", deleted.ID.String()).Msg("failed to remove review from index")
	}

	log.Info().Str("review_id", deleted.ID.String()).Str("author_id", deleted.UserID.String()).Msg("review deleted")
	return nil
}

func (s *reviewService) Stats(ctx context.Context, userID uuid.UUID) (*dto.Stats, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.Stats{
		ReviewCount:   stats.ReviewCount,
		AverageRating: FormatAverage(stats.ReviewCount, stats.RatingSum),
	}, nil
}

func (s *reviewService) Search(ctx context.Context, query string, limit int) ([]search.ReviewDocument, error) {
	return s.index.SearchReviews(ctx, query, limit)
}
