package service

import (
	"context"

	mediaDto "anoa.com/communityreview/internal/modules/media/dto"
	media "anoa.com/communityreview/internal/modules/media/service"
	profileDto "anoa.com/communityreview/internal/modules/profile/dto"
	profile "anoa.com/communityreview/internal/modules/profile/service"
	reviewDto "anoa.com/communityreview/internal/modules/review/dto"
	review "anoa.com/communityreview/internal/modules/review/service"
	session "anoa.com/communityreview/internal/modules/session/service"
	statDto "anoa.com/communityreview/internal/modules/stat/dto"
	stat "anoa.com/communityreview/internal/modules/stat/service"
	themeDto "anoa.com/communityreview/internal/modules/theme/dto"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.State, error)
}

// Request carries what the page handler read from the HTTP request.
type Request struct {
	Token         string
	Query         Query
	Theme         themeDto.View
	Message       string
	Error         string
	ConfirmDelete string
}

// PageData is the view model the page template renders.
type PageData struct {
	State         *session.State
	Visibility    Visibility
	Profile       *profileDto.ProfileView
	Reviews       []reviewDto.ReviewView
	Video         *mediaDto.VideoView
	Gallery       []mediaDto.GalleryImageView
	SiteStats     *statDto.SiteStats
	Theme         themeDto.View
	Query         Query
	Message       string
	Error         string
	ConfirmDelete *reviewDto.ReviewView
}

func (d *PageData) IsAdmin() bool {
	return d.Profile != nil && d.Profile.IsAdmin
}

type PageService interface {
	Build(ctx context.Context, req Request) (*PageData, error)
}

type pageService struct {
	sessions SessionResolver
	profiles profile.ProfileService
	reviews  review.ReviewService
	media    media.MediaService
	stats    stat.StatService
}

func NewPageService(sessions SessionResolver, profiles profile.ProfileService, reviews review.ReviewService, media media.MediaService, stats stat.StatService) PageService {
	return &pageService{
		sessions: sessions,
		profiles: profiles,
		reviews:  reviews,
		media:    media,
		stats:    stats,
	}
}

// Build resolves the session and loads every section. Only a session
// failure is returned; content that fails to load is logged and left empty.
func (s *pageService) Build(ctx context.Context, req Request) (*PageData, error) {
	state, err := s.sessions.Resolve(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	data := &PageData{
		State:      state,
		Visibility: Navigate(state.Authenticated, req.Query),
		Theme:      req.Theme,
		Query:      req.Query,
		Message:    req.Message,
		Error:      req.Error,
	}

	if s.stats != nil {
		if stats, err := s.stats.GetSiteStats(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to load site stats")
		} else {
			data.SiteStats = stats
		}
	}

	if !state.Authenticated {
		return data, nil
	}

	var viewer *uuid.UUID
	if state.Identity != nil {
		id := state.Identity.UserID
		viewer = &id

		if state.Profile != nil {
			view, err := s.profiles.LoadUserProfile(ctx, id)
			if err != nil {
				log.Warn().Err(err).Str("user_id", id.String()).Msg("failed to load profile")
			} else {
				data.Profile = view
			}
		}
	}

	if reviews, err := s.reviews.LoadReviews(ctx, viewer); err != nil {
		log.Warn().Err(err).Msg("failed to load reviews")
	} else {
		data.Reviews = reviews
	}

	if video, err := s.media.LoadVideo(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load video")
	} else {
		data.Video = video
	}

	if gallery, err := s.media.LoadGallery(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load gallery")
	} else {
		data.Gallery = gallery
	}

	if req.ConfirmDelete != "" && data.IsAdmin() {
		for i := range data.Reviews {
			if data.Reviews[i].ID.String() == req.ConfirmDelete {
				data.ConfirmDelete = &data.Reviews[i]
				break
			}
		}
	}

	return data, nil
}
