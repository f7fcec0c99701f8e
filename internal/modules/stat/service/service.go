package service

import (
	"context"

	"anoa.com/communityreview/internal/entity"
	review "anoa.com/communityreview/internal/modules/review/service"
	"anoa.com/communityreview/internal/modules/stat/dto"
)

type MemberCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ReviewTotals interface {
	Totals(ctx context.Context) (*entity.ReviewStats, error)
}

type StatService interface {
	GetSiteStats(ctx context.Context) (*dto.SiteStats, error)
}

type statService struct {
	members MemberCounter
	reviews ReviewTotals
}

func NewStatService(members MemberCounter, reviews ReviewTotals) StatService {
	return &statService{
		members: members,
		reviews: reviews,
	}
}

func (s *statService) GetSiteStats(ctx context.Context) (*dto.SiteStats, error) {
	members, err := s.members.Count(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.reviews.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.SiteStats{
		TotalMembers:  members,
		TotalReviews:  totals.ReviewCount,
		AverageRating: review.FormatAverage(totals.ReviewCount, totals.RatingSum),
	}, nil
}
