package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	// Create inserts the review and bumps the author's aggregate atomically.
	Create(ctx context.Context, review *entity.Review) error
	List(ctx context.Context) ([]entity.Review, error)
	// Delete removes the review and returns what was deleted.
	Delete(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*entity.ReviewStats, error)
	// Totals sums every author's aggregate; UserID is left zero.
	Totals(ctx context.Context) (*entity.ReviewStats, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}

		stats := entity.ReviewStats{
			UserID:      review.UserID,
			ReviewCount: 1,
			RatingSum:   int64(review.Rating),
			UpdatedAt:   time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"review_count": gorm.Expr("review_stats.review_count + 1"),
				"rating_sum":   gorm.Expr("review_stats.rating_sum + ?", review.Rating),
				"updated_at":   stats.UpdatedAt,
			}),
		}).Create(&stats).Error
	})
}

func (r *reviewRepository) List(ctx context.Context) ([]entity.Review, error) {
	var reviews []entity.Review
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	var deleted entity.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&deleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}

		if err := tx.Delete(&entity.Review{}, "id = ?", id).Error; err != nil {
			return err
		}

		return tx.Model(&entity.ReviewStats{}).
			Where("user_id = ?", deleted.UserID).
			Updates(map[string]interface{}{
				"review_count": gorm.Expr("GREATEST(review_count - 1, 0)"),
				"rating_sum":   gorm.Expr("GREATEST(rating_sum - ?, 0)", deleted.Rating),
				"updated_at":   time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// GetStats returns a zero aggregate for authors who never reviewed.
func (r *reviewRepository) GetStats(ctx context.Context, userID uuid.UUID) (*entity.ReviewStats, error) {
	var stats entity.ReviewStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.ReviewStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *reviewRepository) Totals(ctx context.Context) (*entity.ReviewStats, error) {
	var totals entity.ReviewStats
	if err := r.db.WithContext(ctx).
		Model(&entity.ReviewStats{}).
		Select("COALESCE(SUM(review_count), 0) AS review_count, COALESCE(SUM(rating_sum), 0) AS rating_sum").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}
