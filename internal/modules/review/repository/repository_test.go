package repository

import (
	"context"
	"os"
	"testing"

	"anoa.com/communityreview/internal/bootstrap"
	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/pkg/apperror"
	"anoa.com/communityreview/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB connects to the database named by TEST_DATABASE_DSN, e.g.
// "host=localhost user=postgres password=postgres dbname=review_test sslmode=disable".
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	db, err := database.Connect(dsn, false)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func forgetAuthor(t *testing.T, db *gorm.DB, userID uuid.UUID) {
	t.Cleanup(func() {
		db.Where("user_id = ?", userID).Delete(&entity.Review{})
		db.Where("user_id = ?", userID).Delete(&entity.ReviewStats{})
	})
}

func TestCreateAndDeleteKeepAggregateInStep(t *testing.T) {
	db := openTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := uuid.New()
	forgetAuthor(t, db, author)

	before, err := repo.Totals(ctx)
	require.NoError(t, err)

	first := &entity.Review{UserID: author, UserName: "Ana", Rating: 4, Comment: "good"}
	second := &entity.Review{UserID: author, UserName: "Ana", Rating: 5, Comment: "great"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.NotEqual(t, uuid.Nil, first.ID)

	stats, err := repo.GetStats(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ReviewCount)
	assert.Equal(t, int64(9), stats.RatingSum)

	totals, err := repo.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ReviewCount+2, totals.ReviewCount)
	assert.Equal(t, before.RatingSum+9, totals.RatingSum)

	deleted, err := repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, deleted.Rating)
	assert.Equal(t, author, deleted.UserID)

	stats, err = repo.GetStats(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ReviewCount)
	assert.Equal(t, int64(5), stats.RatingSum)

	reviews, err := repo.List(ctx)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, r := range reviews {
		if r.UserID == author {
			ids = append(ids, r.ID)
		}
	}
	assert.Equal(t, []uuid.UUID{second.ID}, ids)
}

func TestDeleteUnknownReview(t *testing.T) {
	repo := NewReviewRepository(openTestDB(t))

	_, err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetStatsForAuthorWithoutReviews(t *testing.T) {
	repo := NewReviewRepository(openTestDB(t))
	author := uuid.New()

	stats, err := repo.GetStats(context.Background(), author)
	require.NoError(t, err)
	assert.Equal(t, author, stats.UserID)
	assert.Zero(t, stats.ReviewCount)
	assert.Zero(t, stats.RatingSum)
}

func TestCreateRejectsOutOfRangeRating(t *testing.T) {
	db := openTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := uuid.New()
	forgetAuthor(t, db, author)

	err := repo.Create(ctx, &entity.Review{UserID: author, Rating: 9, Comment: "x"})
	require.Error(t, err)

	stats, err := repo.GetStats(ctx, author)
	require.NoError(t, err)
	assert.Zero(t, stats.ReviewCount)
}
