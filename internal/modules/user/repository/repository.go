package repository

import (
	"context"
	"errors"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User, profile *entity.Profile) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err)
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return translate(err)
			}
			user.Profile = profile
		}

		return nil
	})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

func (r *userRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, translate(err)
	}

	return &profile, nil
}

// UpdateAvatar touches only avatar_url; the rest of the profile is immutable.
func (r *userRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Profile{}).
		Where("user_id = ?", userID).
		Update("avatar_url", avatarURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// translate relies on gorm.Config.TranslateError for ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.ErrConflict
	}
	return err
}
