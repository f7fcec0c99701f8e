package bootstrap

import (
	"errors"
	"strings"

	"anoa.com/communityreview/internal/entity"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Review{},
		&entity.ReviewStats{},
		&entity.MainVideo{},
		&entity.GalleryImage{},
		&entity.OrphanBlob{},
	)
}

// SeedAdminUser creates the administrator account in development so the
// moderation screens can be used right after a fresh migrate. An empty
// secret is replaced by a generated one, logged once.
func SeedAdminUser(db *gorm.DB, email, secret string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("admin email is required to seed")
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Info().Str("email", email).Msg("admin user already exists, skipping seed")
		return nil
	}

	generated := secret == ""
	if generated {
		var err error
		secret, err = password.Generate(16, 4, 0, false, true)
		if err != nil {
			return err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := entity.User{
			Email:        email,
			PasswordHash: string(hashed),
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		profile := entity.Profile{
			UserID:   admin.ID,
			FullName: "Administrator",
			Nickname: "admin",
			Email:    email,
			IsAdmin:  true,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		event := log.Info().Str("email", email)
		if generated {
			event = event.Str("password", secret)
		}
		event.Msg("admin user seeded")
		return nil
	})
}
