package database

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

// SeedConfig describes the records created on an empty database.
type SeedConfig struct {
	Region        string
	AdminPhone    string
	AdminEmail    string
	AdminPassword string
}

// Seed creates the default region and the first admin account when missing.
// The admin is skipped when no password or region is configured.
func Seed(ctx context.Context, db *gorm.DB, cfg SeedConfig) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var region models.Region
		if cfg.Region != "" {
			err := tx.Where(models.Region{Name: cfg.Region}).FirstOrCreate(&region).Error
			if err != nil {
				return err
			}
		}

		// users reference a region, so the admin needs one
		if cfg.AdminPassword == "" || cfg.AdminPhone == "" || region.ID == 0 {
			return nil
		}

		var existing models.User
		err := tx.Where("phone = ?", cfg.AdminPhone).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			return err
		}

		admin := models.User{
			FullName:     "Administrator",
			Phone:        cfg.AdminPhone,
			Email:        cfg.AdminEmail,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			RegionID:     region.ID,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		log.Info().Uint("user_id", admin.ID).Msg("seeded admin account")
		return nil
	})
}
