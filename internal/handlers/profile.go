package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

// ProfileHandler serves the authenticated user's own account.
type ProfileHandler struct {
	db      *gorm.DB
	uploads *services.UploadService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, uploads *services.UploadService) *ProfileHandler {
	return &ProfileHandler{db: db, uploads: uploads}
}

// GetProfile returns the current user with their region.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).Preload("Region").First(&user, actor.ID).Error; err != nil {
		return notFoundOr(err, "user")
	}

	return dataResponse(c, fiber.StatusOK, user)
}

type updateProfileRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,min=3,max=100"`
	Year     *int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	RegionID *uint   `json:"region_id" validate:"omitempty,gt=0"`
	Photo    *string `json:"photo" validate:"omitempty,max=255"`
}

// UpdateProfile applies a partial update. The role cannot be changed here.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())

	var user models.User
	if err := db.First(&user, actor.ID).Error; err != nil {
		return notFoundOr(err, "user")
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Photo != nil {
		updates["photo"] = *req.Photo
	}
	if req.Phone != nil && *req.Phone != user.Phone {
		var count int64
		if err := db.Model(&models.User{}).Where("phone = ?", *req.Phone).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "phone is already in use")
		}
		updates["phone"] = *req.Phone
	}
	if req.RegionID != nil {
		var count int64
		if err := db.Model(&models.Region{}).Where("id = ?", *req.RegionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return services.ValidationError("region_id does not reference an existing region")
		}
		updates["region_id"] = *req.RegionID
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "phone is already in use")
			}
			return err
		}
	}

	if err := db.Preload("Region").First(&user, actor.ID).Error; err != nil {
		return err
	}
	return dataResponse(c, fiber.StatusOK, user)
}

// UploadImage stores a user photo and returns its file name.
func (h *ProfileHandler) UploadImage(c *fiber.Ctx) error {
	return saveUpload(c, h.uploads, "users")
}

func saveUpload(c *fiber.Ctx, uploads *services.UploadService, kind string) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return services.ValidationError("image is required")
	}

	rel, err := uploads.SaveImage(fh, kind)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "image uploaded",
		"filename": rel,
		"url":      "/image/" + rel,
	})
}
