package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

// AdminHandler manages admin-only user endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

var userColumns = []string{"id", "full_name", "year", "role", "created_at"}

// ListUsers returns paginated users, optionally filtered by name, phone or
// email (?name=) and role (?role=).
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	q := utils.ParseListQuery(c, userColumns...)

	query := h.db.WithContext(c.UserContext()).Model(&models.User{})
	if q.Search != "" {
		like := q.Like()
		query = query.Where("full_name LIKE ? OR phone LIKE ? OR email LIKE ?", like, like, like)
	}
	if role := models.Role(c.Query("role")); role.Valid() {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := q.Page(query.Preload("Region")).Find(&users).Error; err != nil {
		return err
	}

	return listResponse(c, users, q.Pagination, total)
}

// GetUser returns a single user by ID.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).Preload("Region").First(&user, id).Error; err != nil {
		return notFoundOr(err, "user")
	}

	return dataResponse(c, fiber.StatusOK, user)
}

// DeleteUser removes a user and their refresh tokens.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return referencedOr(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
