package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

// CatalogHandler manages regions and categories.
type CatalogHandler struct {
	db      *gorm.DB
	uploads *services.UploadService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB, uploads *services.UploadService) *CatalogHandler {
	return &CatalogHandler{db: db, uploads: uploads}
}

var simpleColumns = []string{"id", "name", "created_at"}

type regionRequest struct {
	Name string `json:"name" validate:"required,min=3,max=40"`
}

type categoryRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=40"`
	Photo string `json:"photo" validate:"omitempty,max=255"`
}

type categoryPatch struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=40"`
	Photo *string `json:"photo" validate:"omitempty,max=255"`
}

// ListRegions returns paginated regions.
func (h *CatalogHandler) ListRegions(c *fiber.Ctx) error {
	var regions []models.Region
	return h.listSimple(c, &models.Region{}, &regions)
}

// GetRegion returns a single region by ID.
func (h *CatalogHandler) GetRegion(c *fiber.Ctx) error {
	var region models.Region
	return h.getSimple(c, &region, "region")
}

// CreateRegion persists a new region.
func (h *CatalogHandler) CreateRegion(c *fiber.Ctx) error {
	var req regionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	region := models.Region{Name: req.Name}
	if err := h.db.WithContext(c.UserContext()).Create(&region).Error; err != nil {
		return duplicateOr(err, "region")
	}

	return dataResponse(c, fiber.StatusCreated, region)
}

// UpdateRegion renames a region.
func (h *CatalogHandler) UpdateRegion(c *fiber.Ctx) error {
	var req regionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var region models.Region
	return h.updateSimple(c, &region, "region", map[string]interface{}{"name": req.Name})
}

// DeleteRegion removes a region by ID.
func (h *CatalogHandler) DeleteRegion(c *fiber.Ctx) error {
	return h.deleteSimple(c, &models.Region{}, "region")
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	return h.listSimple(c, &models.Category{}, &categories)
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	var category models.Category
	return h.getSimple(c, &category, "category")
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category := models.Category{Name: req.Name, Photo: req.Photo}
	if err := h.db.WithContext(c.UserContext()).Create(&category).Error; err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusCreated, category)
}

// UpdateCategory applies a partial update to a category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var req categoryPatch
	if err := bind(c, &req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Photo != nil {
		updates["photo"] = *req.Photo
	}

	var category models.Category
	return h.updateSimple(c, &category, "category", updates)
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	return h.deleteSimple(c, &models.Category{}, "category")
}

// UploadCategoryImage stores a category picture.
func (h *CatalogHandler) UploadCategoryImage(c *fiber.Ctx) error {
	return saveUpload(c, h.uploads, "categories")
}

func (h *CatalogHandler) listSimple(c *fiber.Ctx, model interface{}, dest interface{}) error {
	q := utils.ParseListQuery(c, simpleColumns...)

	query := h.db.WithContext(c.UserContext()).Model(model)
	if q.Search != "" {
		query = query.Where("name LIKE ?", q.Like())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	if err := q.Page(query).Find(dest).Error; err != nil {
		return err
	}

	return listResponse(c, dest, q.Pagination, total)
}

func (h *CatalogHandler) getSimple(c *fiber.Ctx, dest interface{}, what string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.db.WithContext(c.UserContext()).First(dest, id).Error; err != nil {
		return notFoundOr(err, what)
	}

	return dataResponse(c, fiber.StatusOK, dest)
}

func (h *CatalogHandler) updateSimple(c *fiber.Ctx, dest interface{}, what string, updates map[string]interface{}) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	if err := db.First(dest, id).Error; err != nil {
		return notFoundOr(err, what)
	}

	if len(updates) > 0 {
		if err := db.Model(dest).Updates(updates).Error; err != nil {
			return duplicateOr(err, what)
		}
		if err := db.First(dest, id).Error; err != nil {
			return err
		}
	}

	return dataResponse(c, fiber.StatusOK, dest)
}

func (h *CatalogHandler) deleteSimple(c *fiber.Ctx, model interface{}, what string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	res := h.db.WithContext(c.UserContext()).Delete(model, id)
	if res.Error != nil {
		return referencedOr(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
