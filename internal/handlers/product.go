package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db      *gorm.DB
	uploads *services.UploadService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, uploads *services.UploadService) *ProductHandler {
	return &ProductHandler{db: db, uploads: uploads}
}

var productColumns = []string{"id", "name", "price", "rating_average", "created_at"}

func authorSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "full_name", "phone", "role")
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	q := utils.ParseListQuery(c, productColumns...)
	query := h.db.WithContext(c.UserContext()).Model(&models.Product{})

	if v := c.Query("category_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}

	if v := c.Query("author_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			query = query.Where("author_id = ?", id)
		}
	}

	if q.Search != "" {
		query = query.Where("name LIKE ?", q.Like())
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseInt(minPrice, 10, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseInt(maxPrice, 10, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := q.Page(query.Preload("Category")).Find(&products).Error; err != nil {
		return err
	}

	return listResponse(c, products, q.Pagination, total)
}

// GetProduct returns a product with its category and author.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.WithContext(c.UserContext()).
		Preload("Category").
		Preload("Author", authorSummary).
		First(&product, id).Error; err != nil {
		return notFoundOr(err, "product")
	}

	return dataResponse(c, fiber.StatusOK, product)
}

// ListByCategory returns every product in a category.
func (h *ProductHandler) ListByCategory(c *fiber.Ctx) error {
	return h.listBy(c, "category_id")
}

// ListByUser returns every product authored by a user.
func (h *ProductHandler) ListByUser(c *fiber.Ctx) error {
	return h.listBy(c, "author_id")
}

func (h *ProductHandler) listBy(c *fiber.Ctx, column string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var products []models.Product
	if err := h.db.WithContext(c.UserContext()).Preload("Category").
		Where(column+" = ?", id).Order("id").Find(&products).Error; err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, products)
}

type productRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Image       string `json:"image" validate:"omitempty,max=255"`
	Description string `json:"description" validate:"required"`
	CategoryID  uint   `json:"category_id" validate:"required,gt=0"`
	Price       int64  `json:"price" validate:"required,gt=0"`
}

type productPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=50"`
	Image       *string `json:"image" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	CategoryID  *uint   `json:"category_id" validate:"omitempty,gt=0"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
}

func (h *ProductHandler) ensureCategory(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return services.ValidationError("category_id does not reference an existing category")
	}
	return nil
}

// CreateProduct persists a new product authored by the caller.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	if err := h.ensureCategory(db, req.CategoryID); err != nil {
		return err
	}

	product := models.Product{
		AuthorID:    actor.ID,
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
	}
	if err := db.Create(&product).Error; err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusCreated, product)
}

// loadOwned fetches a product and checks that sellers only touch their own.
func (h *ProductHandler) loadOwned(c *fiber.Ctx, db *gorm.DB) (*models.Product, error) {
	actor, err := actorOf(c)
	if err != nil {
		return nil, err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "product")
	}

	if actor.Role == models.RoleSeller && product.AuthorID != actor.ID {
		return nil, fiber.NewError(fiber.StatusForbidden, "sellers can only modify their own products")
	}
	return &product, nil
}

// UpdateProduct applies a partial update.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var req productPatch
	if err := bind(c, &req); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	product, err := h.loadOwned(c, db)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CategoryID != nil {
		if err := h.ensureCategory(db, *req.CategoryID); err != nil {
			return err
		}
		updates["category_id"] = *req.CategoryID
	}

	if len(updates) > 0 {
		if err := db.Model(product).Updates(updates).Error; err != nil {
			return err
		}
	}

	if err := db.Preload("Category").First(product, product.ID).Error; err != nil {
		return err
	}
	return dataResponse(c, fiber.StatusOK, product)
}

// DeleteProduct removes a product and its comments.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	err := h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		product, err := h.loadOwned(c, tx)
		if err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(product).Error; err != nil {
			return referencedOr(err, "product")
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UploadProductImage stores a product picture.
func (h *ProductHandler) UploadProductImage(c *fiber.Ctx) error {
	return saveUpload(c, h.uploads, "products")
}
