package services

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

type CreateCommentInput struct {
	ProductID uint   `json:"product_id" validate:"required,gt=0"`
	Message   string `json:"message" validate:"required,min=2,max=1000"`
	Star      int    `json:"star" validate:"required,gte=1,lte=5"`
}

type UpdateCommentInput struct {
	Message *string `json:"message" validate:"omitempty,min=2,max=1000"`
	Star    *int    `json:"star" validate:"omitempty,gte=1,lte=5"`
}

// CommentService manages product reviews and keeps product ratings in sync.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// CommentColumns are the sortable columns of the comment list.
var CommentColumns = []string{"id", "star", "created_at", "product_id", "user_id"}

func (s *CommentService) List(ctx context.Context, q utils.ListQuery) ([]models.Comment, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Comment{})
	if q.Search != "" {
		query = query.Where("message LIKE ?", q.Like())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, internal("count comments", err)
	}

	var comments []models.Comment
	if err := q.Page(query.Preload("User").Preload("Product", productSummary)).Find(&comments).Error; err != nil {
		return nil, 0, internal("list comments", err)
	}
	return comments, total, nil
}

func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Preload("User").Preload("Product", productSummary).First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("comment")
		}
		return nil, internal("load comment", err)
	}
	return &comment, nil
}

func (s *CommentService) ByProduct(ctx context.Context, productID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Preload("User").Where("product_id = ?", productID).
		Order("id DESC").Find(&comments).Error; err != nil {
		return nil, internal("list comments", err)
	}
	return comments, nil
}

func (s *CommentService) ByUser(ctx context.Context, userID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Preload("Product", productSummary).Where("user_id = ?", userID).
		Order("id DESC").Find(&comments).Error; err != nil {
		return nil, internal("list comments", err)
	}
	return comments, nil
}

// Create stores a comment by the actor and refreshes the product rating.
func (s *CommentService) Create(ctx context.Context, actor Actor, in CreateCommentInput) (*models.Comment, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}

	comment := models.Comment{
		UserID:    actor.ID,
		ProductID: in.ProductID,
		Message:   in.Message,
		Star:      in.Star,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", in.ProductID).Count(&count).Error; err != nil {
			return internal("check product", err)
		}
		if count == 0 {
			return notFound("product")
		}
		if err := tx.Create(&comment).Error; err != nil {
			return internal("create comment", err)
		}
		return recomputeRating(tx, in.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update edits a comment. Only its author or an admin may do so.
func (s *CommentService) Update(ctx context.Context, actor Actor, id uint, in UpdateCommentInput) (*models.Comment, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadComment(tx, id, &comment); err != nil {
			return err
		}
		if !actor.CanAccess(comment.UserID) {
			return forbidden("access denied")
		}

		updates := map[string]interface{}{}
		if in.Message != nil {
			updates["message"] = *in.Message
		}
		if in.Star != nil {
			updates["star"] = *in.Star
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&comment).Updates(updates).Error; err != nil {
			return internal("update comment", err)
		}
		return recomputeRating(tx, comment.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment. Only its author or an admin may do so.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := loadComment(tx, id, &comment); err != nil {
			return err
		}
		if !actor.CanAccess(comment.UserID) {
			return forbidden("access denied")
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return internal("delete comment", err)
		}
		return recomputeRating(tx, comment.ProductID)
	})
}

func loadComment(tx *gorm.DB, id uint, dest *models.Comment) error {
	if err := tx.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("comment")
		}
		return internal("load comment", err)
	}
	return nil
}

func recomputeRating(tx *gorm.DB, productID uint) error {
	var agg struct {
		Avg float64
		Cnt int64
	}
	if err := tx.Model(&models.Comment{}).
		Select("COALESCE(AVG(star), 0) AS avg, COUNT(*) AS cnt").
		Where("product_id = ?", productID).
		Scan(&agg).Error; err != nil {
		return internal("aggregate rating", err)
	}

	err := tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
		"rating_average": math.Round(agg.Avg*100) / 100,
		"rating_count":   agg.Cnt,
	}).Error
	if err != nil {
		return internal("update rating", err)
	}
	return nil
}
