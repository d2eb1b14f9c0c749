package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

// MaxItemCount bounds the count of a single order item, after merging.
const MaxItemCount = 10000

// OrderLine is one (product, count) pair submitted at checkout.
type OrderLine struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Count     int  `json:"count" validate:"required,gte=1,lte=10000"`
}

type CreateOrderInput struct {
	Products []OrderLine `json:"products" validate:"required,min=1,dive"`
}

type UpdateOrderInput struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Count     int  `json:"count" validate:"required,gte=1,lte=10000"`
}

// OrderResult is returned by CreateOrder.
type OrderResult struct {
	Order           *models.Order      `json:"order"`
	OrderedProducts []models.OrderItem `json:"orderedProducts"`
	TotalSumma      int64              `json:"totalSumma"`
}

// OrderNotifier is told about every committed order.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order OrderNotification) error
}

// OrderService implements checkout and order queries.
type OrderService struct {
	db       *gorm.DB
	notifier OrderNotifier
}

func NewOrderService(db *gorm.DB, notifier OrderNotifier) *OrderService {
	return &OrderService{db: db, notifier: notifier}
}

// MergeLines sums counts of lines sharing a product id. The result keeps the
// order in which each product first appeared.
func MergeLines(lines []OrderLine) []OrderLine {
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Count += l.Count
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

var errTotalOverflow = ValidationError("order total is too large")

// OrderTotal returns the sum of count * price over items with a loaded product.
// It fails instead of wrapping when the sum does not fit in int64.
func OrderTotal(items []models.OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		sub, err := lineTotal(int64(item.Count), item.Product.Price)
		if err != nil {
			return 0, err
		}
		if sub > 0 && total > math.MaxInt64-sub {
			return 0, errTotalOverflow
		}
		total += sub
	}
	return total, nil
}

func lineTotal(count, price int64) (int64, error) {
	if count < 0 || price < 0 {
		return 0, ValidationError("count and price must not be negative")
	}
	if price != 0 && count > math.MaxInt64/price {
		return 0, errTotalOverflow
	}
	return count * price, nil
}

func productSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "price", "image")
}

// CreateOrder validates and merges lines, then writes the order header and its
// items, reloads them with product data and computes the total in a single
// transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput) (*OrderResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}

	lines := MergeLines(in.Products)
	ids := make([]uint, len(lines))
	for i, l := range lines {
		if l.Count < 1 || l.Count > MaxItemCount {
			return nil, ValidationError(fmt.Sprintf("count of product %d must be at most %d", l.ProductID, MaxItemCount))
		}
		ids[i] = l.ProductID
	}

	var result OrderResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []models.Product
		if err := tx.Select("id", "price").Where("id IN ?", ids).Find(&products).Error; err != nil {
			return internal("check products", err)
		}
		if len(products) != len(ids) {
			return notFound("product")
		}

		// priced up front so nothing is written for an unrepresentable total
		priced := make([]models.OrderItem, len(lines))
		for i, l := range lines {
			priced[i] = models.OrderItem{ProductID: l.ProductID, Count: l.Count}
			for j := range products {
				if products[j].ID == l.ProductID {
					priced[i].Product = &products[j]
				}
			}
		}
		if _, err := OrderTotal(priced); err != nil {
			return err
		}

		order := models.Order{UserID: userID}
		if err := tx.Create(&order).Error; err != nil {
			return internal("create order", err)
		}

		items := make([]models.OrderItem, len(lines))
		for i, l := range lines {
			items[i] = models.OrderItem{OrderID: order.ID, ProductID: l.ProductID, Count: l.Count}
		}
		if err := tx.Create(&items).Error; err != nil {
			return internal("create order items", err)
		}

		var reloaded []models.OrderItem
		if err := tx.Preload("Product", productSummary).
			Where("order_id = ?", order.ID).
			Order("id").
			Find(&reloaded).Error; err != nil {
			return internal("reload order items", err)
		}

		total, err := OrderTotal(reloaded)
		if err != nil {
			return err
		}

		result = OrderResult{
			Order:           &order,
			OrderedProducts: reloaded,
			TotalSumma:      total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("order_id", result.Order.ID).
		Uint("user_id", userID).
		Int("items", len(result.OrderedProducts)).
		Int64("total", result.TotalSumma).
		Msg("order created")

	if s.notifier != nil {
		go s.notify(result)
	}

	return &result, nil
}

func (s *OrderService) notify(result OrderResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	n := OrderNotification{
		OrderID:     result.Order.ID,
		TotalAmount: result.TotalSumma,
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "full_name", "phone").First(&user, result.Order.UserID).Error; err == nil {
		n.UserName = user.FullName
		n.UserPhone = user.Phone
	}

	for _, item := range result.OrderedProducts {
		line := OrderItemNotification{Quantity: item.Count}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.Price = item.Product.Price
		}
		n.Items = append(n.Items, line)
	}

	if err := s.notifier.NotifyNewOrder(ctx, n); err != nil {
		log.Warn().Err(err).Uint("order_id", n.OrderID).Msg("order notification failed")
	}
}

func (s *OrderService) withItems(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Items.Product", productSummary)
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.withItems(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order")
		}
		return nil, internal("load order", err)
	}
	return &order, nil
}

// GetOrderByID returns an order with its items. Only the owner or an admin may read it.
func (s *OrderService) GetOrderByID(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, forbidden("access denied")
	}
	return order, nil
}

// ListMyOrders returns every order of userID, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.withItems(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, internal("list orders", err)
	}
	return orders, nil
}

// ListOrders returns one page of all orders.
func (s *OrderService) ListOrders(ctx context.Context, q utils.ListQuery) ([]models.Order, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, internal("count orders", err)
	}

	var orders []models.Order
	if err := q.Page(s.withItems(ctx)).Find(&orders).Error; err != nil {
		return nil, 0, internal("list orders", err)
	}
	return orders, total, nil
}

// UpdateOrder overwrites the count of the (order, product) item. The order
// header is left untouched.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, orderID uint, in UpdateOrderInput) (*models.OrderItem, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order")
		}
		return nil, internal("load order", err)
	}
	if !actor.CanAccess(order.UserID) {
		return nil, forbidden("access denied")
	}

	var item models.OrderItem
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, in.ProductID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order item")
		}
		return nil, internal("load order item", err)
	}

	if err := s.db.WithContext(ctx).Model(&item).Update("count", in.Count).Error; err != nil {
		return nil, internal("update order item", err)
	}

	if err := s.db.WithContext(ctx).Preload("Product", productSummary).First(&item, item.ID).Error; err != nil {
		return nil, internal("reload order item", err)
	}
	return &item, nil
}

// DeleteOrder removes an order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "user_id").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order")
			}
			return internal("load order", err)
		}
		if !actor.CanAccess(order.UserID) {
			return forbidden("access denied")
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return internal("delete order items", err)
		}
		if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
			return internal("delete order", err)
		}
		return nil
	})
}

// ItemsByOrder lists the items of one order with product summaries.
func (s *OrderService) ItemsByOrder(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.WithContext(ctx).Preload("Product", productSummary).
		Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
		return nil, internal("list order items", err)
	}
	return items, nil
}

// ItemsByProduct lists every order item that references productID.
func (s *OrderService) ItemsByProduct(ctx context.Context, productID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.WithContext(ctx).Preload("Product", productSummary).
		Where("product_id = ?", productID).Order("id").Find(&items).Error; err != nil {
		return nil, internal("list order items", err)
	}
	return items, nil
}
