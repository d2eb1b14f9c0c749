package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder allows authenticated users to place an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.orders.CreateOrder(c.UserContext(), actor.ID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"order":           result.Order,
		"orderedProducts": result.OrderedProducts,
		"totalSumma":      result.TotalSumma,
	})
}

// ListMyOrders returns the caller's orders with items.
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	orders, err := h.orders.ListMyOrders(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, orders)
}

// ListOrders returns every order, paginated.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	q := utils.ParseListQuery(c, "id", "user_id", "created_at")

	orders, total, err := h.orders.ListOrders(c.UserContext(), q)
	if err != nil {
		return err
	}

	return listResponse(c, orders, q.Pagination, total)
}

// ListUserOrders returns the orders of the user in the route.
func (h *OrderHandler) ListUserOrders(c *fiber.Ctx) error {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return err
	}

	orders, err := h.orders.ListMyOrders(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, orders)
}

// GetOrder returns a single order for its owner or an admin.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrderByID(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, order)
}

// UpdateOrder overwrites the count of one item of the order.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req services.UpdateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.orders.UpdateOrder(c.UserContext(), actor, id, req)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, item)
}

// DeleteOrder removes an order and its items.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.orders.DeleteOrder(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ItemsByOrder lists items of an order the caller may see.
func (h *OrderHandler) ItemsByOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "order_id")
	if err != nil {
		return err
	}

	if _, err := h.orders.GetOrderByID(c.UserContext(), actor, id); err != nil {
		return err
	}

	items, err := h.orders.ItemsByOrder(c.UserContext(), id)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, items)
}

// ItemsByProduct lists every order item for a product.
func (h *OrderHandler) ItemsByProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "product_id")
	if err != nil {
		return err
	}

	items, err := h.orders.ItemsByProduct(c.UserContext(), id)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, items)
}
