package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

// CommentHandler manages product reviews.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// ListComments returns paginated comments; ?name= filters by message text.
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	q := utils.ParseListQuery(c, services.CommentColumns...)

	comments, total, err := h.comments.List(c.UserContext(), q)
	if err != nil {
		return err
	}

	return listResponse(c, comments, q.Pagination, total)
}

func (h *CommentHandler) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	comment, err := h.comments.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, comment)
}

func (h *CommentHandler) ListByProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.comments.ByProduct(c.UserContext(), id)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, comments)
}

func (h *CommentHandler) ListByUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.comments.ByUser(c.UserContext(), id)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req services.CreateCommentInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.comments.Create(c.UserContext(), actor, req)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusCreated, comment)
}

func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req services.UpdateCommentInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.comments.Update(c.UserContext(), actor, id, req)
	if err != nil {
		return err
	}

	return dataResponse(c, fiber.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
