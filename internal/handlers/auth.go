package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bozor/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SendOTP dispatches a verification code to the phone/email pair.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req services.SendOTPInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	code, err := h.auth.SendOTP(c.UserContext(), req)
	if err != nil {
		return err
	}

	resp := fiber.Map{"success": true, "message": "verification code sent"}
	if code != "" {
		resp["otp"] = code
	}
	return c.JSON(resp)
}

// VerifyOTP checks a submitted code.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req services.VerifyOTPInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.auth.VerifyOTP(c.UserContext(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "OTP verified successfully"})
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": user})
}

// CreateSuperAdmin lets an admin create a SUPERADMIN account.
func (h *AuthHandler) CreateSuperAdmin(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.auth.CreateSuperAdmin(c.UserContext(), actor.Role, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": user})
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	pair, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"accesstoken":  pair.AccessToken,
		"refreshtoken": pair.RefreshToken,
	})
}

type tokenRequest struct {
	Token string `json:"token"`
}

// Refresh issues a new access token for a tracked refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	access, err := h.auth.Refresh(c.UserContext(), req.Token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "accesstoken": access})
}

// Logout revokes a refresh token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.auth.Logout(c.UserContext(), req.Token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}
