package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/api-gateway/internal/api/dto"
	"github.com/spec-kit/api-gateway/internal/domain"
	"github.com/spec-kit/api-gateway/internal/identity"
)

// AuthHandler exposes the public identity endpoints. These routes are
// never behind the authorization filter.
type AuthHandler struct {
	identity *identity.Service
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identityService *identity.Service) *AuthHandler {
	return &AuthHandler{identity: identityService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return fiber.NewError(http.StatusBadRequest, "email, password, fullName required")
	}

	role := domain.RoleCustomer
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		role = parsed
	}

	issued, err := h.identity.Register(c.Context(), req.Email, req.Password, req.FullName, role)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(authResponse(issued, "Registration successful"))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	issued, err := h.identity.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(authResponse(issued, "Login successful"))
}

// Refresh handles POST /api/auth/refresh. Accepts the old token in the
// body or as a bearer header.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	_ = c.BodyParser(&req)
	token := req.Token
	if token == "" {
		auth := c.Get(fiber.HeaderAuthorization)
		if len(auth) > len("Bearer ") && auth[:len("Bearer ")] == "Bearer " {
			token = auth[len("Bearer "):]
		}
	}
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token required")
	}

	issued, err := h.identity.Refresh(c.Context(), token)
	if err != nil {
		return err
	}

	return c.JSON(authResponse(issued, "Token refreshed successfully"))
}

// Validate handles GET /api/auth/validate?token=.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token query parameter required")
	}
	return c.JSON(fiber.Map{"valid": h.identity.Validate(token)})
}

func authResponse(issued *identity.IssuedIdentity, message string) dto.AuthResponse {
	return dto.AuthResponse{
		Token:    issued.Token,
		UserID:   issued.UserID,
		Email:    issued.Email,
		FullName: issued.FullName,
		Role:     issued.Role,
		Message:  message,
	}
}
