package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"grocery-service/internal/entity"
	"grocery-service/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUserByID retrieves a user by ID --> GET /users/:id
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id := c.Param("id")
	idInt, err := strconv.Atoi(id)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	user, err := h.userService.GetUserByID(c.Request().Context(), idInt)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, user)
}

// CreateUser registers a new user --> POST /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	user := entity.User{}
	if err := c.Bind(&user); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	createdUser, err := h.userService.CreateUser(c.Request().Context(), &user)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, createdUser)
}

// Login logs in a user --> POST /users/login
func (h *UserHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	login := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}

	if err := c.Bind(&login); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	token, err := h.userService.Login(ctx, login.Email, login.Password)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]string{"token": token})
}

// ValidateSession validates a session token --> GET /users/validate
func (h *UserHandler) ValidateSession(c echo.Context) error {
	ctx := c.Request().Context()

	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	token, err := h.userService.ValidateToken(ctx, claims.Email)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	if token == "" {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	return c.JSON(200, map[string]string{"message": "Session is valid"})
}
