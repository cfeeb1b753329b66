package api

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"grocery-service/internal/entity"
	"grocery-service/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// ListMyOrders lists the caller's orders, newest first --> GET /orders
func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	orders, err := h.orderService.ListForUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, orders)
}

// ListAllOrders lists every order for admins --> GET /orders/all
func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok || claims.Role != "admin" {
		return c.JSON(403, map[string]string{"error": "Forbidden"})
	}

	orders, err := h.orderService.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, orders)
}

// GetOrder returns one order with its line items --> GET /orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	if order.UserID != claims.UserID && claims.Role != "admin" {
		return c.JSON(403, map[string]string{"error": "Forbidden"})
	}

	return c.JSON(200, order)
}

// UpdateStatus moves an order along its lifecycle --> PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok || claims.Role != "admin" {
		return c.JSON(403, map[string]string{"error": "Forbidden"})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	req := struct {
		Status entity.OrderStatus `json:"status"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return c.JSON(404, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrIllegalTransition):
			return c.JSON(422, map[string]string{"error": err.Error()})
		default:
			return c.JSON(500, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(200, order)
}
