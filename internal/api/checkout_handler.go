package api

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"grocery-service/internal/service"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func claimsFrom(c echo.Context) (*service.JwtCustomClaims, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*service.JwtCustomClaims)
	return claims, ok
}

// ValidateSelection runs the advisory stock check --> POST /checkout/validate
func (h *CheckoutHandler) ValidateSelection(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Request().Header.Get(sessionHeader)

	checks, err := h.checkoutService.ValidateSelection(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrEmptySelection) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, checks)
}

// Checkout converts the selected cart items into an order --> POST /checkout
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Request().Header.Get(sessionHeader)

	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	req := struct {
		ShippingAddress string `json:"shipping_address"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	idempotentKey := c.Request().Header.Get("Idempotent-Key")

	result, err := h.checkoutService.Checkout(ctx, sessionID, claims.UserID, req.ShippingAddress, idempotentKey)
	if err != nil {
		var shortage *service.ShortageError
		switch {
		case errors.As(err, &shortage):
			return c.JSON(409, map[string]interface{}{
				"error": shortage.Error(),
				"items": shortage.Checks,
			})
		case errors.Is(err, service.ErrEmptySelection), errors.Is(err, service.ErrUserNotFound):
			return c.JSON(400, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrDuplicateCheckout):
			return c.JSON(409, map[string]string{"error": err.Error()})
		default:
			// Transport failure: the outcome is unknown, tell the buyer to
			// check their orders before retrying.
			return c.JSON(500, map[string]string{"error": "checkout failed, please check your orders before retrying"})
		}
	}

	if !result.Success {
		return c.JSON(409, result)
	}

	return c.JSON(200, result)
}
