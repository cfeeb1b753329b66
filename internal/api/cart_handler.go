package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"strconv"

	"grocery-service/internal/service"
)

// sessionHeader carries the device-scoped cart session id. A request without
// one gets a fresh id back in the response header.
const sessionHeader = "Cart-Session"

type CartHandler struct {
	cartService    *service.CartService
	productService *service.ProductService
}

func NewCartHandler(cartService *service.CartService, productService *service.ProductService) *CartHandler {
	return &CartHandler{cartService: cartService, productService: productService}
}

func (h *CartHandler) sessionID(c echo.Context) string {
	id := c.Request().Header.Get(sessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Response().Header().Set(sessionHeader, id)
	return id
}

// GetCart returns the session's cart with selected totals --> GET /cart
func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	return c.JSON(200, map[string]interface{}{
		"items":                h.cartService.Items(ctx, sessionID),
		"selected_total":       h.cartService.SelectedTotal(ctx, sessionID),
		"selected_item_count":  h.cartService.SelectedItemCount(ctx, sessionID),
		"selected_items_count": h.cartService.SelectedItemsCount(ctx, sessionID),
	})
}

// AddItem snapshots the product and puts it in the cart --> POST /cart/items
func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	req := struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	product, err := h.productService.GetProduct(ctx, req.ProductID)
	if err != nil {
		return c.JSON(404, map[string]string{"error": "Product not found"})
	}

	h.cartService.AddItem(ctx, sessionID, *product, req.Quantity)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}

// UpdateQuantity clamps and sets one item's quantity --> PUT /cart/items/:id
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	req := struct {
		Quantity int `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	h.cartService.UpdateQuantity(ctx, sessionID, productID, req.Quantity)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}

// RemoveItem deletes one entry --> DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	h.cartService.RemoveItem(ctx, sessionID, productID)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}

// ClearCart empties the session's cart --> DELETE /cart
func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	h.cartService.ClearCart(ctx, sessionID)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}

// ToggleSelection flips one item's checkout flag --> POST /cart/items/:id/toggle
func (h *CartHandler) ToggleSelection(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	h.cartService.ToggleSelection(ctx, sessionID, productID)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}

// SelectAll marks every item for checkout --> POST /cart/select-all
func (h *CartHandler) SelectAll(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	h.cartService.SelectAll(ctx, sessionID)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}

// UnselectAll clears every checkout flag --> POST /cart/unselect-all
func (h *CartHandler) UnselectAll(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := h.sessionID(c)

	h.cartService.UnselectAll(ctx, sessionID)
	return c.JSON(200, h.cartService.Items(ctx, sessionID))
}
