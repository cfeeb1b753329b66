package api

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"grocery-service/internal/entity"
	"grocery-service/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ListProducts returns the catalog --> GET /products
func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.productService.ListProducts(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, products)
}

// GetProduct returns one product --> GET /products/:id
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	product, err := h.productService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return c.JSON(404, map[string]string{"error": "Product not found"})
	}

	return c.JSON(200, product)
}

// CreateProduct adds a catalog row --> POST /products (admin)
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok || claims.Role != "admin" {
		return c.JSON(403, map[string]string{"error": "Forbidden"})
	}

	product := entity.Product{}
	if err := c.Bind(&product); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	created, err := h.productService.CreateProduct(c.Request().Context(), &product)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, created)
}

// UpdateProduct overwrites a catalog row --> PUT /products/:id (admin)
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok || claims.Role != "admin" {
		return c.JSON(403, map[string]string{"error": "Forbidden"})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	product := entity.Product{}
	if err := c.Bind(&product); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	product.ID = id

	updated, err := h.productService.UpdateProduct(c.Request().Context(), &product)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, updated)
}

// DeleteProduct removes a catalog row --> DELETE /products/:id (admin)
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok || claims.Role != "admin" {
		return c.JSON(403, map[string]string{"error": "Forbidden"})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]string{"message": "Product deleted"})
}
