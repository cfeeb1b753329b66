package repository

import (
	"context"
	"database/sql"
	"errors"

	"grocery-service/internal/entity"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	product := &entity.Product{}

	query := `SELECT id, name, description, price, stock, category_id, discount_percent, discounted_price, image_url FROM products WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock,
		&product.CategoryID, &product.DiscountPercent, &product.DiscountedPrice, &product.ImageURL)
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `INSERT INTO products (name, description, price, stock, category_id, discount_percent, discounted_price, image_url) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, product.Stock,
		product.CategoryID, product.DiscountPercent, product.DiscountedPrice, product.ImageURL)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	product.ID = int(id)
	return product, nil
}

// UpdateProduct overwrites catalog fields. Stock is written as supplied here;
// checkout never goes through this path, it decrements inside its own
// transaction.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `UPDATE products SET name = ?, description = ?, price = ?, stock = ?, category_id = ?, discount_percent = ?, discounted_price = ?, image_url = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, product.Stock,
		product.CategoryID, product.DiscountPercent, product.DiscountedPrice, product.ImageURL, product.ID)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return nil
}

func (r *ProductRepository) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	var products []*entity.Product

	query := `SELECT id, name, description, price, stock, category_id, discount_percent, discounted_price, image_url FROM products`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var product entity.Product
		err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock,
			&product.CategoryID, &product.DiscountPercent, &product.DiscountedPrice, &product.ImageURL)
		if err != nil {
			return nil, err
		}
		products = append(products, &product)
	}

	return products, rows.Err()
}

// ValidateStock reports, for each requested (product, quantity) pair, the
// current stock figure and whether the request fits in it. Nothing is
// reserved or mutated; the figure can go stale the moment it is read. An
// unknown product id comes back as unavailable with zero stock.
func (r *ProductRepository) ValidateStock(ctx context.Context, items []entity.CheckoutItem) ([]entity.StockCheck, error) {
	checks := make([]entity.StockCheck, 0, len(items))

	query := `SELECT name, stock FROM products WHERE id = ?`
	for _, item := range items {
		check := entity.StockCheck{
			ProductID:    item.ProductID,
			RequestedQty: item.Quantity,
		}

		err := r.db.QueryRowContext(ctx, query, item.ProductID).Scan(&check.ProductName, &check.AvailableStock)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		check.IsAvailable = err == nil && item.Quantity <= check.AvailableStock
		checks = append(checks, check)
	}

	return checks, nil
}
