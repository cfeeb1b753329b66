package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grocery-service/internal/entity"
)

// ErrStatusConflict is returned when a status update loses the compare-and-set
// against a concurrent writer, or when the order does not exist.
var ErrStatusConflict = errors.New("order status changed concurrently or order not found")

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// CreateOrder is the only path that consumes stock. It runs as one
// transaction: every product row is locked and re-checked, stock is
// decremented, the order header and its items are inserted, and everything
// commits together. A failed re-check rolls the whole thing back and returns
// a rejection result with nil error; an infrastructure error returns a nil
// result, which callers must treat as unknown outcome.
func (r *OrderRepository) CreateOrder(ctx context.Context, req *entity.CheckoutRequest, customerName string) (*entity.CheckoutResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	// Lock and re-check each product row. FOR UPDATE keeps two concurrent
	// checkouts of the same product serialized, so stock can never go
	// negative.
	lockQuery := `SELECT name, stock, price, discounted_price FROM products WHERE id = ? FOR UPDATE`

	type lockedProduct struct {
		name      string
		unitPrice int
	}
	locked := make(map[int]lockedProduct, len(req.Items))

	for _, item := range req.Items {
		var p entity.Product
		err := tx.QueryRowContext(ctx, lockQuery, item.ProductID).Scan(&p.Name, &p.Stock, &p.Price, &p.DiscountedPrice)
		if errors.Is(err, sql.ErrNoRows) {
			tx.Rollback()
			return &entity.CheckoutResult{
				Success: false,
				Message: fmt.Sprintf("product %d no longer exists", item.ProductID),
			}, nil
		}
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		if item.Quantity > p.Stock {
			tx.Rollback()
			return &entity.CheckoutResult{
				Success: false,
				Message: fmt.Sprintf("%s: only %d left", p.Name, p.Stock),
			}, nil
		}

		locked[item.ProductID] = lockedProduct{name: p.Name, unitPrice: p.UnitPrice()}
	}

	// All items satisfiable; consume stock.
	decQuery := `UPDATE products SET stock = stock - ? WHERE id = ?`
	for _, item := range req.Items {
		if _, err := tx.ExecContext(ctx, decQuery, item.Quantity, item.ProductID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	total := 0
	for _, item := range req.Items {
		total += item.Quantity * locked[item.ProductID].unitPrice
	}

	now := time.Now()
	orderQuery := `INSERT INTO orders (user_id, customer_name, total_price, status, shipping_address, order_date, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, req.UserID, customerName, total, entity.StatusProcessing, req.ShippingAddress, now, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Insert line items with batch, denormalizing name and price so the
	// order stays stable under later catalog edits.
	itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal) VALUES `

	var values []interface{}
	for _, item := range req.Items {
		p := locked[item.ProductID]
		itemQuery += "(?, ?, ?, ?, ?, ?),"
		values = append(values, orderID, item.ProductID, p.name, item.Quantity, p.unitPrice, item.Quantity*p.unitPrice)
	}
	itemQuery = itemQuery[:len(itemQuery)-1]

	_, err = tx.ExecContext(ctx, itemQuery, values...)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return &entity.CheckoutResult{
		OrderID: int(orderID),
		Success: true,
		Message: "order created",
	}, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	orderQuery := `SELECT id, user_id, customer_name, total_price, status, shipping_address, order_date, updated_at FROM orders WHERE id = ?`

	order := &entity.Order{}
	err := r.db.QueryRowContext(ctx, orderQuery, id).Scan(
		&order.ID, &order.UserID, &order.CustomerName, &order.TotalPrice, &order.Status,
		&order.ShippingAddress, &order.OrderDate, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	order.Items, err = r.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrdersByUser returns a user's orders, newest first, with line items
// inlined.
func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	query := `SELECT id, user_id, customer_name, total_price, status, shipping_address, order_date, updated_at FROM orders WHERE user_id = ? ORDER BY order_date DESC`
	return r.listOrders(ctx, query, userID)
}

// ListOrders returns every order, newest first. Admin use.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	query := `SELECT id, user_id, customer_name, total_price, status, shipping_address, order_date, updated_at FROM orders ORDER BY order_date DESC`
	return r.listOrders(ctx, query)
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...interface{}) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order := &entity.Order{}
		err := rows.Scan(&order.ID, &order.UserID, &order.CustomerName, &order.TotalPrice, &order.Status,
			&order.ShippingAddress, &order.OrderDate, &order.UpdatedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		order.Items, err = r.getOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// getOrderItems always returns a non-nil slice so downstream aggregate math
// never trips over a missing items list.
func (r *OrderRepository) getOrderItems(ctx context.Context, orderID int) ([]entity.OrderItem, error) {
	query := `SELECT product_id, product_name, quantity, unit_price, subtotal FROM order_items WHERE order_id = ?`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]entity.OrderItem, 0)
	for rows.Next() {
		item := entity.OrderItem{}
		err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Subtotal)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// UpdateOrderStatus moves an order from one status to another with a
// compare-and-set, so a concurrent transition cannot be silently overwritten.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int, from, to entity.OrderStatus) error {
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	return nil
}
