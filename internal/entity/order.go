package entity

import "time"

// OrderStatus is the lifecycle state of a placed order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the move from s to next is legal:
// processing -> shipped -> completed, with cancellation allowed from
// processing or shipped. Completed and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Order is the persisted order header with its line items inlined.
// TotalPrice is fixed at creation time and never recomputed, so later
// catalog price edits do not touch placed orders.
type Order struct {
	ID              int         `json:"id"`
	UserID          int         `json:"user_id"`
	CustomerName    string      `json:"customer_name"`
	TotalPrice      int         `json:"total_price"`
	Status          OrderStatus `json:"status"`
	ShippingAddress string      `json:"shipping_address"`
	OrderDate       time.Time   `json:"order_date"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Items           []OrderItem `json:"items"`
}

// OrderItem is one line of an order. ProductName and UnitPrice are
// denormalized snapshots taken inside the checkout transaction and are
// never mutated afterwards.
type OrderItem struct {
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"`
	Subtotal    int    `json:"subtotal"`
}

/*
Mysql Tables

CREATE TABLE orders (
	id INT AUTO_INCREMENT PRIMARY KEY,
	user_id INT NOT NULL,
	customer_name VARCHAR(255) NOT NULL,
	total_price INT NOT NULL,
	status VARCHAR(20) NOT NULL,
	shipping_address TEXT,
	order_date DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE order_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id INT NOT NULL REFERENCES orders(id),
	product_id INT NOT NULL,
	product_name VARCHAR(255) NOT NULL,
	quantity INT NOT NULL,
	unit_price INT NOT NULL,
	subtotal INT NOT NULL
);
*/
