package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"grocery-service/internal/entity"
)

// memCartStore is an in-memory stand-in for the redis cart store.
type memCartStore struct {
	mu    sync.Mutex
	carts map[string][]entity.CartItem
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string][]entity.CartItem)}
}

func (m *memCartStore) Load(ctx context.Context, sessionID string) ([]entity.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]entity.CartItem, len(m.carts[sessionID]))
	copy(items, m.carts[sessionID])
	return items, nil
}

func (m *memCartStore) Save(ctx context.Context, sessionID string, items []entity.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]entity.CartItem, len(items))
	copy(snapshot, items)
	m.carts[sessionID] = snapshot
	return nil
}

func (m *memCartStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// memStore is an in-memory stock ledger plus order store honoring the same
// atomicity contract as the SQL repository: the re-check, the decrement and
// the order insert happen under one lock, or not at all.
type memStore struct {
	mu       sync.Mutex
	products map[int]*entity.Product
	orders   map[int]*entity.Order
	nextID   int
}

func newMemStore(products ...entity.Product) *memStore {
	m := &memStore{
		products: make(map[int]*entity.Product),
		orders:   make(map[int]*entity.Order),
		nextID:   1,
	}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *memStore) stock(productID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		return p.Stock
	}
	return 0
}

func (m *memStore) setPrice(productID, price int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[productID].Price = price
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) ValidateStock(ctx context.Context, items []entity.CheckoutItem) ([]entity.StockCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	checks := make([]entity.StockCheck, 0, len(items))
	for _, item := range items {
		check := entity.StockCheck{ProductID: item.ProductID, RequestedQty: item.Quantity}
		if p, ok := m.products[item.ProductID]; ok {
			check.ProductName = p.Name
			check.AvailableStock = p.Stock
			check.IsAvailable = item.Quantity <= p.Stock
		}
		checks = append(checks, check)
	}
	return checks, nil
}

func (m *memStore) CreateOrder(ctx context.Context, req *entity.CheckoutRequest, customerName string) (*entity.CheckoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range req.Items {
		p, ok := m.products[item.ProductID]
		if !ok {
			return &entity.CheckoutResult{Success: false, Message: fmt.Sprintf("product %d no longer exists", item.ProductID)}, nil
		}
		if item.Quantity > p.Stock {
			return &entity.CheckoutResult{Success: false, Message: fmt.Sprintf("%s: only %d left", p.Name, p.Stock)}, nil
		}
	}

	now := time.Now()
	order := &entity.Order{
		ID:              m.nextID,
		UserID:          req.UserID,
		CustomerName:    customerName,
		Status:          entity.StatusProcessing,
		ShippingAddress: req.ShippingAddress,
		OrderDate:       now,
		UpdatedAt:       now,
		Items:           make([]entity.OrderItem, 0, len(req.Items)),
	}
	m.nextID++

	for _, item := range req.Items {
		p := m.products[item.ProductID]
		p.Stock -= item.Quantity
		unitPrice := p.UnitPrice()
		order.Items = append(order.Items, entity.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    item.Quantity * unitPrice,
		})
		order.TotalPrice += item.Quantity * unitPrice
	}

	m.orders[order.ID] = order
	return &entity.CheckoutResult{OrderID: order.ID, Success: true, Message: "order created"}, nil
}

func (m *memStore) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *order
	return &cp, nil
}

func (m *memStore) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []*entity.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			cp := *order
			orders = append(orders, &cp)
		}
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (m *memStore) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []*entity.Order
	for _, order := range m.orders {
		cp := *order
		orders = append(orders, &cp)
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, id int, from, to entity.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok || order.Status != from {
		return errors.New("order status changed concurrently or order not found")
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return nil
}

func sortOrdersNewestFirst(orders []*entity.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}

// failingOrderCreator simulates a transport failure: the call errors and the
// caller cannot know whether the order was created.
type failingOrderCreator struct{}

func (failingOrderCreator) CreateOrder(ctx context.Context, req *entity.CheckoutRequest, customerName string) (*entity.CheckoutResult, error) {
	return nil, errors.New("connection reset")
}

// fakeUsers resolves buyers from a fixed set.
type fakeUsers struct {
	users map[int]*entity.User
}

func newFakeUsers(users ...entity.User) *fakeUsers {
	f := &fakeUsers{users: make(map[int]*entity.User)}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}
