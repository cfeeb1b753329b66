package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"grocery-service/internal/entity"
)

var (
	// ErrOrderNotFound is returned when an order id does not resolve.
	ErrOrderNotFound = errors.New("order not found")

	// ErrIllegalTransition is returned when a status update does not follow
	// the order lifecycle.
	ErrIllegalTransition = errors.New("illegal order status transition")
)

// OrderStore is the persisted-order surface the query layer and the status
// machine run over.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error)
	ListOrders(ctx context.Context) ([]*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, from, to entity.OrderStatus) error
}

// OrderService exposes read-only projections over placed orders and drives
// the status lifecycle. Status observation is pull-based: a transition is
// visible on the next fetch, nothing is pushed to buyers.
type OrderService struct {
	store       OrderStore
	kafkaWriter *kafka.Writer
}

// NewOrderService creates a new instance of OrderService. kafkaWriter may be
// nil; status events are then skipped.
func NewOrderService(store OrderStore, kafkaWriter *kafka.Writer) *OrderService {
	return &OrderService{store: store, kafkaWriter: kafkaWriter}
}

// GetOrder returns one order with its line items, or ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		return nil, err
	}

	return order, nil
}

// ListForUser returns a user's orders, newest first. The items list of every
// order is non-nil even when the join found nothing.
func (s *OrderService) ListForUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing orders for user %d", userID)
		return nil, err
	}

	return withItemsNonNil(orders), nil
}

// ListAll returns every order, newest first. Admin use.
func (s *OrderService) ListAll(ctx context.Context) ([]*entity.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}

	return withItemsNonNil(orders), nil
}

// UpdateStatus moves an order along its lifecycle:
// processing -> shipped -> completed, with cancellation allowed out of
// processing or shipped. Completed and cancelled are terminal; any other
// move is rejected without a write. The update is a compare-and-set against
// the status just read, so racing admins cannot overwrite each other.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, next entity.OrderStatus) (*entity.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, next)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, next)
	}

	if err := s.store.UpdateOrderStatus(ctx, id, order.Status, next); err != nil {
		logger.Error().Err(err).Msgf("Error updating status of order %d", id)
		return nil, err
	}

	if err := s.publishStatusEvent(ctx, order, next); err != nil {
		logger.Error().Err(err).Msgf("Error publishing status event for order %d", id)
	}

	// Re-read so the caller observes what the next fetch will show.
	return s.GetOrder(ctx, id)
}

// CancelOrder is the admin shorthand for transitioning to cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, id int) (*entity.Order, error) {
	return s.UpdateStatus(ctx, id, entity.StatusCancelled)
}

func (s *OrderService) publishStatusEvent(ctx context.Context, order *entity.Order, next entity.OrderStatus) error {
	if s.kafkaWriter == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%d", next, order.ID)),
		Value: []byte(fmt.Sprintf(`{"order_id":%d,"user_id":%d,"status":%q}`, order.ID, order.UserID, next)),
	}

	return s.kafkaWriter.WriteMessages(ctx, msg)
}

func withItemsNonNil(orders []*entity.Order) []*entity.Order {
	for _, order := range orders {
		if order.Items == nil {
			order.Items = []entity.OrderItem{}
		}
	}
	return orders
}
