package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"grocery-service/internal/entity"
)

var (
	// ErrEmptySelection means no cart item was flagged for checkout; the
	// transaction is never attempted.
	ErrEmptySelection = errors.New("no items selected for checkout")

	// ErrUserNotFound means the buyer did not resolve to an existing user;
	// the transaction is never attempted.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateCheckout means the supplied idempotency key was already
	// used, so this request is a replay of an earlier one.
	ErrDuplicateCheckout = errors.New("checkout already submitted")

	// ErrCheckoutFailed wraps transport or infrastructure failures of the
	// order-creation call. The outcome is unknown: the order may or may not
	// exist, and the caller must not retry blindly without a fresh
	// idempotency key.
	ErrCheckoutFailed = errors.New("checkout failed, outcome unknown")
)

// ShortageError reports the advisory pre-check items that do not fit current
// stock. The cart is left untouched; the buyer adjusts and retries.
type ShortageError struct {
	Checks []entity.StockCheck
}

func (e *ShortageError) Error() string {
	parts := make([]string, 0, len(e.Checks))
	for _, c := range e.Checks {
		parts = append(parts, fmt.Sprintf("%s: only %d left", c.ProductName, c.AvailableStock))
	}
	return strings.Join(parts, "; ")
}

// StockLedger is the advisory, read-only view of product availability.
type StockLedger interface {
	ValidateStock(ctx context.Context, items []entity.CheckoutItem) ([]entity.StockCheck, error)
}

// OrderCreator is the atomic order-creation operation. It is the sole
// stock-consuming path: it re-checks, decrements and persists as one unit,
// or does nothing at all.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req *entity.CheckoutRequest, customerName string) (*entity.CheckoutResult, error)
}

// UserDirectory resolves buyer ids for the checkout precondition.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int) (*entity.User, error)
}

// CheckoutService drives one checkout attempt: preconditions, advisory stock
// validation, the atomic creation call, then cart cleanup and event
// publication on success.
type CheckoutService struct {
	ledger      StockLedger
	orders      OrderCreator
	users       UserDirectory
	cart        *CartService
	kafkaWriter *kafka.Writer
	rdb         *redis.Client
}

// NewCheckoutService creates a new instance of CheckoutService. kafkaWriter
// and rdb may be nil; event publication and idempotency-key tracking are
// then skipped.
func NewCheckoutService(ledger StockLedger, orders OrderCreator, users UserDirectory, cart *CartService, kafkaWriter *kafka.Writer, rdb *redis.Client) *CheckoutService {
	return &CheckoutService{
		ledger:      ledger,
		orders:      orders,
		users:       users,
		cart:        cart,
		kafkaWriter: kafkaWriter,
		rdb:         rdb,
	}
}

// ValidateSelection runs the advisory stock check over the session's selected
// cart items without mutating anything. The report is per item so the UI can
// say exactly which product is short and by how much.
func (s *CheckoutService) ValidateSelection(ctx context.Context, sessionID string) ([]entity.StockCheck, error) {
	selected := s.cart.SelectedItems(ctx, sessionID)
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	return s.ledger.ValidateStock(ctx, toCheckoutItems(selected))
}

// Checkout converts the session's selected cart items into a persisted order.
//
// Ordering within one attempt: resolve user, advisory validation, atomic
// creation call, cart cleanup, event publication. Any failure before the
// creation call leaves every store untouched. A rejection by the creation
// call itself is returned as an unsuccessful result with no state change.
// Only a transport failure is returned as an error, because then the outcome
// is genuinely unknown.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, userID int, shippingAddress, idempotentKey string) (*entity.CheckoutResult, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msgf("Checkout rejected: user %d not found", userID)
		return nil, ErrUserNotFound
	}

	selected := s.cart.SelectedItems(ctx, sessionID)
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}
	items := toCheckoutItems(selected)

	// Advisory pass. Stock can still change before the transaction runs;
	// the authoritative re-check happens inside CreateOrder.
	checks, err := s.ledger.ValidateStock(ctx, items)
	if err != nil {
		logger.Error().Err(err).Msg("Error validating stock")
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	var short []entity.StockCheck
	for _, check := range checks {
		if !check.IsAvailable {
			short = append(short, check)
		}
	}
	if len(short) > 0 {
		return nil, &ShortageError{Checks: short}
	}

	if err := s.claimIdempotentKey(ctx, idempotentKey); err != nil {
		return nil, err
	}

	result, err := s.orders.CreateOrder(ctx, &entity.CheckoutRequest{
		UserID:          userID,
		Items:           items,
		ShippingAddress: shippingAddress,
		IdempotentKey:   idempotentKey,
	}, user.Username)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating order for user %d", userID)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	if !result.Success {
		// Authoritative re-check refused; nothing was written. Surface the
		// server's reason and leave the cart as it was.
		logger.Warn().Msgf("Checkout rejected for user %d: %s", userID, result.Message)
		return result, nil
	}

	// Only the checked-out subset leaves the cart.
	s.cart.ClearSelected(ctx, sessionID)

	if err := s.publishOrderEvent(ctx, result.OrderID, userID, items, "created"); err != nil {
		logger.Error().Err(err).Msgf("Error publishing created event for order %d", result.OrderID)
	}

	return result, nil
}

// claimIdempotentKey registers the key in redis with a TTL. A key seen
// before means this request is a replay and must not create a second order.
// An empty key skips the guard.
func (s *CheckoutService) claimIdempotentKey(ctx context.Context, key string) error {
	if key == "" || s.rdb == nil {
		return nil
	}

	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	ok, err := s.rdb.SetNX(ctx, redisKey, "exists", 24*time.Hour).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	if !ok {
		return ErrDuplicateCheckout
	}

	return nil
}

type orderEvent struct {
	OrderID int                   `json:"order_id"`
	UserID  int                   `json:"user_id"`
	Items   []entity.CheckoutItem `json:"items,omitempty"`
	Status  string                `json:"status"`
}

func (s *CheckoutService) publishOrderEvent(ctx context.Context, orderID, userID int, items []entity.CheckoutItem, key string) error {
	if s.kafkaWriter == nil {
		return nil
	}

	payload, err := json.Marshal(orderEvent{OrderID: orderID, UserID: userID, Items: items, Status: key})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%d", key, orderID)),
		Value: payload,
	}

	return s.kafkaWriter.WriteMessages(ctx, msg)
}

func toCheckoutItems(items []entity.CartItem) []entity.CheckoutItem {
	out := make([]entity.CheckoutItem, 0, len(items))
	for _, item := range items {
		out = append(out, entity.CheckoutItem{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
		})
	}
	return out
}
