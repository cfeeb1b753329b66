package service

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"grocery-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// CartPersistence is the durable key-value backing for session carts.
type CartPersistence interface {
	Load(ctx context.Context, sessionID string) ([]entity.CartItem, error)
	Save(ctx context.Context, sessionID string, items []entity.CartItem) error
	Delete(ctx context.Context, sessionID string) error
}

// CartService holds the draft carts of active sessions. A cart is purely a
// local draft over product snapshots cached at add time: quantities are
// clamped against the snapshot's stock on every mutation, but the snapshot
// itself is allowed to go stale. Freshness is only enforced at checkout.
//
// Mutations write through to durable storage fire-and-forget; callers never
// wait on the persistence round trip.
type CartService struct {
	store CartPersistence

	mu    sync.Mutex
	carts map[string][]entity.CartItem
}

// NewCartService creates a new instance of CartService.
func NewCartService(store CartPersistence) *CartService {
	return &CartService{
		store: store,
		carts: make(map[string][]entity.CartItem),
	}
}

// hydrate loads a session's cart from durable storage on first touch.
// Callers must hold s.mu.
func (s *CartService) hydrate(ctx context.Context, sessionID string) []entity.CartItem {
	if items, ok := s.carts[sessionID]; ok {
		return items
	}

	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading cart for session %s, starting empty", sessionID)
		items = []entity.CartItem{}
	}
	s.carts[sessionID] = items
	return items
}

// persist writes the cart snapshot to durable storage without blocking the
// caller. A failed write only costs durability across restarts, never
// in-session correctness.
func (s *CartService) persist(sessionID string, items []entity.CartItem) {
	snapshot := make([]entity.CartItem, len(items))
	copy(snapshot, items)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Save(ctx, sessionID, snapshot); err != nil {
			logger.Error().Err(err).Msgf("Error persisting cart for session %s", sessionID)
		}
	}()
}

func clampQuantity(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// AddItem puts a product into the cart, merging with an existing entry for
// the same product. An out-of-stock product is a no-op; the resulting
// quantity is always within [1, snapshot stock].
func (s *CartService) AddItem(ctx context.Context, sessionID string, product entity.Product, quantity int) {
	if product.Stock <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	for i := range items {
		if items[i].Product.ID == product.ID {
			items[i].Product = product // refresh the snapshot
			items[i].Quantity = clampQuantity(items[i].Quantity+quantity, product.Stock)
			s.persist(sessionID, items)
			return
		}
	}

	items = append(items, entity.CartItem{
		Product:  product,
		Quantity: clampQuantity(quantity, product.Stock),
		Selected: true,
	})
	s.carts[sessionID] = items
	s.persist(sessionID, items)
}

// UpdateQuantity sets an item's quantity, clamped into [1, snapshot stock].
// If the snapshot says the product is out of stock the item is removed.
// An absent product id is a no-op.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	for i := range items {
		if items[i].Product.ID != productID {
			continue
		}

		if items[i].Product.Stock <= 0 {
			s.carts[sessionID] = append(items[:i], items[i+1:]...)
			s.persist(sessionID, s.carts[sessionID])
			return
		}

		items[i].Quantity = clampQuantity(quantity, items[i].Product.Stock)
		s.persist(sessionID, items)
		return
	}
}

// RemoveItem deletes one entry. Removing an id that is not in the cart is a
// no-op.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	for i := range items {
		if items[i].Product.ID == productID {
			s.carts[sessionID] = append(items[:i], items[i+1:]...)
			s.persist(sessionID, s.carts[sessionID])
			return
		}
	}
}

// ClearCart drops every entry for the session.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sessionID] = []entity.CartItem{}
	s.persist(sessionID, s.carts[sessionID])
}

// ClearSelected removes only the selected entries, leaving unselected ones
// in the cart. Checkout calls this after a successful order.
func (s *CartService) ClearSelected(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	kept := make([]entity.CartItem, 0, len(items))
	for _, item := range items {
		if !item.Selected {
			kept = append(kept, item)
		}
	}
	s.carts[sessionID] = kept
	s.persist(sessionID, kept)
}

// ToggleSelection flips one item's checkout flag.
func (s *CartService) ToggleSelection(ctx context.Context, sessionID string, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Selected = !items[i].Selected
			s.persist(sessionID, items)
			return
		}
	}
}

// SelectAll marks every item for checkout.
func (s *CartService) SelectAll(ctx context.Context, sessionID string) {
	s.setAllSelected(ctx, sessionID, true)
}

// UnselectAll clears every item's checkout flag.
func (s *CartService) UnselectAll(ctx context.Context, sessionID string) {
	s.setAllSelected(ctx, sessionID, false)
}

func (s *CartService) setAllSelected(ctx context.Context, sessionID string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	for i := range items {
		items[i].Selected = selected
	}
	s.persist(sessionID, items)
}

// Items returns a copy of the session's cart.
func (s *CartService) Items(ctx context.Context, sessionID string) []entity.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	out := make([]entity.CartItem, len(items))
	copy(out, items)
	return out
}

// SelectedItems returns a copy of the entries flagged for checkout.
func (s *CartService) SelectedItems(ctx context.Context, sessionID string) []entity.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.hydrate(ctx, sessionID)
	selected := make([]entity.CartItem, 0, len(items))
	for _, item := range items {
		if item.Selected {
			selected = append(selected, item)
		}
	}
	return selected
}

// SelectedTotal sums subtotal over the selected entries, using the snapshot
// unit price.
func (s *CartService) SelectedTotal(ctx context.Context, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.hydrate(ctx, sessionID) {
		if item.Selected {
			total += item.Subtotal()
		}
	}
	return total
}

// SelectedItemCount counts distinct selected products.
func (s *CartService) SelectedItemCount(ctx context.Context, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.hydrate(ctx, sessionID) {
		if item.Selected {
			count++
		}
	}
	return count
}

// SelectedItemsCount sums quantities over the selected products.
func (s *CartService) SelectedItemsCount(ctx context.Context, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.hydrate(ctx, sessionID) {
		if item.Selected {
			count += item.Quantity
		}
	}
	return count
}
