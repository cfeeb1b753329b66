package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"grocery-service/internal/entity"
)

// ErrInvalidProduct is returned when a catalog write violates a product
// invariant.
var ErrInvalidProduct = errors.New("invalid product")

// ProductService is the catalog layer: admin CRUD plus a redis read cache.
// It never touches stock on the checkout path; that belongs to the order
// repository's transaction.
type ProductService struct {
	productRepo StockLedgerRepo
	rdb         *redis.Client
}

// StockLedgerRepo is the catalog storage surface.
type StockLedgerRepo interface {
	StockLedger
	GetProductByID(ctx context.Context, id int) (*entity.Product, error)
	GetProducts(ctx context.Context) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

// NewProductService creates a new instance of ProductService. rdb may be
// nil; the read cache is then skipped.
func NewProductService(productRepo StockLedgerRepo, rdb *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, rdb: rdb}
}

func validateProduct(p *entity.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	if p.DiscountedPrice < 0 || p.DiscountedPrice > p.Price {
		return fmt.Errorf("%w: discounted price must be within [0, price]", ErrInvalidProduct)
	}
	return nil
}

// GetProduct reads through the cache: redis first, then the database, writing
// the row back into the cache on a miss.
func (p *ProductService) GetProduct(ctx context.Context, productID int) (*entity.Product, error) {
	key := fmt.Sprintf("product:%d", productID)

	if p.rdb != nil {
		cached, err := p.rdb.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Msgf("Error getting product %d from cache", productID)
		}
		if cached != "" {
			var product entity.Product
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
			logger.Warn().Msgf("Dropping unreadable cache entry for product %d", productID)
		}
	}

	product, err := p.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting product by ID %d", productID)
		return nil, err
	}

	p.writeCache(ctx, product)
	return product, nil
}

// ListProducts returns the full catalog straight from the database.
func (p *ProductService) ListProducts(ctx context.Context) ([]*entity.Product, error) {
	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, err
	}
	return products, nil
}

func (p *ProductService) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := p.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}

	p.writeCache(ctx, created)
	return created, nil
}

func (p *ProductService) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := p.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating product %d", product.ID)
		return nil, err
	}

	p.writeCache(ctx, updated)
	return updated, nil
}

func (p *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if err := p.productRepo.DeleteProduct(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %d", id)
		return err
	}

	if p.rdb != nil {
		if err := p.rdb.Del(ctx, fmt.Sprintf("product:%d", id)).Err(); err != nil {
			logger.Error().Err(err).Msgf("Error deleting product %d from cache", id)
		}
	}
	return nil
}

// ValidateStock is the advisory availability check; it bypasses the cache on
// purpose so the report reflects the database, not a cached snapshot.
func (p *ProductService) ValidateStock(ctx context.Context, items []entity.CheckoutItem) ([]entity.StockCheck, error) {
	return p.productRepo.ValidateStock(ctx, items)
}

// PreWarmCache pushes the whole catalog into redis with a short TTL.
func (p *ProductService) PreWarmCache(ctx context.Context) error {
	if p.rdb == nil {
		return nil
	}

	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return err
	}

	for _, product := range products {
		p.writeCache(ctx, product)
	}
	return nil
}

func (p *ProductService) writeCache(ctx context.Context, product *entity.Product) {
	if p.rdb == nil {
		return
	}

	data, err := json.Marshal(product)
	if err != nil {
		return
	}

	key := fmt.Sprintf("product:%d", product.ID)
	if err := p.rdb.Set(ctx, key, data, 1*time.Minute).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting product %d in cache", product.ID)
	}
}
