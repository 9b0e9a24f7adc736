package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/pickupshop/pkg/models"
)

var (
	// ErrNoData means nothing has been stored under the key yet.
	ErrNoData = errors.New("no stored data")
	// ErrCorruptState means the stored collection could not be decoded.
	ErrCorruptState = errors.New("corrupt persisted state")
)

// BlobStore is an opaque durable key/value store of whole collections.
// Get returns ErrNoData when the key is absent.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Repository is the persistence boundary of the engine.
type Repository interface {
	LoadProducts(ctx context.Context) ([]models.Product, error)
	SaveProducts(ctx context.Context, products []models.Product) error
	LoadOrders(ctx context.Context) ([]models.Order, error)
	SaveOrders(ctx context.Context, orders []models.Order) error
	LoadCategories(ctx context.Context) ([]models.Category, error)
	SaveCategories(ctx context.Context, categories []models.Category) error
}

const (
	productsKey   = "products"
	ordersKey     = "orders"
	categoriesKey = "categories"
)

// Collections stores each collection as one JSON document in a BlobStore.
type Collections struct {
	blobs  BlobStore
	prefix string
}

func NewCollections(blobs BlobStore, prefix string) *Collections {
	return &Collections{blobs: blobs, prefix: prefix}
}

func (c *Collections) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "_" + name
}

func (c *Collections) LoadProducts(ctx context.Context) ([]models.Product, error) {
	return load[models.Product](ctx, c, productsKey)
}

func (c *Collections) SaveProducts(ctx context.Context, products []models.Product) error {
	return c.save(ctx, productsKey, products)
}

func (c *Collections) LoadOrders(ctx context.Context) ([]models.Order, error) {
	return load[models.Order](ctx, c, ordersKey)
}

func (c *Collections) SaveOrders(ctx context.Context, orders []models.Order) error {
	return c.save(ctx, ordersKey, orders)
}

func (c *Collections) LoadCategories(ctx context.Context) ([]models.Category, error) {
	return load[models.Category](ctx, c, categoriesKey)
}

func (c *Collections) SaveCategories(ctx context.Context, categories []models.Category) error {
	return c.save(ctx, categoriesKey, categories)
}

func load[T any](ctx context.Context, c *Collections, name string) ([]T, error) {
	data, err := c.blobs.Get(ctx, c.key(name))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, name, err)
	}
	// "null" decodes without error but is not a collection.
	if out == nil {
		return nil, fmt.Errorf("%w: %s is not an array", ErrCorruptState, name)
	}
	return out, nil
}

func (c *Collections) save(ctx context.Context, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := c.blobs.Put(ctx, c.key(name), data); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}
