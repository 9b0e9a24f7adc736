package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/pickupshop/pkg/models"
	"github.com/example/pickupshop/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OthersGroup names the storefront bucket for products whose category is
// missing or no longer exists.
const OthersGroup = "Outros"

type entry struct {
	mu      sync.Mutex
	product models.Product
}

// Store owns products, their stock and the category list. The product table
// is guarded by mu; each product's stock is guarded by its entry mutex, so
// stock mutations on different products never contend.
type Store struct {
	mu         sync.RWMutex
	ids        []string
	products   map[string]*entry
	categories []models.Category

	persistMu sync.Mutex
	repo      repository.Repository
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the catalog from repo. Missing or corrupt collections are
// replaced by the default catalog; any other load error is returned.
func Open(ctx context.Context, repo repository.Repository, logger *zap.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		products: make(map[string]*entry),
		repo:     repo,
		logger:   logger.Named("catalog"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	products, err := repo.LoadProducts(ctx)
	if err != nil {
		if !s.recoverable("products", err) {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}
		products = DefaultProducts()
	}
	for _, p := range products {
		if _, dup := s.products[p.ID]; dup || p.ID == "" {
			s.logger.Warn("Skipping stored product with missing or duplicate id", zap.String("product_id", p.ID))
			continue
		}
		s.ids = append(s.ids, p.ID)
		s.products[p.ID] = &entry{product: sanitizeStored(p)}
	}

	categories, err := repo.LoadCategories(ctx)
	if err != nil {
		if !s.recoverable("categories", err) {
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
		categories = DefaultCategories()
	}
	s.categories = categories

	return s, nil
}

func (s *Store) recoverable(collection string, err error) bool {
	switch {
	case errors.Is(err, repository.ErrNoData):
		s.logger.Info("No stored collection, using defaults", zap.String("collection", collection))
		return true
	case errors.Is(err, repository.ErrCorruptState):
		s.logger.Warn("Stored collection is corrupt, using defaults",
			zap.String("collection", collection), zap.Error(err))
		return true
	}
	return false
}

// sanitizeStored restores the stock invariants on data read back from storage.
func sanitizeStored(p models.Product) models.Product {
	p = p.Clone()
	if p.Stock < 0 {
		p.Stock = 0
	}
	for i := range p.Variants {
		if p.Variants[i].Stock < 0 {
			p.Variants[i].Stock = 0
		}
	}
	if p.HasVariants() {
		p.Stock = p.TotalStock()
	}
	return p
}

func (s *Store) List() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked requires s.mu to be held.
func (s *Store) snapshotLocked() []models.Product {
	out := make([]models.Product, 0, len(s.ids))
	for _, id := range s.ids {
		e := s.products[id]
		e.mu.Lock()
		out = append(out, e.product.Clone())
		e.mu.Unlock()
	}
	return out
}

func (s *Store) Get(id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.product.Clone(), nil
}

// Upsert replaces the product with the same ID wholesale, or adds it when
// the ID is empty or unknown. For products with variants the flat stock is
// always recomputed from the variant stocks.
func (s *Store) Upsert(ctx context.Context, p models.Product) (models.Product, error) {
	p, err := normalize(p)
	if err != nil {
		return models.Product{}, err
	}

	s.mu.Lock()
	now := s.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.UpdatedAt = now
	if e, ok := s.products[p.ID]; ok {
		p.CreatedAt = e.product.CreatedAt
		e.product = p
	} else {
		p.CreatedAt = now
		s.ids = append(s.ids, p.ID)
		s.products[p.ID] = &entry{product: p}
	}
	saved := p.Clone()
	s.mu.Unlock()

	s.logger.Info("Product saved",
		zap.String("product_id", saved.ID),
		zap.Int("stock", saved.Stock),
		zap.Int("variants", len(saved.Variants)))
	s.persistProducts(ctx)
	return saved, nil
}

func normalize(p models.Product) (models.Product, error) {
	p = p.Clone()
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)

	if p.Name == "" {
		return p, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return p, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.PromoPrice != nil && p.PromoPrice.IsNegative() {
		return p, fmt.Errorf("%w: promotional price must not be negative", ErrInvalidProduct)
	}
	variants := make([]models.Variant, 0, len(p.Variants))
	seen := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		v.Label = strings.TrimSpace(v.Label)
		if v.Label == "" {
			continue
		}
		if _, dup := seen[v.Label]; dup {
			return p, fmt.Errorf("%w: duplicate variant %q", ErrInvalidProduct, v.Label)
		}
		if v.Stock < 0 {
			return p, fmt.Errorf("%w: variant %q stock must not be negative", ErrInvalidProduct, v.Label)
		}
		seen[v.Label] = struct{}{}
		variants = append(variants, v)
	}
	p.Variants = nil
	if len(variants) > 0 {
		p.Variants = variants
		p.Stock = p.TotalStock()
	} else if p.Stock < 0 {
		return p, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	if strings.TrimSpace(p.Image) == "" {
		p.Image = models.DefaultImage
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.products[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(s.products, id)
	for i, pid := range s.ids {
		if pid == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Info("Product deleted", zap.String("product_id", id))
	s.persistProducts(ctx)
	return nil
}

func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Store) AddCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, ErrInvalidCategory
	}

	s.mu.Lock()
	var maxID int64
	for _, c := range s.categories {
		if c.Name == name {
			s.mu.Unlock()
			return models.Category{}, fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
		}
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	c := models.Category{ID: maxID + 1, Name: name}
	s.categories = append(s.categories, c)
	s.mu.Unlock()

	s.persistCategories(ctx)
	return c, nil
}

// RemoveCategory deletes the category only. Products keep the old name and
// fall into the OthersGroup bucket.
func (s *Store) RemoveCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.mu.Unlock()

	s.persistCategories(ctx)
	return nil
}

type Group struct {
	Category models.Category  `json:"category"`
	Products []models.Product `json:"products"`
}

// Grouped lists products per category in category order, skipping empty
// categories, followed by the OthersGroup bucket when needed.
func (s *Store) Grouped() []Group {
	s.mu.RLock()
	products := s.snapshotLocked()
	categories := make([]models.Category, len(s.categories))
	copy(categories, s.categories)
	s.mu.RUnlock()

	known := make(map[string]struct{}, len(categories))
	var groups []Group
	for _, c := range categories {
		known[c.Name] = struct{}{}
		var items []models.Product
		for _, p := range products {
			if p.Category == c.Name {
				items = append(items, p)
			}
		}
		if len(items) > 0 {
			groups = append(groups, Group{Category: c, Products: items})
		}
	}

	var others []models.Product
	for _, p := range products {
		if _, ok := known[p.Category]; !ok {
			others = append(others, p)
		}
	}
	if len(others) > 0 {
		groups = append(groups, Group{Category: models.Category{Name: OthersGroup}, Products: others})
	}
	return groups
}

// Persist writes the product collection. Saves are serialized and each one
// takes a fresh snapshot, so the last write always reflects the newest state.
func (s *Store) Persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	return s.repo.SaveProducts(ctx, s.List())
}

func (s *Store) persistProducts(ctx context.Context) {
	if err := s.Persist(ctx); err != nil {
		s.logger.Error("Failed to persist products", zap.Error(err))
	}
}

func (s *Store) persistCategories(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.repo.SaveCategories(ctx, s.Categories()); err != nil {
		s.logger.Error("Failed to persist categories", zap.Error(err))
	}
}
