package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/pickupshop/pkg/cart"
	"github.com/example/pickupshop/pkg/catalog"
	"github.com/example/pickupshop/pkg/models"
	"github.com/example/pickupshop/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Inventory is the slice of the catalog the manager drives.
type Inventory interface {
	Get(id string) (models.Product, error)
	Reserve(productID, label string, qty int) error
	Release(productID, label string, qty int) error
	Persist(ctx context.Context) error
}

type Repository interface {
	LoadOrders(ctx context.Context) ([]models.Order, error)
	SaveOrders(ctx context.Context, orders []models.Order) error
}

// EventSink receives an event after every applied order mutation.
type EventSink interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

type Options struct {
	Catalog    Inventory
	Repository Repository
	Events     EventSink
	Logger     *zap.Logger
	Now        func() time.Time
	NewID      func() string
	NewNumber  func() string
}

// Manager owns the order collection. All order mutations are serialized by
// mu; stock is additionally protected by the catalog's per-product locks.
type Manager struct {
	mu     sync.Mutex
	orders []models.Order
	index  map[string]int

	persistMu sync.Mutex
	catalog   Inventory
	repo      Repository
	events    EventSink
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	newNumber func() string
}

// RandomNumber is a six digit display number. It is not unique.
func RandomNumber() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}

func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	m := &Manager{
		index:     make(map[string]int),
		catalog:   opts.Catalog,
		repo:      opts.Repository,
		events:    opts.Events,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
		newNumber: opts.NewNumber,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.logger = m.logger.Named("orders")
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.newNumber == nil {
		m.newNumber = RandomNumber
	}

	orders, err := m.repo.LoadOrders(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNoData):
		orders = nil
	case errors.Is(err, repository.ErrCorruptState):
		m.logger.Warn("Stored orders are corrupt, starting empty", zap.Error(err))
		orders = nil
	default:
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	for _, o := range orders {
		if _, dup := m.index[o.ID]; dup || o.ID == "" {
			m.logger.Warn("Skipping stored order with missing or duplicate id", zap.String("order_id", o.ID))
			continue
		}
		m.index[o.ID] = len(m.orders)
		m.orders = append(m.orders, o)
	}

	return m, nil
}

type reservation struct {
	productID string
	variant   string
	quantity  int
}

// Checkout reserves stock for every cart line and records the order. Either
// every line is reserved or none is: a failure releases the reservations
// already taken in this call before the error is returned.
func (m *Manager) Checkout(ctx context.Context, c *cart.Cart, customer models.Customer) (models.Order, error) {
	customer = customer.Normalize()
	if c.IsEmpty() {
		return models.Order{}, ErrEmptyCart
	}
	if !customer.Complete() {
		return models.Order{}, ErrMissingCustomer
	}

	m.mu.Lock()

	var (
		reserved []reservation
		lines    []models.OrderLine
		total    = decimal.Zero
	)
	for _, l := range c.Lines() {
		line, err := m.reserveLine(l)
		if err != nil {
			m.rollback(reserved)
			m.mu.Unlock()
			m.logger.Info("Checkout rejected",
				zap.String("customer_id", customer.CanonicalID),
				zap.String("line", l.ID),
				zap.Error(err))
			return models.Order{}, fmt.Errorf("cannot complete reservation: %w", err)
		}
		reserved = append(reserved, reservation{productID: l.ProductID, variant: l.Variant, quantity: l.Quantity})
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	now := m.now()
	o := models.Order{
		ID:        m.newID(),
		Number:    m.newNumber(),
		CreatedAt: now,
		UpdatedAt: now,
		Customer:  customer,
		Lines:     lines,
		Total:     total,
		Status:    models.StatusAwaitingPickup,
	}
	m.index[o.ID] = len(m.orders)
	m.orders = append(m.orders, o)
	m.mu.Unlock()

	c.Clear()

	m.logger.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("number", o.Number),
		zap.Int("lines", len(o.Lines)),
		zap.String("total", o.Total.StringFixed(2)))

	m.persist(ctx)
	m.publish(ctx, models.EventOrderCreated, &o)
	return o.Clone(), nil
}

func (m *Manager) reserveLine(l cart.Line) (models.OrderLine, error) {
	p, err := m.catalog.Get(l.ProductID)
	if err != nil {
		return models.OrderLine{}, err
	}
	if err := m.catalog.Reserve(l.ProductID, l.Variant, l.Quantity); err != nil {
		return models.OrderLine{}, err
	}
	return models.OrderLine{
		ProductID: p.ID,
		Name:      p.Name,
		Variant:   l.Variant,
		Quantity:  l.Quantity,
		UnitPrice: p.EffectivePrice(),
		Image:     p.Image,
	}, nil
}

func (m *Manager) rollback(reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := m.catalog.Release(r.productID, r.variant, r.quantity); err != nil {
			m.logger.Error("Failed to roll back reservation",
				zap.String("product_id", r.productID),
				zap.String("variant", r.variant),
				zap.Int("quantity", r.quantity),
				zap.Error(err))
		}
	}
}

// Cancel moves an awaiting order to cancelled and puts its lines back into
// stock. Lines whose product has since been deleted are skipped. A terminal
// order is refused, so stock is released at most once per order.
func (m *Manager) Cancel(ctx context.Context, id, justification string) (models.Order, error) {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return models.Order{}, ErrInvalidJustification
	}

	m.mu.Lock()
	o, err := m.transitionLocked(id, models.StatusCancelled)
	if err != nil {
		m.mu.Unlock()
		return models.Order{}, err
	}
	for _, l := range o.Lines {
		err := m.catalog.Release(l.ProductID, l.Variant, l.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrNotFound):
			m.logger.Info("Skipping restock for deleted product",
				zap.String("order_id", o.ID),
				zap.String("product_id", l.ProductID))
		default:
			m.logger.Error("Failed to restock order line",
				zap.String("order_id", o.ID),
				zap.String("product_id", l.ProductID),
				zap.Error(err))
		}
	}
	o.CancelJustification = justification
	snapshot := o.Clone()
	m.mu.Unlock()

	m.logger.Info("Order cancelled",
		zap.String("order_id", snapshot.ID),
		zap.String("justification", justification))

	m.persist(ctx)
	m.publish(ctx, models.EventOrderCancelled, &snapshot)
	return snapshot, nil
}

// SetStatus applies a direct status change. Only awaiting_pickup to
// picked_up is accepted here; cancellation must go through Cancel.
func (m *Manager) SetStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == models.StatusCancelled {
		return models.Order{}, ErrJustificationRequired
	}

	m.mu.Lock()
	o, err := m.transitionLocked(id, status)
	if err != nil {
		m.mu.Unlock()
		return models.Order{}, err
	}
	snapshot := o.Clone()
	m.mu.Unlock()

	m.logger.Info("Order status changed",
		zap.String("order_id", snapshot.ID),
		zap.String("status", string(snapshot.Status)))

	m.persist(ctx)
	m.publish(ctx, models.EventOrderPickedUp, &snapshot)
	return snapshot, nil
}

// transitionLocked requires m.mu. It returns a pointer into m.orders.
func (m *Manager) transitionLocked(id string, to models.OrderStatus) (*models.Order, error) {
	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o := &m.orders[i]
	if o.Status.IsTerminal() {
		return nil, fmt.Errorf("order %s is %s: %w", id, o.Status, ErrAlreadyTerminal)
	}
	if !canTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = m.now()
	return o, nil
}

func canTransition(from, to models.OrderStatus) bool {
	return from == models.StatusAwaitingPickup &&
		(to == models.StatusPickedUp || to == models.StatusCancelled)
}

func (m *Manager) Get(id string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return m.orders[i].Clone(), nil
}

// List returns every order, newest first.
func (m *Manager) List() []models.Order {
	return m.filter(func(*models.Order) bool { return true })
}

// FindByCustomer returns the orders of the customer whose canonical
// identifier matches, newest first. Queries that do not canonicalize to
// exactly models.IdentifierDigits digits match nothing.
func (m *Manager) FindByCustomer(identifier string) []models.Order {
	canonical := models.CanonicalIdentifier(identifier)
	if len(canonical) != models.IdentifierDigits {
		return []models.Order{}
	}
	return m.filter(func(o *models.Order) bool {
		return o.Customer.CanonicalID == canonical
	})
}

// Expired returns the orders still awaiting pickup that were created more
// than window before now.
func (m *Manager) Expired(now time.Time, window time.Duration) []models.Order {
	cutoff := now.Add(-window)
	return m.filter(func(o *models.Order) bool {
		return o.Status == models.StatusAwaitingPickup && o.CreatedAt.Before(cutoff)
	})
}

func (m *Manager) filter(keep func(*models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if keep(&m.orders[i]) {
			out = append(out, m.orders[i].Clone())
		}
	}
	return out
}

// persist saves stock and orders. Failures are logged; the in-memory state
// stays authoritative and the next successful save catches up.
func (m *Manager) persist(ctx context.Context) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if err := m.catalog.Persist(ctx); err != nil {
		m.logger.Error("Failed to persist products", zap.Error(err))
	}

	m.mu.Lock()
	orders := make([]models.Order, len(m.orders))
	for i := range m.orders {
		orders[i] = m.orders[i].Clone()
	}
	m.mu.Unlock()

	if err := m.repo.SaveOrders(ctx, orders); err != nil {
		m.logger.Error("Failed to persist orders", zap.Error(err))
	}
}

func (m *Manager) publish(ctx context.Context, t models.EventType, o *models.Order) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(ctx, models.NewOrderEvent(t, o, m.now())); err != nil {
		m.logger.Warn("Failed to publish order event",
			zap.String("type", string(t)),
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}
