package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/pickupshop/pkg/cart"
	"github.com/example/pickupshop/pkg/catalog"
	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/customer"
	"github.com/example/pickupshop/pkg/models"
	"github.com/example/pickupshop/pkg/order"
	"github.com/example/pickupshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionHeader carries the cart session. A new one is issued on any cart
// request that arrives without it.
const SessionHeader = "X-Session-ID"

// HistoryReader is satisfied by *repository.MongoRepository.
type HistoryReader interface {
	History(ctx context.Context, orderID string, limit int64) ([]*repository.AuditLog, error)
}

type Option func(*Gateway)

// WithHistory enables the order history endpoint.
func WithHistory(h HistoryReader) Option {
	return func(g *Gateway) {
		g.history = h
	}
}

type Gateway struct {
	config    *config.Config
	catalog   *catalog.Store
	orders    *order.Manager
	customers *customer.Directory
	carts     *cart.Sessions
	history   HistoryReader
	logger    *zap.Logger
	router    *gin.Engine
	server    *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, store *catalog.Store, orders *order.Manager, customers *customer.Directory, opts ...Option) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	g := &Gateway{
		config:    cfg,
		catalog:   store,
		orders:    orders,
		customers: customers,
		carts:     cart.NewSessions(store, cfg.Gateway.CartTTL),
		logger:    logger,
		router:    router,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.server = &http.Server{Addr: cfg.Gateway.Addr(), Handler: router}
	g.setupRoutes()
	return g
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	{
		v1.GET("/products", g.listProducts)
		v1.GET("/products/:id", g.getProduct)
		v1.GET("/catalog", g.groupedCatalog)
		v1.GET("/categories", g.listCategories)

		carts := v1.Group("/cart", g.session)
		{
			carts.GET("", g.getCart)
			carts.POST("/items", g.addCartItem)
			carts.PATCH("/items/:line", g.updateCartItem)
			carts.DELETE("/items/:line", g.removeCartItem)
		}
		v1.POST("/checkout", g.session, g.checkout)

		customers := v1.Group("/customers")
		{
			customers.GET("/:identifier", g.lookupCustomer)
			customers.GET("/:identifier/orders", g.customerOrders)
		}

		admin := v1.Group("/admin", gin.BasicAuth(gin.Accounts{
			g.config.Admin.Username: g.config.Admin.Password,
		}))
		{
			admin.GET("/orders", g.listOrders)
			admin.GET("/orders/:id", g.getOrder)
			admin.GET("/orders/:id/history", g.orderHistory)
			admin.PUT("/orders/:id/status", g.updateOrderStatus)
			admin.POST("/orders/:id/cancel", g.cancelOrder)

			admin.POST("/products", g.createProduct)
			admin.PUT("/products/:id", g.updateProduct)
			admin.DELETE("/products/:id", g.deleteProduct)

			admin.POST("/categories", g.createCategory)
			admin.DELETE("/categories/:id", g.deleteCategory)
		}
	}
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start serves until Shutdown is called.
func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

func (g *Gateway) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": g.catalog.List()})
}

func (g *Gateway) getProduct(c *gin.Context) {
	p, err := g.catalog.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (g *Gateway) groupedCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": g.catalog.Grouped()})
}

func (g *Gateway) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": g.catalog.Categories()})
}

func (g *Gateway) lookupCustomer(c *gin.Context) {
	cust, ok := g.customers.Lookup(c.Param("identifier"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (g *Gateway) customerOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": orderViews(g.customers.Orders(c.Param("identifier")))})
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders := g.orders.List()
	if s := c.Query("status"); s != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if string(o.Status) == s {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	c.JSON(http.StatusOK, gin.H{"orders": orderViews(orders), "total": len(orders)})
}

func (g *Gateway) getOrder(c *gin.Context) {
	o, err := g.orders.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(o))
}

const historyLimit = 50

func (g *Gateway) orderHistory(c *gin.Context) {
	if g.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order history is not enabled"})
		return
	}
	id := c.Param("id")
	if _, err := g.orders.Get(id); err != nil {
		writeError(c, err)
		return
	}
	logs, err := g.history.History(c.Request.Context(), id, historyLimit)
	if err != nil {
		g.logger.Error("Failed to read order history", zap.String("order_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "order history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": logs})
}

type statusRequest struct {
	Status        models.OrderStatus `json:"status" binding:"required"`
	Justification string             `json:"justification"`
}

// updateOrderStatus routes cancellation through Cancel so that stock is
// restored and the justification recorded.
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		o   models.Order
		err error
	)
	if req.Status == models.StatusCancelled {
		o, err = g.orders.Cancel(c.Request.Context(), c.Param("id"), req.Justification)
	} else {
		o, err = g.orders.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(o))
}

type cancelRequest struct {
	Justification string `json:"justification"`
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := g.orders.Cancel(c.Request.Context(), c.Param("id"), req.Justification)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(o))
}

func (g *Gateway) createProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.ID = ""
	saved, err := g.catalog.Upsert(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	id := c.Param("id")
	if _, err := g.catalog.Get(id); err != nil {
		writeError(c, err)
		return
	}
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.ID = id
	saved, err := g.catalog.Upsert(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (g *Gateway) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat, err := g.catalog.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	if err := g.catalog.RemoveCategory(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type orderView struct {
	models.Order
	StatusLabel string `json:"status_label"`
}

func newOrderView(o models.Order) orderView {
	return orderView{Order: o, StatusLabel: o.Status.Label()}
}

func orderViews(orders []models.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	return out
}

func writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, order.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, catalog.ErrDuplicateCategory):
		code = http.StatusConflict
	case errors.Is(err, order.ErrInvalidJustification),
		errors.Is(err, order.ErrJustificationRequired),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrEmptyCart):
		code = http.StatusBadRequest
	case errors.Is(err, order.ErrMissingCustomer),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrInvalidQuantity):
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func newSessionID() string {
	return uuid.NewString()
}
