package gateway

import (
	"net/http"

	"github.com/example/pickupshop/pkg/cart"
	"github.com/example/pickupshop/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const sessionKey = "session_id"

// session resolves the cart session and echoes it back in the response.
func (g *Gateway) session(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = newSessionID()
	}
	c.Header(SessionHeader, id)
	c.Set(sessionKey, id)
	c.Next()
}

type cartLineView struct {
	cart.Line
	Name      string          `json:"name,omitempty"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Available bool            `json:"available"`
}

type cartView struct {
	Lines []cartLineView  `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (g *Gateway) viewCart(c *cart.Cart) cartView {
	v := cartView{Lines: []cartLineView{}, Count: c.Count(), Total: c.Total()}
	for _, l := range c.Lines() {
		lv := cartLineView{Line: l}
		if p, err := g.catalog.Get(l.ProductID); err == nil {
			lv.Name = p.Name
			lv.Image = p.Image
			lv.UnitPrice = p.EffectivePrice()
			lv.Subtotal = lv.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			lv.Available = true
		}
		v.Lines = append(v.Lines, lv)
	}
	return v
}

func (g *Gateway) getCart(c *gin.Context) {
	var view cartView
	_ = g.carts.With(c.GetString(sessionKey), func(ct *cart.Cart) error {
		view = g.viewCart(ct)
		return nil
	})
	c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Variant   string `json:"variant"`
}

func (g *Gateway) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		added bool
		view  cartView
	)
	err := g.carts.With(c.GetString(sessionKey), func(ct *cart.Cart) error {
		var err error
		added, err = ct.Add(req.ProductID, req.Variant)
		view = g.viewCart(ct)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if !added {
		c.JSON(http.StatusConflict, gin.H{"error": "no more stock available for this item", "cart": view})
		return
	}
	c.JSON(http.StatusOK, view)
}

type updateItemRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (g *Gateway) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line := c.Param("line")
	var (
		found, changed bool
		view           cartView
	)
	_ = g.carts.With(c.GetString(sessionKey), func(ct *cart.Cart) error {
		for _, l := range ct.Lines() {
			if l.ID == line {
				found = true
				break
			}
		}
		changed = ct.SetQuantity(line, req.Delta)
		view = g.viewCart(ct)
		return nil
	})
	switch {
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
	case !changed:
		c.JSON(http.StatusConflict, gin.H{"error": "quantity change rejected", "cart": view})
	default:
		c.JSON(http.StatusOK, view)
	}
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	var (
		removed bool
		view    cartView
	)
	_ = g.carts.With(c.GetString(sessionKey), func(ct *cart.Cart) error {
		removed = ct.Remove(c.Param("line"))
		view = g.viewCart(ct)
		return nil
	})
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

type checkoutRequest struct {
	Customer models.Customer `json:"customer"`
}

func (g *Gateway) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var o models.Order
	err := g.carts.With(c.GetString(sessionKey), func(ct *cart.Cart) error {
		var err error
		o, err = g.orders.Checkout(c.Request.Context(), ct, req.Customer)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderView(o))
}
