package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	cartdomain "github.com/smallbiznis/tillpoint/internal/cart/domain"
	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/smallbiznis/tillpoint/internal/pricing"
	"github.com/smallbiznis/tillpoint/pkg/money"
)

type totalsPayload struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	Subtotal      string `json:"subtotal"`
	DiscountCents int64  `json:"discount_cents"`
	Discount      string `json:"discount"`
	TaxCents      int64  `json:"tax_cents"`
	Tax           string `json:"tax"`
	TotalCents    int64  `json:"total_cents"`
	Total         string `json:"total"`
}

type cartResponse struct {
	Cart   cartdomain.Cart `json:"cart"`
	Totals totalsPayload   `json:"totals"`
}

func toTotalsPayload(t pricing.Totals) totalsPayload {
	return totalsPayload{
		SubtotalCents: t.SubtotalCents,
		Subtotal:      money.Format(t.SubtotalCents),
		DiscountCents: t.DiscountCents,
		Discount:      money.Format(t.DiscountCents),
		TaxCents:      t.TaxCents,
		Tax:           money.Format(t.TaxCents),
		TotalCents:    t.TotalCents,
		Total:         money.Format(t.TotalCents),
	}
}

func toCartResponse(view cartdomain.View) cartResponse {
	return cartResponse{Cart: view.Cart, Totals: toTotalsPayload(view.Totals)}
}

// cartSession keys the in-memory cart by the authenticated user, giving each
// cashier their own working cart.
func cartSession(c *gin.Context) (string, bool) {
	user, ok := currentUser(c)
	if !ok {
		return "", false
	}
	return user.ID.String(), true
}

func (s *Server) GetCart(c *gin.Context) {
	session, ok := cartSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	view, err := s.cartSvc.Get(c.Request.Context(), session)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

type addCartItemRequest struct {
	Barcode   string `json:"barcode"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

func (s *Server) AddCartItem(c *gin.Context) {
	session, ok := cartSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Barcode) == "" && strings.TrimSpace(req.ProductID) == "" {
		AbortWithError(c, newValidationError("barcode", "invalid_barcode", "barcode or product_id is required"))
		return
	}

	view, err := s.cartSvc.AddItem(c.Request.Context(), session, cartdomain.AddItemRequest{
		Barcode:   req.Barcode,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

func (s *Server) UpdateCartItem(c *gin.Context) {
	session, ok := cartSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("item_id", "invalid_item_id", "invalid item id"))
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.cartSvc.UpdateItem(c.Request.Context(), session, cartdomain.UpdateItemRequest{
		ItemID:   itemID,
		Quantity: req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	session, ok := cartSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("item_id", "invalid_item_id", "invalid item id"))
		return
	}

	view, err := s.cartSvc.RemoveItem(c.Request.Context(), session, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

type setDiscountRequest struct {
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	ManagerPIN    string  `json:"manager_pin"`
	OverrideToken string  `json:"override_token"`
}

// SetCartDiscount applies a cart-level discount. Discounts above the ceiling
// need either an override token from /api/auth/verify-pin or a directly
// entered manager PIN.
func (s *Server) SetCartDiscount(c *gin.Context) {
	session, ok := cartSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req setDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	approved, err := s.discountApproval(c, req.ManagerPIN, req.OverrideToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.cartSvc.SetDiscount(c.Request.Context(), session, pricing.Discount{
		Type:            pricing.DiscountType(strings.TrimSpace(req.Type)),
		Amount:          req.Amount,
		ManagerOverride: approved,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

func (s *Server) discountApproval(c *gin.Context, pin, token string) (bool, error) {
	if token = strings.TrimSpace(token); token != "" {
		if _, err := s.overrideSvc.Consume(c.Request.Context(), token, overridedomain.ActionDiscountCeiling); err != nil {
			return false, err
		}
		return true, nil
	}
	if pin = strings.TrimSpace(pin); pin != "" {
		approver, err := s.verifier.Verify(c.Request.Context(), pin)
		if err != nil {
			return false, err
		}
		if !approver.Role.CanAuthorizeOverride() {
			return false, overridedomain.ErrNotAuthorized
		}
		return true, nil
	}
	return false, nil
}

func (s *Server) ClearCart(c *gin.Context) {
	session, ok := cartSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.cartSvc.Clear(c.Request.Context(), session); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
