package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/smallbiznis/tillpoint/internal/checkout/domain"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"github.com/smallbiznis/tillpoint/pkg/money"
)

type processCheckoutRequest struct {
	PaymentMethod  string `json:"payment_method"`
	Tendered       string `json:"tendered"`
	IdempotencyKey string `json:"idempotency_key"`
}

type receiptResponse struct {
	Transaction ledgerdomain.Transaction       `json:"transaction"`
	Items       []ledgerdomain.TransactionItem `json:"items"`
	ChangeCents int64                          `json:"change_cents"`
	Change      string                         `json:"change"`
	Replayed    bool                           `json:"replayed,omitempty"`
}

func (s *Server) ProcessCheckout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req processCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var tendered int64
	if strings.TrimSpace(req.Tendered) != "" {
		parsed, err := money.Parse(req.Tendered)
		if err != nil {
			AbortWithError(c, newValidationError("tendered", "invalid_amount", "invalid tendered amount"))
			return
		}
		tendered = parsed
	}

	receipt, err := s.checkoutSvc.Process(c.Request.Context(), checkoutdomain.ProcessRequest{
		Session:        user.ID.String(),
		CashierID:      user.ID.String(),
		CashierName:    user.Username,
		PaymentMethod:  ledgerdomain.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
		TenderedCents:  tendered,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, receiptResponse{
		Transaction: receipt.Transaction,
		Items:       receipt.Items,
		ChangeCents: receipt.ChangeCents,
		Change:      money.Format(receipt.ChangeCents),
		Replayed:    receipt.Replayed,
	})
}

type voidRequest struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
	ManagerPIN    string `json:"manager_pin"`
	OverrideToken string `json:"override_token"`
}

func (s *Server) VoidTransaction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req voidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	txn, err := s.checkoutSvc.Void(c.Request.Context(), checkoutdomain.VoidRequest{
		TransactionID: req.TransactionID,
		Reason:        req.Reason,
		ManagerPIN:    req.ManagerPIN,
		OverrideToken: req.OverrideToken,
		ActorID:       user.ID.String(),
		ActorName:     user.Username,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

type refundItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type refundRequest struct {
	TransactionID string              `json:"transaction_id"`
	Amount        string              `json:"amount"`
	Items         []refundItemRequest `json:"items"`
	Reason        string              `json:"reason"`
	ManagerPIN    string              `json:"manager_pin"`
	OverrideToken string              `json:"override_token"`
}

func (s *Server) RefundTransaction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var amount *int64
	if strings.TrimSpace(req.Amount) != "" {
		parsed, err := money.Parse(req.Amount)
		if err != nil {
			AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid refund amount"))
			return
		}
		amount = &parsed
	}

	items := make([]checkoutdomain.RefundLine, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkoutdomain.RefundLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	reversal, err := s.checkoutSvc.Refund(c.Request.Context(), checkoutdomain.RefundRequest{
		TransactionID: req.TransactionID,
		AmountCents:   amount,
		Items:         items,
		Reason:        req.Reason,
		ManagerPIN:    req.ManagerPIN,
		OverrideToken: req.OverrideToken,
		ActorID:       user.ID.String(),
		ActorName:     user.Username,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": reversal})
}
