package domain

import (
	"context"
	"errors"

	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"gorm.io/gorm"
)

type ProcessRequest struct {
	Session        string
	CashierID      string
	CashierName    string
	PaymentMethod  ledgerdomain.PaymentMethod
	TenderedCents  int64
	IdempotencyKey string
}

// Receipt is what the register prints after a successful checkout.
type Receipt struct {
	Transaction ledgerdomain.Transaction       `json:"transaction"`
	Items       []ledgerdomain.TransactionItem `json:"items"`
	ChangeCents int64                          `json:"change_cents"`
	Replayed    bool                           `json:"replayed,omitempty"`
}

type VoidRequest struct {
	TransactionID string
	Reason        string
	ManagerPIN    string
	OverrideToken string
	ActorID       string
	ActorName     string
}

type RefundLine struct {
	ProductID string
	Quantity  int64
}

type RefundRequest struct {
	TransactionID string
	AmountCents   *int64
	Items         []RefundLine
	Reason        string
	ManagerPIN    string
	OverrideToken string
	ActorID       string
	ActorName     string
}

type Service interface {
	// Process finalizes the session's cart into a ledger transaction. Stock
	// decrements, movement rows, the transaction and its idempotency key all
	// commit in one database transaction; the cart clears only on success.
	Process(ctx context.Context, req ProcessRequest) (Receipt, error)

	// Void cancels a completed sale and restores its stock.
	Void(ctx context.Context, req VoidRequest) (ledgerdomain.Transaction, error)

	// Refund writes a reversal transaction with negative totals and restocks
	// the returned lines. The running refunded amount never exceeds the
	// original total.
	Refund(ctx context.Context, req RefundRequest) (ledgerdomain.Transaction, error)
}

// PaymentAuthorizer clears non-cash tenders. The default implementation
// simulates the acquirer.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, method ledgerdomain.PaymentMethod, amountCents int64) (authCode string, err error)
}

type IdempotencyRepository interface {
	Find(ctx context.Context, db *gorm.DB, cashierID, key string) (*IdempotencyKey, error)
	Insert(ctx context.Context, db *gorm.DB, row *IdempotencyKey) error
}

var (
	ErrInvalidCashier      = errors.New("invalid_cashier")
	ErrInvalidPayment      = errors.New("invalid_payment_method")
	ErrInsufficientPayment = errors.New("insufficient_payment")
	ErrPaymentDeclined     = errors.New("payment_declined")
	ErrStockConflict       = errors.New("stock_conflict")
	ErrIdempotencyConflict = errors.New("idempotency_conflict")
	ErrApprovalRequired    = errors.New("approval_required")
	ErrInvalidStatus       = errors.New("invalid_transaction_status")
	ErrInvalidRefund       = errors.New("invalid_refund")
	ErrRefundExceedsTotal  = errors.New("refund_exceeds_total")
	ErrReasonRequired      = errors.New("reason_required")
)
