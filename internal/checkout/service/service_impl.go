package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	cartdomain "github.com/smallbiznis/tillpoint/internal/cart/domain"
	"github.com/smallbiznis/tillpoint/internal/checkout/domain"
	"github.com/smallbiznis/tillpoint/internal/clock"
	inventorydomain "github.com/smallbiznis/tillpoint/internal/inventory/domain"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"github.com/smallbiznis/tillpoint/internal/observability/metrics"
	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/smallbiznis/tillpoint/internal/pricing"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/internal/providers/pinverify"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"github.com/smallbiznis/tillpoint/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Engine      *pricing.Engine
	Cart        cartdomain.Service
	Products    productdomain.Repository
	Movements   inventorydomain.Repository
	Ledger      ledgerdomain.Repository
	Idempotency domain.IdempotencyRepository
	Override    overridedomain.Service
	Verifier    pinverify.Verifier
	Authorizer  domain.PaymentAuthorizer
	Audit       auditdomain.Service
	Metrics     *metrics.Metrics
	Numbers     *NumberGenerator
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	engine      *pricing.Engine
	cart        cartdomain.Service
	products    productdomain.Repository
	movements   inventorydomain.Repository
	ledger      ledgerdomain.Repository
	idempotency domain.IdempotencyRepository
	override    overridedomain.Service
	verifier    pinverify.Verifier
	authorizer  domain.PaymentAuthorizer
	audit       auditdomain.Service
	metrics     *metrics.Metrics
	numbers     *NumberGenerator
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("checkout.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		engine:      p.Engine,
		cart:        p.Cart,
		products:    p.Products,
		movements:   p.Movements,
		ledger:      p.Ledger,
		idempotency: p.Idempotency,
		override:    p.Override,
		verifier:    p.Verifier,
		authorizer:  p.Authorizer,
		audit:       p.Audit,
		metrics:     p.Metrics,
		numbers:     p.Numbers,
	}
}

func (s *Service) Process(ctx context.Context, req domain.ProcessRequest) (domain.Receipt, error) {
	cashierID, err := snowflake.ParseString(strings.TrimSpace(req.CashierID))
	if err != nil {
		return domain.Receipt{}, domain.ErrInvalidCashier
	}
	if !req.PaymentMethod.Valid() {
		return domain.Receipt{}, domain.ErrInvalidPayment
	}

	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		receipt, replayed, err := s.replay(ctx, req.Session, cashierID, key)
		if err != nil {
			return domain.Receipt{}, err
		}
		if replayed {
			return receipt, nil
		}
	}

	var receipt domain.Receipt
	err = s.cart.Commit(ctx, req.Session, func(cart cartdomain.Cart) error {
		built, err := s.finalize(ctx, cashierID, req, cart)
		if err != nil {
			return err
		}
		receipt = built
		return nil
	})
	if err != nil {
		// A duplicate submit can lose the race to the cart lock: the winner
		// commits and clears the cart, so the loser finds it empty. With a
		// key present that duplicate gets the recorded receipt, not an error.
		if errors.Is(err, cartdomain.ErrCartEmpty) {
			if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
				if replayedReceipt, replayed, replayErr := s.replay(ctx, req.Session, cashierID, key); replayErr == nil && replayed {
					return replayedReceipt, nil
				}
			}
		}
		return domain.Receipt{}, err
	}

	s.metrics.RecordCheckout(ctx, string(req.PaymentMethod))
	s.audit.Record(ctx, auditdomain.Entry{
		ActorID:    cashierID,
		ActorName:  req.CashierName,
		Action:     "checkout.process",
		EntityType: "transaction",
		EntityID:   receipt.Transaction.Number,
		Detail: map[string]interface{}{
			"total_cents":    receipt.Transaction.TotalCents,
			"payment_method": string(req.PaymentMethod),
		},
	})

	return receipt, nil
}

// replay returns the stored receipt for a seen idempotency key. Replaying a
// key against a different, non-empty cart is a client bug and rejected.
func (s *Service) replay(ctx context.Context, session string, cashierID snowflake.ID, key string) (domain.Receipt, bool, error) {
	row, err := s.idempotency.Find(ctx, s.db, cashierID.String(), key)
	if err != nil {
		return domain.Receipt{}, false, err
	}
	if row == nil {
		return domain.Receipt{}, false, nil
	}

	view, err := s.cart.Get(ctx, session)
	if err != nil {
		return domain.Receipt{}, false, err
	}
	if !view.Cart.Empty() && view.Cart.Generation != row.CartGeneration {
		return domain.Receipt{}, false, domain.ErrIdempotencyConflict
	}

	txn, items, err := s.ledger.FindByID(ctx, s.db, row.TransactionID)
	if err != nil {
		return domain.Receipt{}, false, err
	}
	if txn == nil {
		return domain.Receipt{}, false, domain.ErrIdempotencyConflict
	}
	return domain.Receipt{
		Transaction: *txn,
		Items:       items,
		ChangeCents: txn.ChangeCents,
		Replayed:    true,
	}, true, nil
}

func (s *Service) finalize(ctx context.Context, cashierID snowflake.ID, req domain.ProcessRequest, cart cartdomain.Cart) (domain.Receipt, error) {
	totals, err := s.engine.Compute(cart.Lines(), cart.Discount)
	if err != nil {
		return domain.Receipt{}, err
	}

	var change int64
	switch req.PaymentMethod {
	case ledgerdomain.PaymentCash:
		if req.TenderedCents < totals.TotalCents {
			return domain.Receipt{}, domain.ErrInsufficientPayment
		}
		change = req.TenderedCents - totals.TotalCents
	default:
		if _, err := s.authorizer.Authorize(ctx, req.PaymentMethod, totals.TotalCents); err != nil {
			s.metrics.RecordPaymentEvent(ctx, string(req.PaymentMethod), "declined")
			return domain.Receipt{}, err
		}
		s.metrics.RecordPaymentEvent(ctx, string(req.PaymentMethod), "approved")
	}

	now := s.clock.Now()
	txn := ledgerdomain.Transaction{
		ID:              s.genID.Generate(),
		Number:          s.numbers.Next(),
		Kind:            ledgerdomain.KindSale,
		Status:          ledgerdomain.StatusCompleted,
		CashierID:       cashierID,
		CashierName:     req.CashierName,
		SubtotalCents:   totals.SubtotalCents,
		DiscountCents:   totals.DiscountCents,
		TaxCents:        totals.TaxCents,
		TotalCents:      totals.TotalCents,
		PaymentMethod:   req.PaymentMethod,
		TenderedCents:   req.TenderedCents,
		ChangeCents:     change,
		DiscountType:    string(cart.Discount.Type),
		DiscountAmount:  cart.Discount.Amount,
		ManagerOverride: cart.Discount.ManagerOverride,
		Metadata:        datatypes.JSONMap{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]ledgerdomain.TransactionItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, ledgerdomain.TransactionItem{
			ID:             s.genID.Generate(),
			TransactionID:  txn.ID,
			ProductID:      line.ProductID,
			Barcode:        line.Barcode,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: line.UnitPriceCents * line.Quantity,
			TaxRate:        line.TaxRate,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range cart.Items {
			if err := s.takeStock(ctx, tx, line, txn.Number, cashierID, now); err != nil {
				return err
			}
		}

		if err := s.ledger.Append(ctx, tx, &txn, items); err != nil {
			return err
		}

		if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
			row := domain.IdempotencyKey{
				ID:             s.genID.Generate(),
				CashierID:      cashierID,
				Key:            key,
				CartGeneration: cart.Generation,
				TransactionID:  txn.ID,
				CreatedAt:      now,
			}
			if err := s.idempotency.Insert(ctx, tx, &row); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return domain.ErrIdempotencyConflict
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	return domain.Receipt{Transaction: txn, Items: items, ChangeCents: change}, nil
}

// takeStock decrements inventory with a guard against overselling and records
// the movement with before and after quantities from the same transaction.
func (s *Service) takeStock(ctx context.Context, tx *gorm.DB, line cartdomain.CartItem, number string, actorID snowflake.ID, now time.Time) error {
	product, err := s.products.FindByID(ctx, tx, line.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		s.metrics.RecordStockConflict(ctx)
		return domain.ErrStockConflict
	}

	rows, err := s.products.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		s.metrics.RecordStockConflict(ctx)
		s.log.Warn("stock conflict at checkout",
			zap.String("product_id", line.ProductID.String()),
			zap.Int64("requested", line.Quantity),
			zap.Int64("available", product.StockQuantity),
		)
		return domain.ErrStockConflict
	}

	return s.movements.Append(ctx, tx, &inventorydomain.StockMovement{
		ID:             s.genID.Generate(),
		ProductID:      line.ProductID,
		ChangeType:     inventorydomain.ChangeSale,
		QuantityBefore: product.StockQuantity,
		QuantityChange: -line.Quantity,
		QuantityAfter:  product.StockQuantity - line.Quantity,
		ReferenceType:  "transaction",
		ReferenceID:    number,
		ActorID:        actorID,
		CreatedAt:      now,
	})
}

// restoreStock adds quantity back during voids and refunds.
func (s *Service) restoreStock(ctx context.Context, tx *gorm.DB, productID snowflake.ID, qty int64, change inventorydomain.ChangeType, number string, actorID snowflake.ID, now time.Time) error {
	product, err := s.products.FindByID(ctx, tx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		// Product removed since the sale; nothing to restock.
		return nil
	}

	if err := s.products.IncrementStock(ctx, tx, productID, qty); err != nil {
		return err
	}

	return s.movements.Append(ctx, tx, &inventorydomain.StockMovement{
		ID:             s.genID.Generate(),
		ProductID:      productID,
		ChangeType:     change,
		QuantityBefore: product.StockQuantity,
		QuantityChange: qty,
		QuantityAfter:  product.StockQuantity + qty,
		ReferenceType:  "transaction",
		ReferenceID:    number,
		ActorID:        actorID,
		CreatedAt:      now,
	})
}

// approve resolves a supervised operation's authorization from either a
// pre-issued override token or a directly entered manager PIN.
func (s *Service) approve(ctx context.Context, pin, token string, action overridedomain.Action) (string, error) {
	if token = strings.TrimSpace(token); token != "" {
		grant, err := s.override.Consume(ctx, token, action)
		if err != nil {
			return "", err
		}
		return grant.ApproverName, nil
	}

	if pin = strings.TrimSpace(pin); pin != "" {
		approver, err := s.verifier.Verify(ctx, pin)
		if err != nil {
			return "", err
		}
		if !approver.Role.CanAuthorizeOverride() {
			return "", overridedomain.ErrNotAuthorized
		}
		return approver.Username, nil
	}

	return "", domain.ErrApprovalRequired
}

func (s *Service) Void(ctx context.Context, req domain.VoidRequest) (ledgerdomain.Transaction, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return ledgerdomain.Transaction{}, domain.ErrReasonRequired
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.TransactionID))
	if err != nil {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidID
	}

	txn, items, err := s.ledger.FindByID(ctx, s.db, id)
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}
	if txn == nil {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrNotFound
	}
	if txn.Kind != ledgerdomain.KindSale || txn.Status != ledgerdomain.StatusCompleted {
		return ledgerdomain.Transaction{}, domain.ErrInvalidStatus
	}

	approver, err := s.approve(ctx, req.ManagerPIN, req.OverrideToken, overridedomain.ActionVoid)
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}

	actorID := txn.CashierID
	if parsed, err := snowflake.ParseString(strings.TrimSpace(req.ActorID)); err == nil {
		actorID = parsed
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, err := s.ledger.UpdateStatus(ctx, tx, txn.ID,
			[]ledgerdomain.Status{ledgerdomain.StatusCompleted},
			ledgerdomain.StatusVoided, req.Reason, now)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrInvalidStatus
		}

		for _, item := range items {
			if err := s.restoreStock(ctx, tx, item.ProductID, item.Quantity, inventorydomain.ChangeVoid, txn.Number, actorID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}

	s.metrics.RecordReversal(ctx, "void")
	s.audit.Record(ctx, auditdomain.Entry{
		ActorID:    actorID,
		ActorName:  req.ActorName,
		Action:     "checkout.void",
		EntityType: "transaction",
		EntityID:   txn.Number,
		Detail: map[string]interface{}{
			"reason":      req.Reason,
			"approved_by": approver,
			"total_cents": txn.TotalCents,
		},
	})

	txn.Status = ledgerdomain.StatusVoided
	txn.VoidReason = req.Reason
	txn.VoidedAt = &now
	txn.UpdatedAt = now
	return *txn, nil
}

func (s *Service) Refund(ctx context.Context, req domain.RefundRequest) (ledgerdomain.Transaction, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return ledgerdomain.Transaction{}, domain.ErrReasonRequired
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.TransactionID))
	if err != nil {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidID
	}

	original, items, err := s.ledger.FindByID(ctx, s.db, id)
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}
	if original == nil {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrNotFound
	}
	if original.Kind != ledgerdomain.KindSale {
		return ledgerdomain.Transaction{}, domain.ErrInvalidStatus
	}
	switch original.Status {
	case ledgerdomain.StatusCompleted, ledgerdomain.StatusPartiallyRefunded:
	default:
		return ledgerdomain.Transaction{}, domain.ErrInvalidStatus
	}

	already, err := s.ledger.SumRefunded(ctx, s.db, original.ID)
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}
	remaining := original.TotalCents - already
	if remaining <= 0 {
		return ledgerdomain.Transaction{}, domain.ErrRefundExceedsTotal
	}

	amount, restock, err := s.resolveRefund(req, original, items, remaining)
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}

	approver, err := s.approve(ctx, req.ManagerPIN, req.OverrideToken, overridedomain.ActionRefund)
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}

	actorID := original.CashierID
	if parsed, err := snowflake.ParseString(strings.TrimSpace(req.ActorID)); err == nil {
		actorID = parsed
	}

	now := s.clock.Now()
	nextStatus := ledgerdomain.StatusPartiallyRefunded
	if already+amount >= original.TotalCents {
		nextStatus = ledgerdomain.StatusRefunded
	}

	reversal := ledgerdomain.Transaction{
		ID:            s.genID.Generate(),
		Number:        s.numbers.Next(),
		Kind:          ledgerdomain.KindRefund,
		Status:        ledgerdomain.StatusCompleted,
		ReferenceID:   &original.ID,
		CashierID:     actorID,
		CashierName:   req.ActorName,
		SubtotalCents: -amount,
		TotalCents:    -amount,
		PaymentMethod: original.PaymentMethod,
		ApprovedBy:    approver,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	reversalItems := make([]ledgerdomain.TransactionItem, 0, len(restock))
	for _, line := range restock {
		reversalItems = append(reversalItems, ledgerdomain.TransactionItem{
			ID:             s.genID.Generate(),
			TransactionID:  reversal.ID,
			ProductID:      line.item.ProductID,
			Barcode:        line.item.Barcode,
			Name:           line.item.Name,
			UnitPriceCents: line.item.UnitPriceCents,
			Quantity:       -line.quantity,
			LineTotalCents: -line.item.UnitPriceCents * line.quantity,
			TaxRate:        line.item.TaxRate,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, err := s.ledger.UpdateStatus(ctx, tx, original.ID,
			[]ledgerdomain.Status{ledgerdomain.StatusCompleted, ledgerdomain.StatusPartiallyRefunded},
			nextStatus, "", now)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrInvalidStatus
		}

		for _, line := range restock {
			if err := s.restoreStock(ctx, tx, line.item.ProductID, line.quantity, inventorydomain.ChangeRefund, reversal.Number, actorID, now); err != nil {
				return err
			}
		}

		if err := s.ledger.Append(ctx, tx, &reversal, reversalItems); err != nil {
			return err
		}

		return s.ledger.InsertRefund(ctx, tx, &ledgerdomain.Refund{
			ID:            s.genID.Generate(),
			TransactionID: original.ID,
			ReversalID:    reversal.ID,
			AmountCents:   amount,
			Reason:        req.Reason,
			ApprovedBy:    approver,
			CashierID:     actorID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return ledgerdomain.Transaction{}, err
	}

	s.metrics.RecordReversal(ctx, "refund")
	s.audit.Record(ctx, auditdomain.Entry{
		ActorID:    actorID,
		ActorName:  req.ActorName,
		Action:     "checkout.refund",
		EntityType: "transaction",
		EntityID:   original.Number,
		Detail: map[string]interface{}{
			"amount_cents": amount,
			"reason":       req.Reason,
			"approved_by":  approver,
			"reversal":     reversal.Number,
		},
	})

	return reversal, nil
}

type restockLine struct {
	item     ledgerdomain.TransactionItem
	quantity int64
}

// resolveRefund turns the request into a refund amount and the lines to
// restock. An explicit amount refunds money without restocking; returned
// items refund their proportional share of the original total; neither means
// a full refund of everything still outstanding.
func (s *Service) resolveRefund(req domain.RefundRequest, original *ledgerdomain.Transaction, items []ledgerdomain.TransactionItem, remaining int64) (int64, []restockLine, error) {
	if req.AmountCents != nil {
		amount := *req.AmountCents
		if amount <= 0 {
			return 0, nil, domain.ErrInvalidRefund
		}
		if amount > remaining {
			return 0, nil, domain.ErrRefundExceedsTotal
		}
		return amount, nil, nil
	}

	if len(req.Items) > 0 {
		byProduct := make(map[string]ledgerdomain.TransactionItem, len(items))
		for _, item := range items {
			byProduct[item.ProductID.String()] = item
		}

		var refundSubtotal int64
		restock := make([]restockLine, 0, len(req.Items))
		for _, line := range req.Items {
			item, ok := byProduct[strings.TrimSpace(line.ProductID)]
			if !ok {
				return 0, nil, domain.ErrInvalidRefund
			}
			if line.Quantity <= 0 || line.Quantity > item.Quantity {
				return 0, nil, domain.ErrInvalidRefund
			}
			refundSubtotal += item.UnitPriceCents * line.Quantity
			restock = append(restock, restockLine{item: item, quantity: line.Quantity})
		}

		amount := refundSubtotal
		if original.SubtotalCents > 0 {
			amount = money.RoundHalfUp(float64(original.TotalCents) * float64(refundSubtotal) / float64(original.SubtotalCents))
		}
		if amount > remaining {
			amount = remaining
		}
		if amount <= 0 {
			return 0, nil, domain.ErrInvalidRefund
		}
		return amount, restock, nil
	}

	restock := make([]restockLine, 0, len(items))
	for _, item := range items {
		restock = append(restock, restockLine{item: item, quantity: item.Quantity})
	}
	return remaining, restock, nil
}
