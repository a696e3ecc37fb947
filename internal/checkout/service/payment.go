package service

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/tillpoint/internal/checkout/domain"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"go.uber.org/zap"
)

// simulatedAuthorizer stands in for the card and UPI acquirers. It approves
// any positive amount and returns a synthetic authorization code.
type simulatedAuthorizer struct {
	log *zap.Logger
}

func NewSimulatedAuthorizer(log *zap.Logger) domain.PaymentAuthorizer {
	return &simulatedAuthorizer{log: log.Named("checkout.payment")}
}

func (a *simulatedAuthorizer) Authorize(ctx context.Context, method ledgerdomain.PaymentMethod, amountCents int64) (string, error) {
	if amountCents <= 0 {
		return "", domain.ErrPaymentDeclined
	}

	code := "AUTH-" + ulid.Make().String()
	a.log.Debug("payment authorized",
		zap.String("method", string(method)),
		zap.Int64("amount_cents", amountCents),
		zap.String("auth_code", code),
	)
	return code, nil
}
