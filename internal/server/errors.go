package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/authorization"
	cartdomain "github.com/smallbiznis/tillpoint/internal/cart/domain"
	checkoutdomain "github.com/smallbiznis/tillpoint/internal/checkout/domain"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/smallbiznis/tillpoint/internal/pricing"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/internal/providers/pinverify"
	settingsdomain "github.com/smallbiznis/tillpoint/internal/settings/domain"
	"github.com/smallbiznis/tillpoint/pkg/money"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrInvalidPIN):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authdomain.ErrAccountLocked),
		errors.Is(err, overridedomain.ErrNotAuthorized),
		errors.Is(err, overridedomain.ErrTokenNotFound),
		errors.Is(err, overridedomain.ErrTokenExpired),
		errors.Is(err, overridedomain.ErrTokenWrongAction),
		errors.Is(err, checkoutdomain.ErrApprovalRequired),
		errors.Is(err, pricing.ErrDiscountRequiresOverride):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: forbiddenMessage(err),
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUsernameExists),
		errors.Is(err, productdomain.ErrBarcodeExists),
		errors.Is(err, checkoutdomain.ErrStockConflict),
		errors.Is(err, checkoutdomain.ErrIdempotencyConflict),
		errors.Is(err, checkoutdomain.ErrInvalidStatus),
		errors.Is(err, overridedomain.ErrTokenConsumed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, pinverify.ErrVerifierUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, pricing.ErrInvalidDiscountType),
		errors.Is(err, pricing.ErrInvalidDiscountAmount),
		errors.Is(err, cartdomain.ErrInvalidQuantity),
		errors.Is(err, cartdomain.ErrCartEmpty),
		errors.Is(err, cartdomain.ErrProductInactive),
		errors.Is(err, cartdomain.ErrInsufficientStock),
		errors.Is(err, checkoutdomain.ErrInvalidCashier),
		errors.Is(err, checkoutdomain.ErrInvalidPayment),
		errors.Is(err, checkoutdomain.ErrInsufficientPayment),
		errors.Is(err, checkoutdomain.ErrPaymentDeclined),
		errors.Is(err, checkoutdomain.ErrInvalidRefund),
		errors.Is(err, checkoutdomain.ErrRefundExceedsTotal),
		errors.Is(err, checkoutdomain.ErrReasonRequired),
		errors.Is(err, overridedomain.ErrInvalidAction),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidBarcode),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidTaxRate),
		errors.Is(err, productdomain.ErrInvalidStock),
		errors.Is(err, productdomain.ErrStockUnderflow),
		errors.Is(err, authdomain.ErrInvalidUsername),
		errors.Is(err, authdomain.ErrInvalidPassword),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, settingsdomain.ErrInvalidKey),
		errors.Is(err, settingsdomain.ErrValueRequired),
		errors.Is(err, ledgerdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, cartdomain.ErrProductNotFound),
		errors.Is(err, cartdomain.ErrItemNotFound),
		errors.Is(err, ledgerdomain.ErrNotFound),
		errors.Is(err, settingsdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func forbiddenMessage(err error) string {
	switch {
	case errors.Is(err, pricing.ErrDiscountRequiresOverride):
		return "discount exceeds ceiling and requires manager override"
	case errors.Is(err, checkoutdomain.ErrApprovalRequired):
		return "manager approval required"
	case errors.Is(err, overridedomain.ErrTokenExpired):
		return "override token expired"
	case errors.Is(err, overridedomain.ErrTokenNotFound),
		errors.Is(err, overridedomain.ErrTokenWrongAction):
		return "override token not valid for this operation"
	}
	return "forbidden"
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, checkoutdomain.ErrStockConflict):
		return "insufficient stock"
	case errors.Is(err, checkoutdomain.ErrIdempotencyConflict):
		return "idempotency key already used with different cart contents"
	case errors.Is(err, overridedomain.ErrTokenConsumed):
		return "override token already used"
	default:
		return "conflict"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog labels request log entries with the mapped error type
// and code so expected client errors stay distinguishable from failures.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
