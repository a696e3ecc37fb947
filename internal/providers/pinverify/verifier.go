// Package pinverify abstracts manager PIN verification. The register normally
// checks PINs against its own user table, but stores that centralize staff
// credentials can point PIN_VERIFY_URL at an external service instead.
package pinverify

import (
	"context"

	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
)

type Result struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Role     authdomain.Role `json:"role"`
}

type Verifier interface {
	Verify(ctx context.Context, pin string) (Result, error)
}
