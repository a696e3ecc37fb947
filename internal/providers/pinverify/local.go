package pinverify

import (
	"context"

	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
)

type localVerifier struct {
	auth authdomain.Service
}

func NewLocal(auth authdomain.Service) Verifier {
	return &localVerifier{auth: auth}
}

func (v *localVerifier) Verify(ctx context.Context, pin string) (Result, error) {
	user, err := v.auth.VerifyPIN(ctx, pin)
	if err != nil {
		return Result{}, err
	}
	return Result{
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
	}, nil
}
