package pinverify

import (
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Auth   authdomain.Service
}

func NewVerifier(p Params) Verifier {
	if p.Config.PinVerifyURL != "" {
		return NewHTTP(p.Config.PinVerifyURL, p.Config.PinVerifyTimeout, p.Log)
	}
	return NewLocal(p.Auth)
}

var Module = fx.Module("pinverify",
	fx.Provide(NewVerifier),
)
