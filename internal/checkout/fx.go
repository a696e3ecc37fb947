package checkout

import (
	"github.com/smallbiznis/tillpoint/internal/checkout/repository"
	"github.com/smallbiznis/tillpoint/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(repository.NewIdempotencyRepository),
	fx.Provide(service.NewSimulatedAuthorizer),
	fx.Provide(service.NewNumberGenerator),
	fx.Provide(service.New),
)
