package override

import (
	"github.com/smallbiznis/tillpoint/internal/override/repository"
	"github.com/smallbiznis/tillpoint/internal/override/service"
	"go.uber.org/fx"
)

var Module = fx.Module("override.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
