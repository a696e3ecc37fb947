package inventory

import (
	"github.com/smallbiznis/tillpoint/internal/inventory/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.NewRepository),
)
