package product

import (
	"github.com/smallbiznis/tillpoint/internal/product/repository"
	"github.com/smallbiznis/tillpoint/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
