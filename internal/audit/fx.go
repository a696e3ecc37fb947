package audit

import (
	"github.com/smallbiznis/tillpoint/internal/audit/repository"
	"github.com/smallbiznis/tillpoint/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
