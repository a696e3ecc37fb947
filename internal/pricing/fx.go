package pricing

import (
	"github.com/smallbiznis/tillpoint/internal/config"
	"go.uber.org/fx"
)

func NewEngineFromConfig(cfg config.Config) *Engine {
	return NewEngine(cfg.MaxDiscountPercent)
}

var Module = fx.Module("pricing",
	fx.Provide(NewEngineFromConfig),
)
