package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.RunMigrations && cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if err := seed.EnsureDefaultUsers(conn, genID); err != nil {
			return err
		}
		if err := seed.EnsureDefaultSettings(conn, genID); err != nil {
			return err
		}
		if cfg.SeedDemoCatalog {
			return seed.EnsureDemoCatalog(conn, genID)
		}
		return nil
	}),
)
