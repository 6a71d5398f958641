// cmd/inventory-service/main.go
package main

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"

	"txflow/internal/pkg/bootstrap"
	"txflow/internal/pkg/config"
	"txflow/internal/pkg/database"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/memdb"
	"txflow/internal/service/inventory/application"
	"txflow/internal/service/inventory/domain"
	"txflow/internal/service/inventory/infrastructure"
	"txflow/internal/service/inventory/interfaces"
)

const serviceName = "inventory-service"

// 独立部署的库存服务，订单流程通过 inventory.mode=http 调用它
func main() {
	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Config:      cfg,
		RegisterHandlers: func(app *bootstrap.AppCtx) error {
			var (
				products domain.ProductRepository
				txm      domain.TxManager
			)
			if cfg.Database.Driver == config.StorageMySQL {
				db, err := database.Open(cfg.Database)
				if err != nil {
					return err
				}
				if cfg.Database.AutoMigrate {
					if err := infrastructure.AutoMigrate(db); err != nil {
						return err
					}
				}
				products, txm = infrastructure.NewGormProductRepository(db), database.NewTxManager(db, cfg.Database.LockTimeout)
			} else {
				db := memdb.New(cfg.Database.LockTimeout)
				products, txm = infrastructure.NewMemoryProductRepository(db), db
			}

			svc := application.NewInventoryApplicationService(products, txm, otel.Tracer(serviceName))
			interfaces.NewInventoryHandler(svc).RegisterRoutes(app.Mux)
			return nil
		},
	})
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
