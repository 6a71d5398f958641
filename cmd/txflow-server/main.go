// cmd/txflow-server/main.go
package main

import (
	"context"
	"os"

	"txflow/internal/pkg/bootstrap"
	"txflow/internal/pkg/config"
	"txflow/internal/pkg/logger"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      cfg.App.Name,
		Config:           cfg,
		RegisterHandlers: wire,
	})
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
