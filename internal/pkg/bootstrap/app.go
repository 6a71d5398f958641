// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"txflow/internal/pkg/config"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/nacos"
	"txflow/internal/pkg/tracing"
)

// AppCtx 是注册路由时可以拿到的公共组件
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config
	// Nacos 在未启用服务发现时为 nil
	Nacos *nacos.Client

	hooks *shutdownHooks
}

// OnShutdown 注册一个关停时执行的清理函数，按注册顺序的逆序执行
func (a *AppCtx) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.hooks.add(name, fn)
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName string
	Config      *config.Config
	// RegisterHandlers 允许每个服务注册自己独特的 HTTP 路由和后台任务
	RegisterHandlers func(appCtx *AppCtx) error
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑，阻塞直到收到退出信号。
func StartService(info AppInfo) {
	cfg := info.Config
	logger.Init(info.ServiceName, cfg.App.LogLevel, cfg.App.LogFormat)
	ctx := context.Background()
	log := logger.Ctx(ctx)

	// 1. Tracer
	shutdownTracing, err := tracing.Init(info.ServiceName, cfg.Jaeger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	hooks := &shutdownHooks{}
	hooks.add("tracer provider", shutdownTracing)

	// 2. 服务注册
	appCtx := &AppCtx{Mux: http.NewServeMux(), Config: cfg, hooks: hooks}
	if cfg.Nacos.Enabled {
		appCtx.Nacos, err = nacos.NewNacosClient(cfg.Nacos)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
	}

	appCtx.Mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	appCtx.Mux.Handle("GET /metrics", promhttp.Handler())
	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(appCtx); err != nil {
			hooks.run(ctx)
			log.Fatal().Err(err).Str("service", info.ServiceName).Msg("failed to wire service")
		}
	}

	// 3. 启动 HTTP Server
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           appCtx.Mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	hooks.add("http server", server.Shutdown)
	go func() {
		log.Info().Str("service", info.ServiceName).Int("port", cfg.Server.Port).Msg("✅ HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 4. 注册到 Nacos，关停时最先注销
	if appCtx.Nacos != nil {
		ip, err := GetOutboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := appCtx.Nacos.RegisterServiceInstance(info.ServiceName, ip, cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
		hooks.add("nacos registration", func(context.Context) error {
			return appCtx.Nacos.DeregisterServiceInstance(info.ServiceName, ip, cfg.Server.Port)
		})
	}

	// 5. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Str("service", info.ServiceName).Msg("🛑 Shutting down service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	hooks.run(shutdownCtx)

	log.Info().Str("service", info.ServiceName).Msg("Service gracefully shut down.")
}

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

type shutdownHooks struct {
	hooks []shutdownHook
}

func (h *shutdownHooks) add(name string, fn func(ctx context.Context) error) {
	h.hooks = append(h.hooks, shutdownHook{name: name, fn: fn})
}

// run 按后进先出执行所有清理函数，单个失败不影响后续
func (h *shutdownHooks) run(ctx context.Context) {
	for i := len(h.hooks) - 1; i >= 0; i-- {
		hook := h.hooks[i]
		if err := hook.fn(ctx); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("component", hook.name).Msg("Error during shutdown")
			continue
		}
		logger.Ctx(ctx).Info().Str("component", hook.name).Msg("Component shut down.")
	}
	h.hooks = nil
}

// GetOutboundIP 返回本机对外通信使用的 IP，用于服务注册
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", errors.Wrap(err, "dial udp")
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
