package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"txflow/internal/pkg/bootstrap"
	"txflow/internal/pkg/config"
	"txflow/internal/pkg/database"
	"txflow/internal/pkg/health"
	"txflow/internal/pkg/httpclient"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/memdb"
	"txflow/internal/pkg/metrics"
	"txflow/internal/pkg/mq"
	"txflow/internal/pkg/redis"
	"txflow/internal/pkg/zookeeper"
	invapp "txflow/internal/service/inventory/application"
	invdomain "txflow/internal/service/inventory/domain"
	invinfra "txflow/internal/service/inventory/infrastructure"
	invhttp "txflow/internal/service/inventory/interfaces"
	ledgerapp "txflow/internal/service/ledger/application"
	ledgerdomain "txflow/internal/service/ledger/domain"
	ledgerinfra "txflow/internal/service/ledger/infrastructure"
	ledgerhttp "txflow/internal/service/ledger/interfaces"
	orderapp "txflow/internal/service/order/application"
	orderdomain "txflow/internal/service/order/domain"
	orderinfra "txflow/internal/service/order/infrastructure"
	"txflow/internal/service/order/infrastructure/adapter"
	orderhttp "txflow/internal/service/order/interfaces"
	"txflow/internal/service/order/port"
)

// txManager 同时满足各服务的事务接口和健康检查
type txManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
}

type stores struct {
	txm          txManager
	accounts     ledgerdomain.AccountRepository
	transactions ledgerdomain.TransactionRepository
	products     invdomain.ProductRepository
	orders       orderdomain.OrderRepository
}

// wire 组装账本、库存、订单三个服务并挂到同一个 ServeMux 上
func wire(app *bootstrap.AppCtx) error {
	cfg := app.Config
	ctx := context.Background()
	tracer := otel.Tracer(cfg.App.Name)

	st, err := openStores(app)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder("txflow", prometheus.DefaultRegisterer)

	// 1. 账本和库存
	ledgerSvc := ledgerapp.NewLedgerApplicationService(st.accounts, st.transactions, st.txm, tracer)
	inventorySvc := invapp.NewInventoryApplicationService(st.products, st.txm, tracer)

	// 2. 订单流程的协作方
	inventory := newInventoryPort(app, tracer, inventorySvc)
	payment, paymentHealth, err := newPaymentGateway(app, tracer)
	if err != nil {
		return err
	}
	guard, err := newGuard(ctx, app)
	if err != nil {
		return err
	}
	notifier := newNotifier(app)

	orderSvc := orderapp.NewOrderApplicationService(st.orders, st.txm, tracer, inventory, payment, notifier, guard, orderapp.Options{
		PaymentTimeout:      cfg.Payment.Timeout,
		NotificationTimeout: cfg.Notification.Timeout,
		ProcessingTimeout:   cfg.Workflow.ProcessingTimeout,
		Observer:            recorder,
	})

	policy, err := orderapp.NewPolicy(cfg.Policy.Rules)
	if err != nil {
		return err
	}
	decorators := []orderapp.Decorator{orderapp.WithLogging(), orderapp.WithTiming(recorder)}
	if cfg.Auth.Enabled {
		decorators = append(decorators, orderapp.WithAuth(cfg.Auth.APIKeys))
	}
	decorators = append(decorators, orderapp.WithValidation(policy))
	httpOrders := orderapp.Decorate(orderSvc, decorators...)

	// 3. 异步处理链路：HTTP 投递 -> Kafka -> 消费者 -> ProcessOrder，失败进 DLT
	var enqueuer orderhttp.ProcessEnqueuer
	if cfg.Kafka.Enabled {
		consumerOrders := orderapp.Decorate(orderSvc, orderapp.WithLogging(), orderapp.WithTiming(recorder), orderapp.WithValidation(nil))
		enqueuer = startProcessPipeline(app, consumerOrders)
	}

	// 4. 路由
	ledgerhttp.NewLedgerHandler(ledgerSvc).RegisterRoutes(app.Mux)
	invhttp.NewInventoryHandler(inventorySvc).RegisterRoutes(app.Mux)
	orderhttp.NewOrderHandler(httpOrders, enqueuer).RegisterRoutes(app.Mux)

	registry := health.NewRegistry(5*time.Second,
		health.NewDatabaseIndicator(cfg.Database.Driver, st.txm),
		health.NewBusinessIndicator(recorder),
	)
	if paymentHealth != nil {
		registry.Register(paymentHealth)
	}
	app.Mux.HandleFunc("GET /health", registry.Handler())
	app.Mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.txm.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	logger.Ctx(ctx).Info().
		Str("storage", cfg.Database.Driver).
		Str("guard", cfg.Workflow.GuardBackend).
		Str("inventory", cfg.Inventory.Mode).
		Str("payment", cfg.Payment.Mode).
		Str("notifier", cfg.Notification.Mode).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("✅ Services wired")
	return nil
}

func openStores(app *bootstrap.AppCtx) (*stores, error) {
	cfg := app.Config.Database
	if cfg.Driver != config.StorageMySQL {
		db := memdb.New(cfg.LockTimeout)
		return &stores{
			txm:          db,
			accounts:     ledgerinfra.NewMemoryAccountRepository(db),
			transactions: ledgerinfra.NewMemoryTransactionRepository(db),
			products:     invinfra.NewMemoryProductRepository(db),
			orders:       orderinfra.NewMemoryOrderRepository(db),
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	app.OnShutdown("mysql", func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	if cfg.AutoMigrate {
		for _, migrate := range []func(*gorm.DB) error{ledgerinfra.AutoMigrate, invinfra.AutoMigrate, orderinfra.AutoMigrate} {
			if err := migrate(db); err != nil {
				return nil, errors.Wrap(err, "auto migrate")
			}
		}
	}
	return &stores{
		txm:          database.NewTxManager(db, cfg.LockTimeout),
		accounts:     ledgerinfra.NewGormAccountRepository(db),
		transactions: ledgerinfra.NewGormTransactionRepository(db),
		products:     invinfra.NewGormProductRepository(db),
		orders:       orderinfra.NewGormOrderRepository(db),
	}, nil
}

// resolverFor 优先走 Nacos 服务发现，否则使用固定地址
func resolverFor(app *bootstrap.AppCtx, baseURL string) httpclient.Resolver {
	if app.Nacos != nil {
		return app.Nacos
	}
	return httpclient.StaticResolver(baseURL)
}

func newInventoryPort(app *bootstrap.AppCtx, tracer trace.Tracer, local *invapp.InventoryApplicationService) port.InventoryService {
	cfg := app.Config.Inventory
	if cfg.Mode == config.InventoryHTTP {
		client := httpclient.NewClient(tracer, resolverFor(app, cfg.BaseURL))
		return adapter.NewInventoryHTTPAdapter(client, cfg.ServiceName)
	}
	return adapter.NewInventoryLocalAdapter(local)
}

// newPaymentGateway 返回支付网关，远程模式下同时返回它的健康检查
func newPaymentGateway(app *bootstrap.AppCtx, tracer trace.Tracer) (port.PaymentGateway, health.Indicator, error) {
	cfg := app.Config.Payment
	if cfg.Mode == config.PaymentHTTP {
		resolver := resolverFor(app, cfg.BaseURL)
		indicator := health.NewExternalAPIIndicator(cfg.ServiceName, func() (string, error) {
			base, err := resolver.Resolve(cfg.ServiceName)
			return base + "/healthz", err
		}, 5*time.Second)
		return adapter.NewPaymentHTTPAdapter(httpclient.NewClient(tracer, resolver), cfg.ServiceName), indicator, nil
	}

	limit := decimal.Zero
	if cfg.DeclineAbove != "" {
		var err error
		if limit, err = decimal.NewFromString(cfg.DeclineAbove); err != nil {
			return nil, nil, errors.Wrapf(err, "parse payment.decline_above %q", cfg.DeclineAbove)
		}
	}
	return adapter.NewFakePaymentGateway(limit), nil, nil
}

func newGuard(ctx context.Context, app *bootstrap.AppCtx) (port.ProcessingGuard, error) {
	cfg := app.Config
	switch cfg.Workflow.GuardBackend {
	case config.GuardRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.OnShutdown("redis", func(context.Context) error { return client.Close() })
		return adapter.NewRedisGuard(client, cfg.Workflow.GuardTTL)
	case config.GuardZookeeper:
		conn, err := zookeeper.Connect(cfg.Zookeeper.Servers, cfg.Zookeeper.SessionTimeout)
		if err != nil {
			return nil, err
		}
		app.OnShutdown("zookeeper", func(context.Context) error { conn.Close(); return nil })
		// 已有人在处理时立刻返回冲突，不排队等待
		return adapter.NewZookeeperGuard(conn, 0), nil
	default:
		return adapter.NewMemoryGuard(), nil
	}
}

func newNotifier(app *bootstrap.AppCtx) port.Notifier {
	cfg := app.Config
	if cfg.Notification.Mode != config.NotifierKafka {
		return adapter.LogNotifier{}
	}
	notifier := adapter.NewNotificationKafkaAdapter(mq.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic))
	app.OnShutdown("notification writer", func(context.Context) error { return notifier.Close() })
	return notifier
}

// startProcessPipeline 启动订单处理消费者和 DLT 消费者，返回投递端
func startProcessPipeline(app *bootstrap.AppCtx, orders orderapp.OrderService) orderhttp.ProcessEnqueuer {
	cfg := app.Config.Kafka
	consumerCtx, cancel := context.WithCancel(context.Background())

	processWriter := mq.NewKafkaWriter(cfg.Brokers, cfg.ProcessTopic)
	dltWriter := mq.NewKafkaWriter(cfg.Brokers, cfg.DLTTopic)
	app.OnShutdown("process writer", func(context.Context) error { return processWriter.Close() })
	app.OnShutdown("dlt writer", func(context.Context) error { return dltWriter.Close() })

	processConsumer := orderhttp.NewOrderProcessConsumer(
		mq.NewKafkaReader(cfg.Brokers, cfg.ProcessTopic, cfg.ProcessGroupID),
		cfg.ProcessTopic,
		orders,
		mq.NewFailureHandler(dltWriter),
	)
	dltConsumer := orderhttp.NewDltConsumerAdapter(mq.NewKafkaReader(cfg.Brokers, cfg.DLTTopic, cfg.DLTGroupID), cfg.DLTTopic)

	_ = processConsumer.Start(consumerCtx)
	_ = dltConsumer.Start(consumerCtx)
	// 消费者要先于 writer 关闭，所以最后注册
	app.OnShutdown("kafka consumers", func(ctx context.Context) error {
		cancel()
		processConsumer.Stop(ctx)
		dltConsumer.Stop(ctx)
		return nil
	})

	return adapter.NewProcessRequestProducer(processWriter)
}
