// Package config 负责加载服务配置：先读 YAML 文件，再用环境变量覆盖。
package config

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory = "memory"
	StorageMySQL  = "mysql"

	GuardMemory    = "memory"
	GuardRedis     = "redis"
	GuardZookeeper = "zookeeper"

	InventoryLocal = "local"
	InventoryHTTP  = "http"

	PaymentFake = "fake"
	PaymentHTTP = "http"

	NotifierLog   = "log"
	NotifierKafka = "kafka"

	// GuardTTLMargin 是 Redis 处理锁的 TTL 至少要比处理超时多出的时间，
	// 否则锁可能在补偿结束前过期，让第二个处理者进来
	GuardTTLMargin = 10 * time.Second
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Jaeger       JaegerConfig       `yaml:"jaeger"`
	Nacos        NacosConfig        `yaml:"nacos"`
	Zookeeper    ZookeeperConfig    `yaml:"zookeeper"`
	Inventory    InventoryConfig    `yaml:"inventory"`
	Payment      PaymentConfig      `yaml:"payment"`
	Notification NotificationConfig `yaml:"notification"`
	Workflow     WorkflowConfig     `yaml:"workflow"`
	Policy       PolicyConfig       `yaml:"policy"`
	Auth         AuthConfig         `yaml:"auth"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	LockTimeout  time.Duration `yaml:"lock_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Brokers           []string `yaml:"brokers"`
	NotificationTopic string   `yaml:"notification_topic"`
	ProcessTopic      string   `yaml:"process_topic"`
	ProcessGroupID    string   `yaml:"process_group_id"`
	DLTTopic          string   `yaml:"dlt_topic"`
	DLTGroupID        string   `yaml:"dlt_group_id"`
}

type JaegerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

type ZookeeperConfig struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

// InventoryConfig 决定订单流程调用进程内的库存服务还是独立部署的 inventory-service
type InventoryConfig struct {
	Mode        string `yaml:"mode"`
	ServiceName string `yaml:"service_name"`
	BaseURL     string `yaml:"base_url"`
}

type PaymentConfig struct {
	Mode        string        `yaml:"mode"`
	ServiceName string        `yaml:"service_name"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	// 仅 fake 模式使用：超过该金额的支付被拒绝，0 表示不限制
	DeclineAbove string `yaml:"decline_above"`
}

type NotificationConfig struct {
	Mode    string        `yaml:"mode"`
	Timeout time.Duration `yaml:"timeout"`
}

type WorkflowConfig struct {
	GuardBackend      string        `yaml:"guard_backend"`
	GuardTTL          time.Duration `yaml:"guard_ttl"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
}

// PolicyConfig 中的每条规则都是一个 CEL 表达式，结果必须为 true 才允许下单
type PolicyConfig struct {
	Rules []string `yaml:"rules"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// API key -> 调用方名称
	APIKeys map[string]string `yaml:"api_keys"`
}

// Default 返回一份可以直接在本地跑起来的配置（内存存储，无外部依赖）
func Default() *Config {
	return &Config{
		App:      AppConfig{Name: "txflow", Env: "dev", LogLevel: "info", LogFormat: "json"},
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		Database: DatabaseConfig{Driver: StorageMemory, LockTimeout: 3 * time.Second, MaxOpenConns: 20},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			Brokers:           []string{"localhost:9092"},
			NotificationTopic: "notifications",
			ProcessTopic:      "order-process-topic",
			ProcessGroupID:    "order-process-consumer-group",
			DLTTopic:          "order-process-topic-dlt",
			DLTGroupID:        "order-process-dlt-group",
		},
		Jaeger:       JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		Nacos:        NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		Zookeeper:    ZookeeperConfig{Servers: []string{"localhost:2181"}, SessionTimeout: 5 * time.Second},
		Inventory:    InventoryConfig{Mode: InventoryLocal, ServiceName: "inventory-service"},
		Payment:      PaymentConfig{Mode: PaymentFake, ServiceName: "payment-gateway", Timeout: 5 * time.Second},
		Notification: NotificationConfig{Mode: NotifierLog, Timeout: 5 * time.Second},
		Workflow:     WorkflowConfig{GuardBackend: GuardMemory, GuardTTL: 60 * time.Second, ProcessingTimeout: 30 * time.Second},
	}
}

var current atomic.Pointer[Config]

// Current 返回最近一次 Load 的结果，未加载时返回默认配置
func Current() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	return Default()
}

// Load 读取 path 指定的 YAML 文件（文件不存在时只用默认值），再应用环境变量覆盖。
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	current.Store(cfg)
	return cfg, nil
}

// Validate 检查配置中的枚举值和必填项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageMemory:
	case StorageMySQL:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required when driver is mysql")
		}
	default:
		return errors.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch c.Workflow.GuardBackend {
	case GuardMemory, GuardZookeeper:
	case GuardRedis:
		if c.Workflow.ProcessingTimeout <= 0 {
			return errors.New("workflow.processing_timeout must be positive when guard_backend is redis")
		}
		if c.Workflow.GuardTTL < c.Workflow.ProcessingTimeout+GuardTTLMargin {
			return errors.Errorf("workflow.guard_ttl %s must be at least processing_timeout %s plus %s",
				c.Workflow.GuardTTL, c.Workflow.ProcessingTimeout, GuardTTLMargin)
		}
	default:
		return errors.Errorf("unknown workflow.guard_backend %q", c.Workflow.GuardBackend)
	}
	switch c.Inventory.Mode {
	case InventoryLocal:
	case InventoryHTTP:
		if c.Inventory.BaseURL == "" && !c.Nacos.Enabled {
			return errors.New("inventory.base_url is required when nacos is disabled")
		}
	default:
		return errors.Errorf("unknown inventory.mode %q", c.Inventory.Mode)
	}
	switch c.Payment.Mode {
	case PaymentFake:
	case PaymentHTTP:
		if c.Payment.BaseURL == "" && !c.Nacos.Enabled {
			return errors.New("payment.base_url is required when nacos is disabled")
		}
	default:
		return errors.Errorf("unknown payment.mode %q", c.Payment.Mode)
	}
	switch c.Notification.Mode {
	case NotifierLog:
	case NotifierKafka:
		if !c.Kafka.Enabled {
			return errors.New("notification.mode kafka requires kafka.enabled")
		}
	default:
		return errors.Errorf("unknown notification.mode %q", c.Notification.Mode)
	}
	if c.Database.LockTimeout <= 0 {
		return errors.New("database.lock_timeout must be positive")
	}
	if c.Payment.Timeout <= 0 || c.Notification.Timeout <= 0 {
		return errors.New("payment.timeout and notification.timeout must be positive")
	}
	return nil
}

func applyEnv(c *Config) {
	c.App.Name = getEnv("APP_NAME", c.App.Name)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.LogFormat = getEnv("LOG_FORMAT", c.App.LogFormat)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("MYSQL_DSN", c.Database.DSN)
	c.Database.LockTimeout = getEnvDuration("DB_LOCK_TIMEOUT", c.Database.LockTimeout)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	c.Jaeger.Enabled = getEnvBool("JAEGER_ENABLED", c.Jaeger.Enabled)
	c.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Jaeger.Endpoint)

	c.Nacos.Enabled = getEnvBool("NACOS_ENABLED", c.Nacos.Enabled)
	c.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", c.Nacos.ServerAddrs)
	c.Nacos.Namespace = getEnv("NACOS_NAMESPACE", c.Nacos.Namespace)
	c.Nacos.Group = getEnv("NACOS_GROUP", c.Nacos.Group)

	if v := getEnv("ZK_SERVERS", ""); v != "" {
		c.Zookeeper.Servers = strings.Split(v, ",")
	}

	c.Inventory.Mode = getEnv("INVENTORY_MODE", c.Inventory.Mode)
	c.Inventory.BaseURL = getEnv("INVENTORY_BASE_URL", c.Inventory.BaseURL)

	c.Payment.Mode = getEnv("PAYMENT_MODE", c.Payment.Mode)
	c.Payment.BaseURL = getEnv("PAYMENT_BASE_URL", c.Payment.BaseURL)
	c.Payment.Timeout = getEnvDuration("PAYMENT_TIMEOUT", c.Payment.Timeout)

	c.Notification.Mode = getEnv("NOTIFICATION_MODE", c.Notification.Mode)
	c.Notification.Timeout = getEnvDuration("NOTIFICATION_TIMEOUT", c.Notification.Timeout)

	c.Workflow.GuardBackend = getEnv("GUARD_BACKEND", c.Workflow.GuardBackend)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
