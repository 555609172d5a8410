package config

import (
	"fmt"
	"strings"

	"github.com/holdcart/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Cart     CartConfig     `mapstructure:"cart"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志输出配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 包的初始化参数
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 用户令牌配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig 缓存配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 购物车写接口限流配置
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	WindowSeconds int  `mapstructure:"window_seconds"`
	MaxRequests   int  `mapstructure:"max_requests"`
}

// CartConfig 购物车与库存协调配置
type CartConfig struct {
	LockTTLMs            int  `mapstructure:"lock_ttl_ms"`            // 单用户操作锁的过期时间
	LockWaitMs           int  `mapstructure:"lock_wait_ms"`           // 等待获取用户锁的上限
	StorageTimeoutMs     int  `mapstructure:"storage_timeout_ms"`     // 单次操作的存储层总超时
	StorageRetryAttempts int  `mapstructure:"storage_retry_attempts"` // 存储冲突/超时的内部重试次数
	AuditIntervalMinutes int  `mapstructure:"audit_interval_minutes"` // 库存对账周期
	OversellAlerts       bool `mapstructure:"oversell_alerts"`        // 超卖事件是否投递告警任务
}

// Load 加载配置，优先级：环境变量 > config.yml > 内置默认值
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{".", "./", "../", "./etc"} {
		v.AddConfigPath(dir)
	}

	applyDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return &cfg
}

func applyDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"server.host": "0.0.0.0",
		"server.port": "8080",
		"server.mode": "debug",

		"log.dir":          "",
		"log.filename":     "app.log",
		"log.max_size_mb":  100,
		"log.max_backups":  7,
		"log.max_age_days": 30,
		"log.compress":     true,

		"database.driver":                          "sqlite",
		"database.dsn":                             "./db/holdcart.db",
		"database.pool.max_open_conns":             1,
		"database.pool.max_idle_conns":             1,
		"database.pool.conn_max_lifetime_seconds":  0,
		"database.pool.conn_max_idle_time_seconds": 0,

		"user_jwt.secret":       "user-change-me-in-production",
		"user_jwt.expire_hours": 24,

		"redis.enabled":  true,
		"redis.host":     "127.0.0.1",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,
		"redis.prefix":   "hc",

		"queue.enabled":     true,
		"queue.host":        "127.0.0.1",
		"queue.port":        6379,
		"queue.password":    "",
		"queue.db":          1,
		"queue.concurrency": 10,
		"queue.queues": map[string]int{
			"default":  10,
			"critical": 5,
		},

		"cors.allowed_origins": []string{"*"},
		"cors.allowed_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		"cors.allowed_headers": []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           600,

		"security.rate_limit.enabled":        true,
		"security.rate_limit.window_seconds": 60,
		"security.rate_limit.max_requests":   60,

		"cart.lock_ttl_ms":            5000,
		"cart.lock_wait_ms":           2000,
		"cart.storage_timeout_ms":     3000,
		"cart.storage_retry_attempts": 3,
		"cart.audit_interval_minutes": 30,
		"cart.oversell_alerts":        true,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
