package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（通知网关出口）
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 监控服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 监控核心特定配置
	Monitor struct {
		// 模拟周期间隔（秒），默认 8秒
		SimulationInterval int

		// 风险评分的报警统计窗口（分钟），默认 60分钟
		RiskWindowMinutes int

		// 服药宽限期（分钟），默认 30分钟
		MedicationGraceMinutes int

		// Redis 缓存配置
		Cache struct {
			LatestKeyPrefix string // 最新读数缓存键前缀，如 "vitalguard:patient:"
			LatestSuffix    string // 最新读数缓存键后缀，如 ":latest"
			LatestTTL       int    // 最新读数 TTL（秒），默认 60秒
		}

		// Redis Streams 发布配置（供下游服务消费）
		Streams struct {
			Readings string // 读数流，如 "vitalguard:readings"
			Alerts   string // 报警流，如 "vitalguard:alerts"
		}

		// 通知出口配置
		Notification struct {
			Topic   string // MQTT 主题，如 "vitalguard/notifications/critical"
			Channel string // 下游投递渠道标识，如 "whatsapp"
		}
	}

	// WebSocket 接入监听地址
	Server struct {
		WSAddr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// SimulationInterval 模拟周期间隔
func (c *Config) SimulationInterval() time.Duration {
	return time.Duration(c.Monitor.SimulationInterval) * time.Second
}

// RiskWindow 风险评分统计窗口
func (c *Config) RiskWindow() time.Duration {
	return time.Duration(c.Monitor.RiskWindowMinutes) * time.Minute
}

// MedicationGrace 服药宽限期
func (c *Config) MedicationGrace() time.Duration {
	return time.Duration(c.Monitor.MedicationGraceMinutes) * time.Minute
}

// Load 加载配置
func Load() (*Config, error) {
	// .env 文件可选，不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{}

	// 从环境变量加载（带默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "vitalguard")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "vitalguard-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.Monitor.SimulationInterval = getEnvInt("SIMULATION_INTERVAL", 8)
	cfg.Monitor.RiskWindowMinutes = getEnvInt("RISK_WINDOW_MINUTES", 60)
	cfg.Monitor.MedicationGraceMinutes = getEnvInt("MEDICATION_GRACE_MINUTES", 30)

	cfg.Monitor.Cache.LatestKeyPrefix = getEnv("CACHE_LATEST_PREFIX", "vitalguard:patient:")
	cfg.Monitor.Cache.LatestSuffix = ":latest"
	cfg.Monitor.Cache.LatestTTL = getEnvInt("CACHE_LATEST_TTL", 60)

	cfg.Monitor.Streams.Readings = getEnv("STREAM_READINGS", "vitalguard:readings")
	cfg.Monitor.Streams.Alerts = getEnv("STREAM_ALERTS", "vitalguard:alerts")

	cfg.Monitor.Notification.Topic = getEnv("NOTIFY_TOPIC", "vitalguard/notifications/critical")
	cfg.Monitor.Notification.Channel = getEnv("NOTIFY_CHANNEL", "whatsapp")

	cfg.Server.WSAddr = getEnv("WS_ADDR", ":8090")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}
