package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	IaqualinkCfg IaqualinkConfig
	DatabaseCfg  DatabaseConfig
	RedisCfg     RedisConfig
	MqttCfg      MqttConfig
	SmtpCfg      SmtpConfig
	AlertCfg     AlertConfig
	ServerCfg    ServerConfig
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"INFO"`
}

type IaqualinkConfig struct {
	Email       string        `env:"POOL_EMAIL"`
	Password    string        `env:"POOL_PASSWORD"`
	ApiKey      string        `env:"IAQUALINK_API_KEY" envDefault:"EOOEMOW4YR6QNB07"`
	AuthURL     string        `env:"IAQUALINK_AUTH_URL" envDefault:"https://support.iaqualink.com"`
	RealtimeURL string        `env:"IAQUALINK_REALTIME_URL" envDefault:"https://iaqualink-api.realtime.io"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	URL              string `env:"DATABASE_URL"`
	MigrationsFolder string `env:"MIGRATIONS_FOLDER"`
	RetentionDays    int    `env:"RETENTION_DAYS" envDefault:"0"`
}

// RedisConfig switches the session store to redis when Addr is set.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type MqttConfig struct {
	Host     string `env:"MQTT_HOST"`
	Username string `env:"MQTT_USER"`
	Password string `env:"MQTT_PASS"`
}

type SmtpConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"ALERT_FROM"`
	To       string `env:"ALERT_TO"`
	Subject  string `env:"ALERT_SUBJECT" envDefault:"Pool Alert"`
}

type AlertConfig struct {
	Threshold       time.Duration `env:"ALERT_THRESHOLD" envDefault:"1h"`
	Window          int           `env:"ALERT_WINDOW" envDefault:"120"`
	SuppressRepeats bool          `env:"ALERT_SUPPRESS_REPEATS" envDefault:"false"`
}

type ServerConfig struct {
	Listen           string `env:"LISTEN_ADDR" envDefault:"0.0.0.0:8080"`
	TimeZone         string `env:"TIMEZONE" envDefault:"America/Chicago"`
	TriggerTokenHash string `env:"TRIGGER_TOKEN_HASH"`
}

// Load reads the whole configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
