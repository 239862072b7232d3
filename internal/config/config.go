package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string        `yaml:"env" env-default:"local"`
	CheckInterval time.Duration `yaml:"check_interval" env-default:"5m"`
	Notifier      string        `yaml:"notifier" env-default:"telegram"`
	Telegram      `yaml:"telegram"`
	Email         `yaml:"email"`
	Source        `yaml:"source"`
	RabbitMQ      `yaml:"rabbitmq"`
	Postgres      `yaml:"postgres"`
	HTTPServer    `yaml:"http_server"`
	Redis         `yaml:"redis"`
}

type Telegram struct {
	Token string `yaml:"token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
}

type Email struct {
	SMTPHost string `yaml:"smtp_host" env-default:"localhost"`
	SMTPPort int    `yaml:"smtp_port" env-default:"587"`
	Username string `yaml:"username"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from"`
}

type Source struct {
	BaseURL      string        `yaml:"base_url" env-default:"https://www.ebay-kleinanzeigen.de"`
	SearchPrefix string        `yaml:"search_prefix" env-default:"s-79102"`
	SearchSuffix string        `yaml:"search_suffix" env-default:"k0l9364r20"`
	UserAgent    string        `yaml:"user_agent" env-default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.97 Safari/537.36"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env-default:"30s"`
}

type RabbitMQ struct {
	URL string `yaml:"url" env-required:"true"`
	// Keep the pool at 1 so notifications for one tick leave the queue in
	// the order the listings were fetched.
	WorkerPoolSize int    `yaml:"worker_pool_size" env-default:"1"`
	QueueName      string `yaml:"queue_name" env-default:"notification_queue"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Redis struct {
	Addr       string        `yaml:"addr" env-default:"redis:6379"`
	Db         int           `yaml:"db" env-default:"1"`
	DefaultTTL time.Duration `yaml:"default_ttl" env-default:"1m"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", configPath)
	}

	return &cfg
}
