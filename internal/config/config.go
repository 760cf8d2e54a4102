package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	TransportRabbitMQ = "rabbitmq"
	TransportSMTP     = "smtp"

	AvatarsLocal = "local"
	AvatarsMinio = "minio"
)

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	Storage      `yaml:"storage"`
	Tokens       `yaml:"tokens"`
	Verification `yaml:"verification"`
	Password     `yaml:"password"`
	Email        `yaml:"email"`
	RabbitMQ     `yaml:"rabbitmq"`
	Postgres     `yaml:"postgres"`
	Avatars      `yaml:"avatars"`
	Minio        `yaml:"minio"`
	HTTPServer   `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:3000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// MaxUploadSize caps multipart avatar uploads, in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size" env-default:"5242880"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		p.Host,
		p.Port,
		p.User,
		p.Password,
		p.DBName,
		p.SSLMode,
	)
}

type Tokens struct {
	SessionTokenTTL    time.Duration `yaml:"session_token_ttl" env-default:"23h"`
	SessionTokenSecret string        `yaml:"session_token_secret" env:"SESSION_TOKEN_SECRET" env-required:"true"`
}

type Verification struct {
	// BaseURL is the public origin embedded in verification links.
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:3000"`
}

type Password struct {
	Cost int `yaml:"cost" env-default:"10"`
}

type Email struct {
	Transport string `yaml:"transport" env:"EMAIL_TRANSPORT" env-default:"rabbitmq"`
	Host      string `yaml:"host" env:"SMTP_HOST"`
	Port      int    `yaml:"port" env:"SMTP_PORT" env-default:"465"`
	Username  string `yaml:"username" env:"SMTP_USERNAME"`
	Password  string `yaml:"password" env:"SMTP_PASSWORD"`
	From      string `yaml:"from" env:"SMTP_FROM"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env-default:"emails"`
}

type Avatars struct {
	Backend string `yaml:"backend" env:"AVATARS_BACKEND" env-default:"local"`
	TempDir string `yaml:"temp_dir" env-default:"./tmp"`
	Dir     string `yaml:"dir" env-default:"./public/avatars"`
	Size    int    `yaml:"size" env-default:"250"`
	// MaxPixels rejects uploads whose width*height exceeds it before decoding.
	MaxPixels int `yaml:"max_pixels" env-default:"25000000"`
}

type Minio struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env-default:"avatars"`
	UseSSL    bool   `yaml:"use_ssl" env-default:"false"`
}

// MustLoad reads configPath, falling back to CONFIG_PATH and then
// ./config/config.yaml when it is empty.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}

	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Email.Transport {
	case TransportRabbitMQ:
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq.url is required for %q email transport", TransportRabbitMQ)
		}
	case TransportSMTP:
		if c.Email.Host == "" {
			return fmt.Errorf("email.host is required for %q email transport", TransportSMTP)
		}
	default:
		return fmt.Errorf("unknown email transport %q", c.Email.Transport)
	}

	switch c.Avatars.Backend {
	case AvatarsLocal, AvatarsMinio:
	default:
		return fmt.Errorf("unknown avatars backend %q", c.Avatars.Backend)
	}

	return nil
}
