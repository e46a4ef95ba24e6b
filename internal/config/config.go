package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"prod"`
	ErrorLogPath string `yaml:"error_log_path" env:"ERROR_LOG_PATH" env-default:"errors.log"`
	HTTPServer   `yaml:"http_server"`
	Database     `yaml:"database"`
	Catalog      `yaml:"catalog"`

	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
	MetricsEnabled bool     `yaml:"metrics_enabled" env:"METRICS_ENABLED" env-default:"true"`

	// FrontendDir holds the built SPA. Static serving is off when empty.
	FrontendDir string `yaml:"frontend_dir" env:"FRONTEND_DIR"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`
	AdminRealm string `yaml:"admin_realm" env:"ADMIN_REALM" env-default:"Admin Area"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Database struct {
	DBUser     string `yaml:"db_user" env:"DB_USER" env-required:"true"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME" env-required:"true"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`
}

type Catalog struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"CATALOG_FETCH_TIMEOUT" env-default:"5s"`
}

// MustConfig reads the YAML file named by CONFIG_PATH (or the local default),
// letting environment variables and a .env file override it.
func MustConfig() *Config {
	// .env is optional
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
