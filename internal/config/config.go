package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Intake   IntakeConfig   `yaml:"intake"`
	Notify   NotifyConfig   `yaml:"notify"`
	Admin    AdminConfig    `yaml:"admin"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
	Env  string `yaml:"env"`  // local, development, production
}

// DatabaseConfig MySQL settings
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN returns the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// RedisConfig Redis settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// StorageConfig media host (S3-compatible) and local disk settings
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	LocalPath       string `yaml:"local_path"`    // fallback store for submitted images
	LocalBaseURL    string `yaml:"local_base_url"`
	StagingPath     string `yaml:"staging_path"`  // draft slot bytes
}

// IntakeConfig draft lifecycle settings
type IntakeConfig struct {
	DraftTTL      time.Duration `yaml:"draft_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// NotifyConfig chat webhook and email settings
type NotifyConfig struct {
	WebhookURL   string   `yaml:"webhook_url"`
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password"`
	From         string   `yaml:"from"`
	Recipients   []string `yaml:"recipients"`
}

// AdminConfig admin API settings
type AdminConfig struct {
	APIKey string `yaml:"api_key"`
}

// CORSConfig CORS settings
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// Load reads the YAML file at path, applies defaults and environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Default returns a config with every optional field filled in
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8082, Mode: "debug", Env: "local"},
		Database: DatabaseConfig{
			Host: "localhost", Port: 3306,
			MaxIdleConns: 10, MaxOpenConns: 50, ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		Storage: StorageConfig{
			Region:      "auto",
			BasePath:    "leads/",
			LocalPath:   "./uploads",
			StagingPath: "./staging",
		},
		Intake: IntakeConfig{
			DraftTTL:      72 * time.Hour,
			SweepInterval: 15 * time.Minute,
		},
		Notify: NotifyConfig{SMTPPort: 587},
		CORS:   CORSConfig{AllowOrigins: "http://localhost:3000"},
	}
}

// applyEnv lets secrets come from the environment instead of the YAML file
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Bucket, "S3_BUCKET")
	setString(&cfg.Notify.WebhookURL, "NOTIFY_WEBHOOK_URL")
	setString(&cfg.Notify.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Admin.APIKey, "ADMIN_API_KEY")
	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// IsDevelopment reports whether the server runs in a local/development env
func (c *Config) IsDevelopment() bool {
	switch c.Server.Env {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

// LogResolved prints the resolved configuration with secrets masked
func LogResolved(c *Config) {
	pkglogger.GetLogger().Info().
		Str("env", c.Server.Env).
		Int("port", c.Server.Port).
		Str("db", fmt.Sprintf("%s@%s:%d/%s", c.Database.User, c.Database.Host, c.Database.Port, c.Database.DBName)).
		Str("db_password", mask(c.Database.Password)).
		Str("redis", fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)).
		Bool("s3_enabled", c.Storage.Enabled).
		Str("s3_bucket", c.Storage.Bucket).
		Str("s3_secret", mask(c.Storage.SecretAccessKey)).
		Str("staging_path", c.Storage.StagingPath).
		Dur("draft_ttl", c.Intake.DraftTTL).
		Bool("webhook", c.Notify.WebhookURL != "").
		Int("email_recipients", len(c.Notify.Recipients)).
		Str("admin_api_key", mask(c.Admin.APIKey)).
		Msg("config resolved")
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
