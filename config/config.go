package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bloodlink/models"

	"github.com/glebarez/sqlite"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the settings of both the reference API server and the CLI client.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port          string        `yaml:"port"`
	GinMode       string        `yaml:"gin_mode"`
	DBPath        string        `yaml:"db_path"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminName     string        `yaml:"admin_name"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

type ClientConfig struct {
	BackendURL string        `yaml:"backend_url"`
	Timeout    time.Duration `yaml:"timeout"`
	// TokenStore is one of file, sqlite, redis, memory.
	TokenStore           string `yaml:"token_store"`
	TokenPath            string `yaml:"token_path"`
	RedisAddr            string `yaml:"redis_addr"`
	RedisKey             string `yaml:"redis_key"`
	LogoutOnUnauthorized bool   `yaml:"logout_on_unauthorized"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			GinMode:   "debug",
			DBPath:    "bloodlink.db",
			JWTSecret: "bloodlink_dev_secret_change_me",
			TokenTTL:  7 * 24 * time.Hour,
			AdminName: "Administrator",
		},
		Client: ClientConfig{
			BackendURL: "http://localhost:8080",
			Timeout:    15 * time.Second,
			TokenStore: "file",
			TokenPath:  defaultTokenPath(),
			RedisAddr:  "localhost:6379",
			RedisKey:   "bloodlink:token",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// BLOODLINK_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("BLOODLINK_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto c.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	c.Server.DBPath = getEnv("DB_PATH", c.Server.DBPath)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
	c.Server.AdminName = getEnv("ADMIN_NAME", c.Server.AdminName)
	c.Server.AdminEmail = getEnv("ADMIN_EMAIL", c.Server.AdminEmail)
	c.Server.AdminPassword = getEnv("ADMIN_PASSWORD", c.Server.AdminPassword)

	c.Client.BackendURL = strings.TrimRight(getEnv("BLOODLINK_SERVER", c.Client.BackendURL), "/")
	c.Client.TokenStore = getEnv("TOKEN_STORE", c.Client.TokenStore)
	c.Client.TokenPath = getEnv("TOKEN_PATH", c.Client.TokenPath)
	c.Client.RedisAddr = getEnv("REDIS_ADDR", c.Client.RedisAddr)
	c.Client.RedisKey = getEnv("REDIS_KEY", c.Client.RedisKey)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	var err error
	if c.Server.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.Server.TokenTTL); err != nil {
		return err
	}
	if c.Client.Timeout, err = getEnvDuration("CLIENT_TIMEOUT", c.Client.Timeout); err != nil {
		return err
	}
	if c.Client.LogoutOnUnauthorized, err = getEnvBool("LOGOUT_ON_UNAUTHORIZED", c.Client.LogoutOnUnauthorized); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bloodlink-token"
	}
	return filepath.Join(dir, "bloodlink", "token")
}

// OpenSQLite opens a gorm handle on the sqlite file at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// OpenDB opens the API server database and migrates all models.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Donor{},
		&models.BloodRequest{},
		&models.Activity{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
