package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kathyli05/kathboard/internal/storage"
)

// Config is the process configuration. It is built once at startup.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	MCP      MCPConfig      `yaml:"mcp"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	SQLitePath      string        `yaml:"sqlite_path"`
	MySQL           MySQLConfig   `yaml:"mysql"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type MySQLConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MCPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "./data/kathboard.db",
			MySQL: MySQLConfig{
				Host:     "127.0.0.1",
				Port:     3306,
				User:     "root",
				Database: "kathboard",
			},
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr:            ":5000",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		MCP:      MCPConfig{Addr: ":8081"},
		LogLevel: "info",
	}
}

// Load layers defaults, the YAML file at path (skipped when path is empty or
// the file is absent), a .env file in the working directory, and finally
// KATHBOARD_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Driver, "KATHBOARD_DRIVER")
	setString(&c.Database.SQLitePath, "KATHBOARD_SQLITE_PATH")
	setString(&c.Database.MySQL.DSN, "KATHBOARD_MYSQL_DSN")
	setString(&c.HTTP.Addr, "KATHBOARD_HTTP_ADDR")
	setString(&c.MCP.Addr, "KATHBOARD_MCP_ADDR")
	setString(&c.LogLevel, "KATHBOARD_LOG_LEVEL")

	if port := os.Getenv("PORT"); port != "" && os.Getenv("KATHBOARD_HTTP_ADDR") == "" {
		c.HTTP.Addr = ":" + port
	}
	if origins := os.Getenv("KATHBOARD_CORS_ORIGINS"); origins != "" {
		c.HTTP.CORSOrigins = splitList(origins)
	}
	if v := os.Getenv("KATHBOARD_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KATHBOARD_MAX_OPEN_CONNS: %w", err)
		}
		c.Database.MaxOpenConns = n
	}
	return nil
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3":
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required for the sqlite driver")
		}
	case "mysql":
		if c.Database.MySQL.DSN == "" && c.Database.MySQL.Host == "" {
			return errors.New("database.mysql needs a dsn or a host")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported (use sqlite or mysql)", c.Database.Driver)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	return nil
}

// Storage converts the database section into store settings.
func (c Config) Storage() storage.Config {
	db := c.Database
	return storage.Config{
		Driver:     db.Driver,
		SQLitePath: db.SQLitePath,
		MySQL: storage.MySQLConfig{
			Host:     db.MySQL.Host,
			Port:     db.MySQL.Port,
			User:     db.MySQL.User,
			Password: db.MySQL.Password,
			Database: db.MySQL.Database,
		},
		MySQLDSN:        db.MySQL.DSN,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
