package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the file read when no path is given.
const ConfigPath = "config.yaml"

// Data sources.
const (
	DataSourceMySQL  = "mysql"
	DataSourceMemory = "memory"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionCookie = "cookie"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DataSource  string `yaml:"dataSource"`
	CatalogPath string `yaml:"catalogPath"`

	MySQLHost     string `yaml:"mysqlHost"`
	MySQLPort     int    `yaml:"mysqlPort"`
	MySQLUser     string `yaml:"mysqlUser"`
	MySQLPassword string `yaml:"mysqlPassword"`
	MySQLDatabase string `yaml:"mysqlDatabase"`
	MySQLSSLCA    string `yaml:"mysqlSSLCA"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	SessionBackend      string `yaml:"sessionBackend"`
	SessionSecret       string `yaml:"sessionSecret"`
	SessionTTL          string `yaml:"sessionTTL"`
	SessionCookieName   string `yaml:"sessionCookieName"`
	SessionCookieSecure bool   `yaml:"sessionCookieSecure"`

	SearchRateLimitPerMinute int      `yaml:"searchRateLimitPerMinute"`
	TrustedProxyCIDRs        []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path, applies environment overrides, fills defaults
// and validates. When path is empty MOVIEDB_CONFIG is consulted, then
// ConfigPath; a missing default file is not an error.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	explicit := path != ""
	if !explicit {
		if v := os.Getenv("MOVIEDB_CONFIG"); v != "" {
			path, explicit = v, true
		} else {
			path = ConfigPath
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString(&cfg.Port, "MOVIEDB_PORT")
	setString(&cfg.LogLevel, "MOVIEDB_LOG_LEVEL")
	setString(&cfg.DataSource, "MOVIEDB_DATA_SOURCE")
	setString(&cfg.CatalogPath, "MOVIEDB_CATALOG_PATH")

	setString(&cfg.MySQLHost, "MYSQL_HOST")
	setInt(&cfg.MySQLPort, "MYSQL_PORT")
	setString(&cfg.MySQLUser, "MYSQL_USER")
	setString(&cfg.MySQLPassword, "MYSQL_PASSWORD")
	if cfg.MySQLPassword == "" {
		setString(&cfg.MySQLPassword, "MYSQL_ROOT_PASSWORD")
	}
	setString(&cfg.MySQLDatabase, "MYSQL_DATABASE")
	setString(&cfg.MySQLSSLCA, "MYSQL_SSL_CA")

	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")

	setString(&cfg.SessionBackend, "MOVIEDB_SESSION_BACKEND")
	setString(&cfg.SessionSecret, "MOVIEDB_SESSION_SECRET")
	setString(&cfg.SessionTTL, "MOVIEDB_SESSION_TTL")
	if v := os.Getenv("MOVIEDB_SESSION_COOKIE_SECURE"); v != "" {
		cfg.SessionCookieSecure = v == "true"
	}
	setInt(&cfg.SearchRateLimitPerMinute, "MOVIEDB_SEARCH_RATE_LIMIT_PER_MINUTE")
	if v := os.Getenv("MOVIEDB_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))
	if cfg.DataSource == "" {
		cfg.DataSource = DataSourceMySQL
	}
	if cfg.MySQLHost == "" {
		cfg.MySQLHost = "localhost"
	}
	if cfg.MySQLPort == 0 {
		cfg.MySQLPort = 3306
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = SessionMemory
	}
	if cfg.SessionTTL == "" {
		cfg.SessionTTL = "12h"
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "moviedb_session"
	}
}

func validateConfig(cfg FileConfig) error {
	switch cfg.DataSource {
	case DataSourceMySQL:
		if cfg.MySQLUser == "" {
			return errors.New("config: mysqlUser is required (set in config.yaml or MYSQL_USER)")
		}
		if cfg.MySQLDatabase == "" {
			return errors.New("config: mysqlDatabase is required (set in config.yaml or MYSQL_DATABASE)")
		}
		if cfg.MySQLPort <= 0 || cfg.MySQLPort > 65535 {
			return fmt.Errorf("config: mysqlPort %d out of range", cfg.MySQLPort)
		}
	case DataSourceMemory:
		if cfg.CatalogPath == "" {
			return errors.New("config: catalogPath is required for the memory data source")
		}
	default:
		return fmt.Errorf("config: unknown dataSource %q (want mysql or memory)", cfg.DataSource)
	}

	switch cfg.SessionBackend {
	case SessionMemory:
	case SessionRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis session backend")
		}
	case SessionCookie:
		if len(cfg.SessionSecret) < 16 {
			return errors.New("config: sessionSecret of at least 16 bytes is required for the cookie session backend")
		}
	default:
		return fmt.Errorf("config: unknown sessionBackend %q (want memory, redis or cookie)", cfg.SessionBackend)
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return err
	}
	if cfg.SearchRateLimitPerMinute < 0 {
		return errors.New("config: searchRateLimitPerMinute must not be negative")
	}
	return nil
}

// ParseSessionTTL parses a Go duration string and requires it to be positive.
func ParseSessionTTL(raw string) (time.Duration, error) {
	ttl, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: invalid sessionTTL %q: %w", raw, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("config: sessionTTL must be positive, got %s", ttl)
	}
	return ttl, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
