package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode   `mapstructure:"mode" toml:"mode"`
	Env       string `mapstructure:"app_env" toml:"app_env"` // "production" switches to JSON logs
	LogLevel  string `mapstructure:"log_level" toml:"log_level"`
	HTTPAddr  string `mapstructure:"http_addr" toml:"http_addr"`
	PublicURL string `mapstructure:"public_url" toml:"public_url"`

	DBDriver string `mapstructure:"db_driver" toml:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn" toml:"db_dsn"`

	ContentDir    string `mapstructure:"content_dir" toml:"content_dir"`
	CatalogSource string `mapstructure:"catalog_source" toml:"catalog_source"` // files|db

	SessionStore  string        `mapstructure:"session_store" toml:"session_store"` // memory|redis
	SessionTTL    time.Duration `mapstructure:"session_ttl" toml:"session_ttl"`
	RedisAddr     string        `mapstructure:"redis_addr" toml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" toml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" toml:"redis_db"`

	AuthHMACSecret  string        `mapstructure:"auth_hmac_secret" toml:"auth_hmac_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl" toml:"token_ttl"`
	EnableLocalAuth bool          `mapstructure:"enable_local_auth" toml:"enable_local_auth"`
	EnableGuestAuth bool          `mapstructure:"enable_guest_auth" toml:"enable_guest_auth"`

	AdminUser     string `mapstructure:"admin_user" toml:"admin_user"`
	AdminPassHash string `mapstructure:"admin_pass_hash" toml:"admin_pass_hash"` // bcrypt

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online" toml:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline" toml:"cors_origins_offline"`
}

// Load reads .env (if present), then an optional config file, then the
// environment. Environment variables use the upper-cased key, e.g. HTTP_ADDR.
// An empty path looks for config/studycentre.yaml.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("studycentre")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}
	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOriginsOnline = cleanList(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = cleanList(cfg.CORSOriginsOffline)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("public_url", "")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("content_dir", "./content")
	v.SetDefault("catalog_source", "files")
	v.SetDefault("session_store", "memory")
	v.SetDefault("session_ttl", "2h")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("auth_hmac_secret", "supersecret-dev-key")
	v.SetDefault("token_ttl", "8h")
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("enable_guest_auth", true)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("cors_origins_online", "https://studycentre.mindengage.ai")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:3010")
}

// CORSOrigins returns the origin list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("mode must be one of: offline, online")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("db_driver must be one of: sqlite, postgres")
	}
	switch c.CatalogSource {
	case "files":
		if c.ContentDir == "" {
			return fmt.Errorf("content_dir is required when catalog_source is files")
		}
	case "db":
	default:
		return fmt.Errorf("catalog_source must be one of: files, db")
	}
	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required when session_store is redis")
		}
	default:
		return fmt.Errorf("session_store must be one of: memory, redis")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	if c.AuthHMACSecret == "" {
		return fmt.Errorf("auth_hmac_secret is required")
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == "supersecret-dev-key" {
		return fmt.Errorf("auth_hmac_secret must be changed in online mode")
	}
	return nil
}

// Redact returns a copy safe to print.
func (c Config) Redact() Config {
	out := c
	out.AuthHMACSecret = redactKey(c.AuthHMACSecret)
	out.AdminPassHash = redactKey(c.AdminPassHash)
	out.RedisPassword = redactKey(c.RedisPassword)
	out.DBDSN = redactDSN(c.DBDSN)
	return out
}

func redactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// redactDSN masks the password in URL-style DSNs.
func redactDSN(dsn string) string {
	scheme := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":****" + dsn[at:]
	}
	return dsn
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		for _, s := range strings.Split(p, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
