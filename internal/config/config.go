// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Token    TokenConfig
	Cookie   CookieConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	Security SecurityConfig
	CORS     CORSConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type TokenConfig struct { //nolint:govet // fieldalignment not critical for config structs
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// CookieConfig describes the cookie carrying the refresh token.
type CookieConfig struct { //nolint:govet // fieldalignment not critical
	Name     string
	Path     string
	HashKey  string // 32-byte hex string for HMAC signing
	BlockKey string // 32-byte hex string for AES encryption (optional)
	MaxAge   int    // seconds, derived from the refresh token TTL
	Secure   bool
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type RedisConfig struct { //nolint:govet // fieldalignment not critical for config structs
	URL            string
	SendCodeLimit  int
	SendCodeWindow time.Duration
}

type SecurityConfig struct {
	BcryptCost int
}

type CORSConfig struct {
	AllowOrigins []string
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Token: TokenConfig{
			AccessSecret:  cmd.String("token-access-secret"),
			RefreshSecret: cmd.String("token-refresh-secret"),
			AccessTTL:     cmd.Duration("token-access-ttl"),
			RefreshTTL:    cmd.Duration("token-refresh-ttl"),
			Issuer:        cmd.String("token-issuer"),
		},
		Cookie: CookieConfig{
			Name:     cmd.String("cookie-name"),
			Path:     cmd.String("cookie-path"),
			HashKey:  cmd.String("cookie-hash-key"),
			BlockKey: cmd.String("cookie-block-key"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Redis: RedisConfig{
			URL:            cmd.String("redis-url"),
			SendCodeLimit:  int(cmd.Int("send-code-limit")),
			SendCodeWindow: cmd.Duration("send-code-window"),
		},
		Security: SecurityConfig{
			BcryptCost: int(cmd.Int("bcrypt-cost")),
		},
		CORS: CORSConfig{
			AllowOrigins: cmd.StringSlice("cors-origins"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	applyCookieDefaults(cfg)

	return cfg
}

// applyCookieDefaults derives cookie settings from the base URL and token TTL.
func applyCookieDefaults(cfg *Config) {
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "refreshToken"
	}
	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	cfg.Cookie.MaxAge = int(cfg.Token.RefreshTTL / time.Second)
	cfg.Cookie.Secure = strings.HasPrefix(cfg.Server.BaseURL, "https://")
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	// Local development runs on plain HTTP, everything else sits behind TLS.
	scheme := "https"
	if IsLocalhost(host) {
		scheme = "http"
	}

	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public base URL of the API",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		// Token flags
		&cli.StringFlag{
			Name:    "token-access-secret",
			Usage:   "Signing secret for access tokens (random per process if empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACCESS_TOKEN_SECRET"), toml.TOML("token.access_secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-refresh-secret",
			Usage:   "Signing secret for refresh tokens (random per process if empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REFRESH_TOKEN_SECRET"), toml.TOML("token.refresh_secret", configFile)),
		},
		&cli.DurationFlag{
			Name:    "token-access-ttl",
			Value:   15 * time.Minute,
			Usage:   "Lifetime of access tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACCESS_TOKEN_TTL"), toml.TOML("token.access_ttl", configFile)),
		},
		&cli.DurationFlag{
			Name:    "token-refresh-ttl",
			Value:   7 * 24 * time.Hour,
			Usage:   "Lifetime of refresh tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REFRESH_TOKEN_TTL"), toml.TOML("token.refresh_ttl", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-issuer",
			Value:   "accounts",
			Usage:   "Issuer claim written into tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_ISSUER"), toml.TOML("token.issuer", configFile)),
		},
		// Cookie flags
		&cli.StringFlag{
			Name:    "cookie-name",
			Value:   "refreshToken",
			Usage:   "Name of the refresh token cookie",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COOKIE_NAME"), toml.TOML("cookie.name", configFile)),
		},
		&cli.StringFlag{
			Name:    "cookie-path",
			Value:   "/",
			Usage:   "Path of the refresh token cookie",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COOKIE_PATH"), toml.TOML("cookie.path", configFile)),
		},
		&cli.StringFlag{
			Name:    "cookie-hash-key",
			Usage:   "Cookie hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COOKIE_HASH_KEY"), toml.TOML("cookie.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "cookie-block-key",
			Usage:   "Cookie block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COOKIE_BLOCK_KEY"), toml.TOML("cookie.block_key", configFile)),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host (codes are logged instead of mailed if empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Sender display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		// Redis flags
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL or host:port for send-code throttling (disabled if empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_URL"), toml.TOML("redis.url", configFile)),
		},
		&cli.IntFlag{
			Name:    "send-code-limit",
			Value:   5,
			Usage:   "Maximum codes sent per email address within the window",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SEND_CODE_LIMIT"), toml.TOML("redis.send_code_limit", configFile)),
		},
		&cli.DurationFlag{
			Name:    "send-code-window",
			Value:   time.Hour,
			Usage:   "Window for the send-code limit",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SEND_CODE_WINDOW"), toml.TOML("redis.send_code_window", configFile)),
		},
		// Security flags
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   10,
			Usage:   "bcrypt work factor for password hashes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BCRYPT_COST"), toml.TOML("security.bcrypt_cost", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Usage:   "Origins allowed to call the API with credentials",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CORS_ORIGINS"), toml.TOML("cors.origins", configFile)),
		},
	}
}
