// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/typecode/accounts/internal/config"
	"codeberg.org/typecode/accounts/internal/handlers"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/account"
	"codeberg.org/typecode/accounts/internal/services/email"
	"codeberg.org/typecode/accounts/internal/services/password"
	"codeberg.org/typecode/accounts/internal/services/profile"
	"codeberg.org/typecode/accounts/internal/services/session"
	"codeberg.org/typecode/accounts/internal/services/throttle"
	"codeberg.org/typecode/accounts/internal/services/token"
	"github.com/vinovest/sqlx"
)

// app holds the wired services behind the HTTP layer.
type app struct {
	handlers *handlers.Handlers
	tokens   *token.Issuer
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, db *sqlx.DB) (*app, error) {
	repo := repository.New(db)

	tokens, err := token.NewIssuer(&cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	cookies, err := session.NewManager(&cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie manager: %w", err)
	}

	sender, err := newSender(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}

	a := &app{tokens: tokens}
	limiter := a.newLimiter(ctx, &cfg.Redis)

	accounts := account.NewService(repo, repo, sender, tokens,
		account.WithHasher(password.NewHasher(cfg.Security.BcryptCost)),
		account.WithLimiter(limiter),
	)

	a.handlers = handlers.New(handlers.Deps{
		Accounts: accounts,
		Profiles: profile.NewService(repo),
		Cruises:  repo,
		Tokens:   tokens,
		Cookies:  cookies,
		DB:       repo,
	})
	return a, nil
}

// newSender delivers mail over SMTP, or logs codes when no host is set.
func newSender(cfg *config.SMTPConfig) (account.CodeSender, error) {
	if cfg.Host == "" {
		slog.Warn("smtp host not configured, codes are logged instead of mailed")
		return email.NewLogSender(slog.Default()), nil
	}
	svc, err := email.NewService(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// newLimiter connects to Redis when configured. An unreachable Redis
// disables throttling instead of blocking startup.
func (a *app) newLimiter(ctx context.Context, cfg *config.RedisConfig) throttle.Limiter {
	if cfg.URL == "" {
		return throttle.Nop{}
	}

	client, err := throttle.Connect(ctx, cfg.URL)
	if err != nil {
		slog.Warn("send-code throttling disabled", "error", err)
		return throttle.Nop{}
	}
	a.closers = append(a.closers, client.Close)
	return throttle.NewRedisLimiter(client, cfg.SendCodeLimit, cfg.SendCodeWindow)
}

// Close releases connections opened by newApp.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Error("failed to close connection", "error", err)
		}
	}
}
