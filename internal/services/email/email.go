// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers verification and password reset codes.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/typecode/accounts/internal/config"
	"codeberg.org/typecode/accounts/internal/i18n"
	"codeberg.org/typecode/accounts/internal/services/code"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 15 * time.Second

// Service sends code emails via SMTP.
type Service struct {
	cfg *config.SMTPConfig
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg}, nil
}

// SendVerificationCode mails an email verification code.
func (s *Service) SendVerificationCode(ctx context.Context, to, value string) error {
	msg, err := s.BuildMessage(ctx, to, "email_verification", value)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// SendPasswordResetCode mails a password reset code.
func (s *Service) SendPasswordResetCode(ctx context.Context, to, value string) error {
	msg, err := s.BuildMessage(ctx, to, "email_password_reset", value)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// BuildMessage renders the localized message for kind without sending it.
func (s *Service) BuildMessage(ctx context.Context, to, kind, value string) (*mail.Msg, error) {
	subject, body := render(ctx, kind, value)

	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

func render(ctx context.Context, kind, value string) (string, string) {
	subject := i18n.T(ctx, kind+"_subject")
	body := i18n.TData(ctx, kind+"_body", map[string]any{
		"Code":    value,
		"Minutes": int(code.TTL / time.Minute),
	})
	return subject, body
}

func (s *Service) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(sendTimeout),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

func (s *Service) send(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// LogSender writes codes to the log instead of mailing them. Used when no
// SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendVerificationCode logs the verification code.
func (l *LogSender) SendVerificationCode(ctx context.Context, to, value string) error {
	l.log(ctx, "email_verification", to, value)
	return nil
}

// SendPasswordResetCode logs the reset code.
func (l *LogSender) SendPasswordResetCode(ctx context.Context, to, value string) error {
	l.log(ctx, "email_password_reset", to, value)
	return nil
}

func (l *LogSender) log(ctx context.Context, kind, to, value string) {
	subject, _ := render(ctx, kind, value)
	l.logger.InfoContext(ctx, "email_not_sent",
		"reason", "smtp not configured",
		"to", to,
		"subject", subject,
		"code", value,
	)
}
