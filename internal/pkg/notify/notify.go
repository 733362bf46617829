package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
)

// EmailSender delivers alerts over SMTP.
type EmailSender struct {
	client *mail.Client
	logger *zap.Logger
}

func NewEmailSender(cfg config.SmtpConfig) (*EmailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &EmailSender{client: client, logger: zap.L()}, nil
}

func (s *EmailSender) Send(ctx context.Context, message, from, to, subject string) error {
	msg, err := buildMessage(message, from, to, subject)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	s.logger.Info("alert email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(message, from, to, subject string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, message)
	return msg, nil
}

// LogSender only logs alerts. It is used when no SMTP server is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{logger: zap.L()}
}

func (s *LogSender) Send(_ context.Context, message, from, to, subject string) error {
	s.logger.Warn("alert", zap.String("message", message), zap.String("from", from), zap.String("to", to), zap.String("subject", subject))
	return nil
}
