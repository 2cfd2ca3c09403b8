package mailer

import (
	"context"

	"github.com/shreyaskr77/Solvathon/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mailer sends plain-text notification mail. All sending is best-effort:
// callers never fail an operation because a message could not be delivered.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// smtpMailer implements Mailer over SMTP using go-mail.
type smtpMailer struct {
	client *mail.Client
	from   string
	log    *zap.Logger
}

// noopMailer is used when no SMTP host is configured; mail is silently
// skipped, mirroring the skip-when-unconfigured behavior of the portal.
type noopMailer struct {
	log *zap.Logger
}

// New builds a Mailer from config. An empty SMTP host yields a no-op mailer.
func New(cfg config.SMTPConfig, log *zap.Logger) (Mailer, error) {
	if cfg.Host == "" {
		log.Warn("smtp host not configured, email notifications disabled")
		return &noopMailer{log: log}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
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

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &smtpMailer{client: client, from: from, log: log}, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return err
	}

	m.log.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *noopMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Debug("email skipped, smtp disabled", zap.String("to", to), zap.String("subject", subject))
	return nil
}
