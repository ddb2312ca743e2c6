// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/eventportal/internal/app/system/metrics"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Email is one outbound message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	// Template names the message kind for metrics ("verification", "reset").
	Template string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// TLS is "mandatory", "opportunistic" or "none".
	TLS string
}

// Mailer sends through an SMTP server.
type Mailer struct {
	cfg    Config
	log    *zap.Logger
	dialMu sync.Mutex
}

// New validates cfg and returns an SMTP mailer.
func New(cfg Config, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: smtp host is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("mailer: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg, log: logger}, nil
}

func (m *Mailer) tlsPolicy() mail.TLSPolicy {
	switch m.cfg.TLS {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}

// Message builds the go-mail message for e.
func (m *Mailer) Message(e Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	var err error
	if m.cfg.FromName != "" {
		err = msg.FromFormat(m.cfg.FromName, m.cfg.From)
	} else {
		err = msg.From(m.cfg.From)
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	}
	return msg, nil
}

// Send delivers e, dialing a fresh connection per message.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	msg, err := m.Message(e)
	if err != nil {
		metrics.MailSends.WithLabelValues(e.Template, "error").Inc()
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(m.tlsPolicy()),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password))
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		metrics.MailSends.WithLabelValues(e.Template, "error").Inc()
		return fmt.Errorf("mailer: client: %w", err)
	}

	m.dialMu.Lock()
	err = client.DialAndSendWithContext(ctx, msg)
	m.dialMu.Unlock()
	if err != nil {
		metrics.MailSends.WithLabelValues(e.Template, "error").Inc()
		m.log.Warn("email send failed",
			zap.String("template", e.Template),
			zap.String("to", e.To),
			zap.Error(err))
		return fmt.Errorf("mailer: send: %w", err)
	}
	metrics.MailSends.WithLabelValues(e.Template, "sent").Inc()
	m.log.Info("email sent", zap.String("template", e.Template), zap.String("to", e.To))
	return nil
}

// LogSender writes emails to the log instead of sending them. It is used
// in development when no SMTP server is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, e Email) error {
	metrics.MailSends.WithLabelValues(e.Template, "logged").Inc()
	s.Log.Info("email (not sent; smtp not configured)",
		zap.String("template", e.Template),
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("body", e.TextBody))
	return nil
}
