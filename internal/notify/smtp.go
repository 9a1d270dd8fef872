package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

// Config holds relay settings. Credentials are supplied by the environment
// and never compiled in.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// RequireTLS enforces STARTTLS; disable only for local relays.
	RequireTLS bool
	Timeout    time.Duration
}

// Mailer implements imagery.Notifier over authenticated SMTP.
type Mailer struct {
	cfg Config
}

// New validates cfg and returns a Mailer.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is not configured")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address is not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailer{cfg: cfg}, nil
}

// Send opens one relay session, transmits msg and closes the session.
// Every failure is a *imagery.DeliveryError; nothing is retried.
func (m *Mailer) Send(ctx context.Context, msg imagery.Message) error {
	fail := func(err error) error {
		return &imagery.DeliveryError{Recipient: msg.To, Err: err}
	}

	mm, err := m.buildMessage(msg)
	if err != nil {
		return fail(err)
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fail(fmt.Errorf("configure relay: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fail(err)
	}
	return nil
}

func (m *Mailer) buildMessage(msg imagery.Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if msg.AttachmentPath != "" {
		if _, err := os.Stat(msg.AttachmentPath); err != nil {
			return nil, fmt.Errorf("attachment unavailable: %w", err)
		}
		mm.AttachFile(msg.AttachmentPath, mail.WithFileName(filepath.Base(msg.AttachmentPath)))
	}
	return mm, nil
}

func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.RequireTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}
