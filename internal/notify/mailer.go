package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Message is one plain text email.
type Message struct {
	From     string
	To       string
	Subject  string
	Body     string
	Language string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLS is "mandatory", "opportunistic" or "none".
	TLS string
}

// SMTPMailer sends messages through an SMTP relay.
type SMTPMailer struct {
	config SMTPConfig
}

func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	if config.Port == 0 {
		config.Port = 25
	}
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewMsg()
	if err := email.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := email.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	email.Subject(msg.Subject)
	if msg.Language != "" {
		email.SetGenHeader(mail.Header("Content-Language"), msg.Language)
	}
	email.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(m.config.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.config.Port)}
	switch m.config.TLS {
	case "mandatory":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password),
		)
	}
	return opts
}
