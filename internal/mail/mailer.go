package mail

import (
	"context"
	"fmt"
	"strings"

	"eshop/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// Mailer delivers the one-time codes of the credential lifecycle. Delivery is
// best-effort from the caller's point of view: lifecycle transitions commit
// regardless, and failures are logged.
type Mailer interface {
	SendActivationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// NewMailer picks the SMTP mailer when a host is configured, otherwise a
// logging stand-in so development setups work without a mail server.
func NewMailer(cfg config.Config) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// SMTPMailer sends codes through an SMTP relay.
type SMTPMailer struct {
	cfg config.Config
}

func (m *SMTPMailer) SendActivationCode(ctx context.Context, email, code string) error {
	link := fmt.Sprintf("%s/api/v1/rest/activate/%s", strings.TrimRight(m.cfg.PublicBaseURL, "/"), code)
	body := fmt.Sprintf("Welcome to eshop. Please visit this link to activate your account: %s", link)
	return m.send(ctx, email, "Account activation", body)
}

func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	link := fmt.Sprintf("%s/reset/%s", strings.TrimRight(m.cfg.PublicBaseURL, "/"), code)
	body := fmt.Sprintf("Please visit this link to reset your password: %s", link)
	return m.send(ctx, email, "Password reset", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
	}
	if m.cfg.SMTPTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// implicit TLS on 465, STARTTLS otherwise
		if m.cfg.SMTPPort == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if m.cfg.SMTPUsername != "" && m.cfg.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.SMTPUsername),
			mail.WithPassword(m.cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(m.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer writes the codes to the log instead of sending mail.
type LogMailer struct{}

func (m *LogMailer) SendActivationCode(_ context.Context, email, code string) error {
	logrus.WithFields(logrus.Fields{"email": email, "code": code}).Info("activation code issued (smtp not configured)")
	return nil
}

func (m *LogMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	logrus.WithFields(logrus.Fields{"email": email, "code": code}).Info("password reset code issued (smtp not configured)")
	return nil
}
