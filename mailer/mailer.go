// Package mailer delivers a finished report workbook over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Config holds SMTP settings and the report's distribution list.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	CC       []string

	SubjectPrefix string // e.g. "Admissions Funnel Report"
	Greeting      string // opening line, default "Hello,"
	Signature     string // closing line of the body
}

// Mailer sends report mail. A nil logger discards.
type Mailer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send mails the workbook at path to the configured recipients, dating the
// subject with runDate. With no recipients configured it logs and returns
// nil, so unattended runs still produce the file.
func (m *Mailer) Send(ctx context.Context, path string, runDate time.Time) error {
	if len(m.cfg.To) == 0 {
		m.logger.Warn("no mail recipients configured, skipping send", "attachment", path)
		return nil
	}

	msg, err := m.buildMessage(path, runDate)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	m.logger.Info("report mailed", "to", strings.Join(m.cfg.To, ", "), "attachment", path)
	return nil
}

// buildMessage assembles subject, HTML body, and attachment.
func (m *Mailer) buildMessage(path string, runDate time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("mailer: from address: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("mailer: to addresses: %w", err)
	}
	if len(m.cfg.CC) > 0 {
		if err := msg.Cc(m.cfg.CC...); err != nil {
			return nil, fmt.Errorf("mailer: cc addresses: %w", err)
		}
	}

	msg.Subject(fmt.Sprintf("%s - %s", m.cfg.SubjectPrefix, runDate.Format("January 2, 2006")))
	msg.SetBodyString(mail.TypeTextHTML, m.body(runDate))
	msg.AttachFile(path)
	return msg, nil
}

func (m *Mailer) body(runDate time.Time) string {
	greeting := m.cfg.Greeting
	if greeting == "" {
		greeting = "Hello,"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>", greeting)
	fmt.Fprintf(&b, "<p>Attached is the report generated on %s.</p>", runDate.Format("Monday, January 2, 2006"))
	if m.cfg.Signature != "" {
		fmt.Fprintf(&b, "<p>%s</p>", m.cfg.Signature)
	}
	return b.String()
}
