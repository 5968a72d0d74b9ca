package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender mails the welcome message through an SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(e *email.Email, addr string, a smtp.Auth) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		send: func(e *email.Email, addr string, a smtp.Auth) error {
			return e.Send(addr, a)
		},
	}
}

func (s *SMTPSender) SendWelcome(ctx context.Context, to string, fullName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := strings.TrimSpace(fullName)
	if name == "" {
		name = to
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = "Welcome"
	e.Text = []byte(fmt.Sprintf("Hi %s,\n\nYour account %s is ready. You can sign in with this email address.\n", name, to))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(e, addr, auth); err != nil {
		return fmt.Errorf("send welcome to %s: %w", addr, err)
	}
	return nil
}
