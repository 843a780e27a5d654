package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/BongominErickJuma/quickmart-server/models"
)

// Mailer sends the transactional emails the auth flow needs.
type Mailer interface {
	SendWelcome(user *models.User, profileURL string) error
	SendPasswordReset(user *models.User, resetURL string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) SendWelcome(user *models.User, profileURL string) error {
	return m.send(user.Email, "Welcome to QuickMart", welcomeTemplate, emailData{
		FirstName: user.FirstName,
		URL:       profileURL,
	})
}

func (m *smtpMailer) SendPasswordReset(user *models.User, resetURL string) error {
	return m.send(user.Email, "Your password reset token (valid for 10 minutes)", resetTemplate, emailData{
		FirstName: user.FirstName,
		URL:       resetURL,
	})
}

type emailData struct {
	FirstName string
	URL       string
}

func (m *smtpMailer) send(to, subject string, tmpl *template.Template, data emailData) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.HTML = body.Bytes()

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
