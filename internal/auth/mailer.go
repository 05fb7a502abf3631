package auth

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers OTP codes over SMTP with STARTTLS.
type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	User     string
	Password string
}

// SendOTP sends the login code. Without a configured password it fails
// closed: no mail means no login.
func (m *SMTPMailer) SendOTP(to, code string) error {
	if m.Password == "" {
		return errors.New("MAIL_PASSWORD not set, cannot send OTP")
	}

	body := fmt.Sprintf("Ihr Login-Code lautet: %s\r\n\r\nDer Code ist %d Minuten gültig.", code, int(otpTTL.Minutes()))
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: Reminder",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	a := smtp.PlainAuth("", m.User, m.Password, m.Host)
	return smtp.SendMail(addr, a, m.From, []string{to}, []byte(msg))
}
