package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

const verificationSubject = "The BIGmini Crossword - Email Verification"

// SMTPSender delivers mail over authenticated SMTP (STARTTLS ports).
type SMTPSender struct {
	host     string
	port     string
	account  string
	password string
	from     string
}

func NewSMTPSender(host, port, account, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		account:  account,
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) SendVerification(_ context.Context, recipient, verificationURL string) error {
	body := fmt.Sprintf(
		`<p style="margin: 20px 0">Thank you for signing up for The BIGmini Crossword. Click the following link within 1 hour to activate your account:</p>
<p style="margin: 20px 0"><a href="%s" target="_blank">%s</a></p>
<p style="margin: 20px 0">Once activated, your stats will begin to be tracked.</p>`,
		verificationURL, verificationURL)

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + recipient,
		"Subject: " + verificationSubject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", s.account, s.password, s.host)
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, []byte(msg)); err != nil {
		return errors.Wrap(err, "[SendVerification] smtp.SendMail")
	}
	return nil
}
