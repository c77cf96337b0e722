package service

import (
	"errors"
	"fmt"

	mail "github.com/go-mail/mail/v2"

	"github.com/luminalib/lumina/store"
)

// ErrMailNotConfigured is returned when reminders are requested without
// SMTP settings.
var ErrMailNotConfigured = errors.New("smtp not configured")

// Mailer sends overdue reminder notices over SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *Mailer) Enabled() bool {
	return m.host != "" && m.from != ""
}

// SendOverdueNotice emails the loan's user that the book is past due.
func (m *Mailer) SendOverdueNotice(loan store.LoanWithRefs) error {
	if !m.Enabled() {
		return ErrMailNotConfigured
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", loan.UserEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Overdue: %s", loan.BookTitle))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\n'%s' by %s was due on %s. Please return it at your earliest convenience.\n\nLumina Library",
		loan.UserName, loan.BookTitle, loan.BookAuthor, loan.DueDate.Format("02 Jan 2006")))

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return d.DialAndSend(msg)
}
