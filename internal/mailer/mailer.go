package mailer

import (
	"fmt"
	"net/smtp"
)

type Sender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	host string
	port string
	from string
}

func NewSMTPSender(host, port, from string) Sender {
	return &smtpSender{host: host, port: port, from: from}
}

func (s *smtpSender) Send(to, subject, body string) error {
	addr := s.host + ":" + s.port

	msg := "From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	if err := smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
