// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendQualificationReport(toEmail, dealID, stage string, total int, reportHTML string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendQualificationReport(toEmail, dealID, stage string, total int, reportHTML string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("BANT report for deal %s: %s (%d/100)", dealID, stage, total))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Qualification interview finished</h2>
			<p>Deal <b>%s</b> scored <b>%d/100</b> — stage <b>%s</b>.</p>
			%s
		</div>
	`, dealID, total, stage, reportHTML)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report for deal %s: %v\n", dealID, err)
		return err
	}

	fmt.Printf("[MAILER] Qualification report sent to %s (deal %s)\n", toEmail, dealID)
	return nil
}
