package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
	SendNGOVerificationEmail(email, ngoName, outcome string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to HelpHive!")

	body := fmt.Sprintf(`
		<h2>Welcome to HelpHive, %s!</h2>
		<p>Thank you for registering. Your account has been created.</p>
		<p>Browse open volunteering tasks and start making a difference.</p>
		<p>Best regards,<br>The HelpHive Team</p>
	`, name)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendNGOVerificationEmail(email, ngoName, outcome string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your NGO verification result")

	body := fmt.Sprintf(`
		<h3>Verification update for %s</h3>
		<p>Your organization's verification request has been <strong>%s</strong>.</p>
		<p>Approved organizations can post volunteering tasks right away.</p>
	`, ngoName, outcome)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
