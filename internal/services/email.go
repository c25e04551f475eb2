package services

import (
	"crypto/tls"
	"fmt"
	"html"

	"github.com/princeprakhar/marketplace-backend/internal/config"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"gopkg.in/gomail.v2"
)

// ReviewMailer tells review authors what moderation decided.
type ReviewMailer interface {
	SendReviewDecisionEmail(to, name, productName string, status models.ReviewStatus, reason string) error
}

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(config *config.Config) *EmailService {
	d := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword)
	d.TLSConfig = &tls.Config{ServerName: config.SMTPHost}
	return &EmailService{config: config, dialer: d}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	return s.dialer.DialAndSend(s.message(to, subject, body))
}

func (s *EmailService) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *EmailService) SendReviewDecisionEmail(to, name, productName string, status models.ReviewStatus, reason string) error {
	subject, body := reviewDecisionContent(name, productName, status, reason, s.config.FrontendURL)
	return s.SendEmail(to, subject, body)
}

func reviewDecisionContent(name, productName string, status models.ReviewStatus, reason, frontendURL string) (string, string) {
	if name == "" {
		name = "there"
	}

	headline, color := "Your review has been published", "#4CAF50"
	if status == models.ReviewRejected {
		headline, color = "Your review was not published", "#d9534f"
	}
	subject := fmt.Sprintf("%s: %s", headline, productName)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: %s; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>%s</h1>
        </div>
        <div class="content">
            <p>Hello %s,</p>
            <p>Your review of <strong>%s</strong> is now <strong>%s</strong>.</p>
            <p>%s</p>
            <p>You can edit your review at any time from <a href="%s">your account</a>; edits are moderated again.</p>
        </div>
        <div class="footer">
            <p>This is an automated message, please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>`,
		color,
		html.EscapeString(headline),
		html.EscapeString(name),
		html.EscapeString(productName),
		status,
		html.EscapeString(reason),
		html.EscapeString(frontendURL),
	)

	return subject, body
}
