package email

import (
	"fmt"
	"net/smtp"

	"github.com/FRI2020/talk-trace/internal/config"
)

type AlertSender struct {
	config *config.Config
}

func NewAlertSender(cfg *config.Config) *AlertSender {
	return &AlertSender{config: cfg}
}

// SendHandoffAlert notifies the operator that a human-handled contact wrote
// a new message. When SMTP credentials or the alert address are unset the
// alert is silently skipped.
func (s *AlertSender) SendHandoffAlert(waID, message string) error {
	if s.config.SMTP.Email == "" || s.config.SMTP.Password == "" || s.config.SMTP.AlertTo == "" {
		return nil
	}

	from := s.config.SMTP.Email
	password := s.config.SMTP.Password
	host := s.config.SMTP.Host
	port := s.config.SMTP.Port
	address := host + ":" + port

	subject := fmt.Sprintf("Subject: New message from %s (human chat active)\n", waID)
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<html>
			<body>
				<p>Contact <b>%s</b> sent a message while human chat is active:</p>
				<blockquote>%s</blockquote>
				<p>Reply from the TalkTrace dashboard.</p>
			</body>
		</html>
	`, waID, message)

	msg := []byte(subject + mime + body)

	auth := smtp.PlainAuth("", from, password, host)

	if err := smtp.SendMail(address, auth, from, []string{s.config.SMTP.AlertTo}, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}
