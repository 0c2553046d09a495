package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"soundwave/config"
	"soundwave/logger"
)

// Mailer sends account emails over SMTP. Sends are best-effort: callers
// fire them from a goroutine and failures are logged, never surfaced to
// the end user.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
	appURL   string
}

// NewMailer creates a Mailer from the application config.
func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		appURL:   cfg.AppURL,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.fromName, m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// SendWelcomeEmail sends the post-registration welcome mail.
func (m *Mailer) SendWelcomeEmail(to, firstName string) error {
	subject := "Welcome to Soundwave!"
	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello, %s!</h2>
    <p>Your Soundwave account is ready. You can now upload tracks, browse the catalog and start listening.</p>
    <p>Enjoy the music!</p>
    <p>The Soundwave Team</p>
  </div>
</body>
</html>`, firstName)
	return m.send(to, subject, body)
}

// SendConfirmationEmail sends the email confirmation link.
func (m *Mailer) SendConfirmationEmail(to, firstName, token string) error {
	subject := "Confirm your email - Soundwave"
	confirmURL := fmt.Sprintf("%s/confirm-email?token=%s&email=%s", m.appURL, token, to)
	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hi %s,</h2>
    <p>Please confirm your email address to activate your Soundwave account.</p>
    <p><a href="%s" style="display: inline-block; padding: 12px 24px; background: #1db954; color: white; text-decoration: none; border-radius: 4px;">Confirm Email</a></p>
    <p>If you did not register, you can ignore this message.</p>
  </div>
</body>
</html>`, firstName, confirmURL)
	return m.send(to, subject, body)
}

// SendAsync runs fn in a goroutine and logs a failure instead of
// returning it, keeping mail off the request's critical path.
func SendAsync(what, to string, fn func() error) {
	go func() {
		if err := fn(); err != nil {
			logger.Warn("email send failed",
				logger.String("kind", what),
				logger.String("to", to),
				logger.ErrorField(err),
			)
		}
	}()
}
