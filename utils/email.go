package utils

import (
	"fmt"
	"net/smtp"
	"os"
)

// SendEmail delivers a plain notification email over SMTP. Returns an error
// when SMTP is not configured; callers treat delivery as best-effort.
func SendEmail(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASS")

	if host == "" || user == "" || password == "" {
		return fmt.Errorf("smtp is not configured")
	}
	if port == "" {
		port = "587"
	}

	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = user
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", user, password, host)
	if err := smtp.SendMail(host+":"+port, auth, from, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}
