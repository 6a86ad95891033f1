package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendResetCodeEmail sends the password reset code to the given address using
// the SMTP_* environment configuration.
func SendResetCodeEmail(email, code string) error {
	fromEmail := os.Getenv("SMTP_USER")

	m := gomail.NewMessage()
	m.SetHeader("From", fromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "RetinaCare Password Reset Code")

	m.SetBody("text/plain", "Your password reset code is: "+code)

	htmlBody := `
	<!DOCTYPE html>
	<html>
	<body>
		<h1>Password Reset Code</h1>
		<p>Your RetinaCare password reset code is:</p>
		<p style="font-weight: bold; color: #007bff;">` + code + `</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	</body>
	</html>
	`
	m.AddAlternative("text/html", htmlBody)

	smtpHost := os.Getenv("SMTP_HOST")
	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT value: %w", err)
	}

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}
