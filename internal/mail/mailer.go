package mail

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer はテンプレート指定でメールを送信する能力のインターフェース。
// templateName は templates.go に登録されたテンプレート名。
type Mailer interface {
	Send(to []string, subject, templateName string, data map[string]any) error
}

// SMTPMailer は net/smtp による Mailer 実装
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer は SMTPMailer を生成する
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *SMTPMailer) Send(to []string, subject, templateName string, data map[string]any) error {
	body, err := RenderTemplate(templateName, data)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	for i, addr := range to {
		if i == 0 {
			fmt.Fprintf(&msg, "To: %s", addr)
		} else {
			fmt.Fprintf(&msg, ", %s", addr)
		}
	}
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	// SMTP ホスト未設定時はログ出力のみ（開発・デモ用）
	if s.host == "" {
		slog.Info("mail: no SMTP host configured, logging instead of sending",
			"to", to, "subject", subject, "template", templateName)
		return nil
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, to, msg.Bytes()); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
