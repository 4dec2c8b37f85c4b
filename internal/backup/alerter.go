package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ophrus/backend/internal/mail"
	"github.com/ophrus/backend/internal/repository"
)

// Alerter はバックアップの失敗・警告を管理者にメールで通知する
type Alerter struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer
}

// NewAlerter は Alerter を生成する
func NewAlerter(userRepo repository.UserRepository, mailer mail.Mailer) *Alerter {
	return &Alerter{userRepo: userRepo, mailer: mailer}
}

// Alert は管理者全員に通知を送る。宛先が無い場合はログのみ。
func (a *Alerter) Alert(ctx context.Context, severity, alertType, message string) error {
	emails, err := a.userRepo.ListAdminEmails(ctx)
	if err != nil {
		return fmt.Errorf("backup: list admin emails: %w", err)
	}
	if len(emails) == 0 {
		slog.Warn("backup alert has no recipients", "type", alertType, "message", message)
		return nil
	}

	subject := fmt.Sprintf("[%s] Alerte sauvegarde: %s", severity, alertType)
	return a.mailer.Send(emails, subject, mail.TemplateBackupAlert, map[string]any{
		"Severity":     severity,
		"AlertType":    alertType,
		"AlertMessage": message,
		"Date":         time.Now().Format("02/01/2006 15:04"),
	})
}
