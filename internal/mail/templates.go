package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// 登録済みメールテンプレート名
const (
	TemplatePasswordReset = "passwordReset"
	TemplateBackupAlert   = "backupAlert"
)

const passwordResetTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
  <h2 style="color: #333;">Réinitialisation de mot de passe</h2>
  <p>Bonjour,</p>
  <p>Vous avez demandé à réinitialiser votre mot de passe. Voici votre code de vérification :</p>
  <div style="font-size: 24px; font-weight: bold; background-color: #f3f3f3; padding: 15px; border-radius: 5px; text-align: center; letter-spacing: 5px;">
    {{.Code}}
  </div>
  <p style="margin-top: 20px;">Ce code est valable pendant 10 minutes.</p>
  <p>Si vous n'êtes pas à l'origine de cette demande, veuillez ignorer cet email.</p>
  <p style="margin-top: 30px;">– L'équipe de Ophrus Immo</p>
</div>
`

const backupAlertTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
  <h2 style="color: #b00020;">[{{.Severity}}] Alerte {{.AlertType}}</h2>
  <p>{{.AlertMessage}}</p>
  <p style="color: #777;">{{.Date}}</p>
  <p style="margin-top: 30px;">– Ophrus Immo</p>
</div>
`

var templates = map[string]*template.Template{
	TemplatePasswordReset: template.Must(template.New(TemplatePasswordReset).Parse(passwordResetTemplate)),
	TemplateBackupAlert:   template.Must(template.New(TemplateBackupAlert).Parse(backupAlertTemplate)),
}

// RenderTemplate は登録済みテンプレートを data で展開して返す
func RenderTemplate(name string, data map[string]any) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("mail: unknown template %q", name)
	}
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("mail: execute template %q: %w", name, err)
	}
	return body.String(), nil
}
