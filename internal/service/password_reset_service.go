package service

import "context"

// PasswordResetService はパスワード再設定フローのビジネスロジックのインターフェース。
// 状態遷移: コードなし → 発行済み（10 分間有効） → 消費またはパスワード変更でコードなしに戻る。
type PasswordResetService interface {
	// RequestReset はリセットコードを発行しメールで送信する。
	// 有効なコードが残っている間は *CooldownError を返す。
	RequestReset(ctx context.Context, email string) error
	// VerifyCode はコードを検証する。成功するとコードは消費される（single-use）。
	VerifyCode(ctx context.Context, email, code string) error
	// ResetPassword はコードを再検証してパスワードを置き換える。
	// 事前の VerifyCode 呼び出しには依存しない。
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}
