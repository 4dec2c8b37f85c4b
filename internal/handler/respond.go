package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ophrus/backend/internal/repository"
	"github.com/ophrus/backend/internal/service"
)

// writeJSON はレスポンスを JSON で書き出す
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage は `{"message": "..."}` 形式のレスポンスを書き出す
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// fieldError は入力バリデーションエラー 1 件
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// writeValidationErrors は 400 で `{"errors": [...]}` を書き出す
func writeValidationErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}

// decodeJSON はリクエストボディをデコードする。失敗時は 400 を書き出し false を返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Corps de requête invalide.")
		return false
	}
	return true
}

// writeServiceError はサービス層のエラーを HTTP レスポンスに変換する。
// notFoundMsg は ErrNotFound の場合に返すエンドポイント固有のメッセージ。
func writeServiceError(w http.ResponseWriter, err error, notFoundMsg string) {
	var cooldown *service.CooldownError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Accès refusé.")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Email ou mot de passe incorrect.")
	case errors.Is(err, service.ErrInvalidToken):
		writeMessage(w, http.StatusForbidden, "Token expiré ou invalide.")
	case errors.Is(err, service.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, "Cet email est déjà utilisé.")
	case errors.Is(err, service.ErrInvalidResetCode):
		writeMessage(w, http.StatusBadRequest, "Code invalide ou expiré.")
	case errors.Is(err, service.ErrLastAdmin):
		writeMessage(w, http.StatusConflict, "Impossible de supprimer le dernier administrateur.")
	case errors.Is(err, service.ErrSelfMessage):
		writeMessage(w, http.StatusBadRequest, "Vous ne pouvez pas vous envoyer un message.")
	case errors.Is(err, service.ErrInvalidRating):
		writeMessage(w, http.StatusBadRequest, "La note doit être comprise entre 1 et 5.")
	case errors.Is(err, service.ErrNoImages):
		writeMessage(w, http.StatusBadRequest, "Au moins une image est requise.")
	case errors.As(err, &cooldown):
		writeMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("Un code vous a déjà été envoyé. Réessayez dans %d minute(s).", cooldown.Remaining))
	default:
		slog.Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Erreur interne du serveur.")
	}
}
