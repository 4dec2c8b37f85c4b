package handler

import (
	"net/http"
	"strings"

	"github.com/ophrus/backend/internal/service"
)

// PasswordResetHandler handles the password reset flow endpoints.
type PasswordResetHandler struct {
	resetSvc service.PasswordResetService
}

// NewPasswordResetHandler creates a PasswordResetHandler.
func NewPasswordResetHandler(resetSvc service.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{resetSvc: resetSvc}
}

// ResetRequest handles POST /api/users/reset-request.
func (h *PasswordResetHandler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeMessage(w, http.StatusBadRequest, "L'adresse email est requise.")
		return
	}

	if err := h.resetSvc.RequestReset(r.Context(), email); err != nil {
		writeServiceError(w, err, "Aucun compte associé à cette adresse email.")
		return
	}
	writeMessage(w, http.StatusOK, "Un code de réinitialisation vous a été envoyé par email.")
}

// ResetVerify handles POST /api/users/reset-verify.
func (h *PasswordResetHandler) ResetVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Code) == "" {
		writeMessage(w, http.StatusBadRequest, "Email et code requis.")
		return
	}

	if err := h.resetSvc.VerifyCode(r.Context(), email, req.Code); err != nil {
		writeServiceError(w, err, "Code invalide ou expiré.")
		return
	}
	writeMessage(w, http.StatusOK, "Code vérifié avec succès.")
}

// ResetPassword handles POST /api/users/reset-password.
func (h *PasswordResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Code) == "" {
		writeMessage(w, http.StatusBadRequest, "Email et code requis.")
		return
	}
	if len(req.NewPassword) < 6 {
		writeValidationErrors(w, []fieldError{
			{Field: "newPassword", Message: "Le mot de passe doit contenir au moins 6 caractères."},
		})
		return
	}

	if err := h.resetSvc.ResetPassword(r.Context(), email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, err, "Code invalide ou expiré.")
		return
	}
	writeMessage(w, http.StatusOK, "Mot de passe réinitialisé avec succès.")
}
