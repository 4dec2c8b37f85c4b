package handler

import (
	"net/http"
	"strings"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/service"
)

// AuthHandler handles registration, login and token lifecycle endpoints.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type registerRequest struct {
	Nom       string `json:"nom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Password  string `json:"password"`
}

func (req *registerRequest) validate() []fieldError {
	var errs []fieldError
	if strings.TrimSpace(req.Nom) == "" {
		errs = append(errs, fieldError{Field: "nom", Message: "Le nom est requis."})
	}
	if !strings.Contains(req.Email, "@") {
		errs = append(errs, fieldError{Field: "email", Message: "Adresse email invalide."})
	}
	if len(req.Password) < 6 {
		errs = append(errs, fieldError{Field: "password", Message: "Le mot de passe doit contenir au moins 6 caractères."})
	}
	return errs
}

type authResponse struct {
	ID           string `json:"id"`
	Nom          string `json:"nom"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func newAuthResponse(user *model.User, pair service.TokenPair) authResponse {
	return authResponse{
		ID:           user.ID,
		Nom:          user.Nom,
		Email:        user.Email,
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
	}
}

// Register handles POST /api/users/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	result, err := h.authSvc.Register(r.Context(), strings.TrimSpace(req.Nom),
		strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Telephone), req.Password)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusCreated, newAuthResponse(result.User, result.TokenPair))
}

type loginRequest struct {
	// identifier はメールアドレスまたは nom。旧クライアント互換で email / nom も受ける。
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Nom        string `json:"nom"`
	Password   string `json:"password"`
}

func (req *loginRequest) resolveIdentifier() string {
	for _, v := range []string{req.Identifier, req.Email, req.Nom} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identifier := req.resolveIdentifier()
	if identifier == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Identifiant et mot de passe requis.")
		return
	}

	result, err := h.authSvc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(result.User, result.TokenPair))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout handles POST /api/users/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Refresh token requis.")
		return
	}

	if err := h.authSvc.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeMessage(w, http.StatusOK, "Déconnexion réussie.")
}

// RefreshToken handles POST /api/users/refresh-token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Refresh token requis.")
		return
	}

	pair, err := h.authSvc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
