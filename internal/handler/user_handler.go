package handler

import (
	"net/http"
	"strings"

	"github.com/ophrus/backend/internal/service"
	"github.com/ophrus/backend/pkg/auth"
)

// UserHandler handles profile and account endpoints.
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Profil handles GET /api/users/profil (auth required).
func (h *UserHandler) Profil(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	user, err := h.userSvc.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id} (auth required, self only).
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	var req struct {
		Nom       string `json:"nom"`
		Email     string `json:"email"`
		Telephone string `json:"telephone"`
		Password  string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password != "" && len(req.Password) < 6 {
		writeValidationErrors(w, []fieldError{
			{Field: "password", Message: "Le mot de passe doit contenir au moins 6 caractères."},
		})
		return
	}

	user, err := h.userSvc.UpdateProfile(r.Context(), userID, r.PathValue("id"), service.ProfileInput{
		Nom:       strings.TrimSpace(req.Nom),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Telephone: strings.TrimSpace(req.Telephone),
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Search handles GET /api/users/search?nom=&email= (auth required).
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	nom := strings.TrimSpace(r.URL.Query().Get("nom"))
	email := strings.TrimSpace(r.URL.Query().Get("email"))

	users, err := h.userSvc.Search(r.Context(), nom, email)
	if err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Delete handles DELETE /api/users/{id} (auth required, self or admin).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	if err := h.userSvc.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, err, "Utilisateur non trouvé.")
		return
	}
	writeMessage(w, http.StatusOK, "Compte supprimé avec succès.")
}
