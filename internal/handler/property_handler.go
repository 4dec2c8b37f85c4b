package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
	"github.com/ophrus/backend/internal/service"
	"github.com/ophrus/backend/pkg/auth"
)

// maxUploadSize は multipart リクエスト全体の上限 (20 MiB)
const maxUploadSize = 20 << 20

// PropertyHandler handles property listing endpoints.
type PropertyHandler struct {
	propertySvc service.PropertyService
}

// NewPropertyHandler creates a PropertyHandler.
func NewPropertyHandler(propertySvc service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertySvc: propertySvc}
}

// List handles GET /api/properties (public).
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.PropertyFilter{
		Ville:     strings.TrimSpace(q.Get("ville")),
		Categorie: strings.TrimSpace(q.Get("categorie")),
		Search:    strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("prixMin"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.PrixMin = &f
		}
	}
	if v := q.Get("prixMax"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.PrixMax = &f
		}
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.propertySvc.List(r.Context(), filter, page, limit)
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/properties/{id} (public).
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	property, err := h.propertySvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeJSON(w, http.StatusOK, property)
}

// parsePropertyForm reads the multipart fields and image files.
func parsePropertyForm(r *http.Request) (service.PropertyInput, []service.ImageUpload, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return service.PropertyInput{}, nil, err
	}

	prix, _ := strconv.ParseFloat(r.FormValue("prix"), 64)
	in := service.PropertyInput{
		Titre:       strings.TrimSpace(r.FormValue("titre")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Prix:        prix,
		Ville:       strings.TrimSpace(r.FormValue("ville")),
		Adresse:     strings.TrimSpace(r.FormValue("adresse")),
		Categorie:   strings.TrimSpace(r.FormValue("categorie")),
	}

	var images []service.ImageUpload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				closeImageUploads(images)
				return service.PropertyInput{}, nil, err
			}
			images = append(images, service.ImageUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        f,
			})
		}
	}
	return in, images, nil
}

// closeImageUploads はサービスに渡さなかったファイルハンドルを解放する
func closeImageUploads(images []service.ImageUpload) {
	for _, img := range images {
		img.Data.Close()
	}
}

func validatePropertyInput(in service.PropertyInput) []fieldError {
	var errs []fieldError
	if in.Titre == "" {
		errs = append(errs, fieldError{Field: "titre", Message: "Le titre est requis."})
	}
	if in.Prix <= 0 {
		errs = append(errs, fieldError{Field: "prix", Message: "Le prix doit être supérieur à zéro."})
	}
	if in.Ville == "" {
		errs = append(errs, fieldError{Field: "ville", Message: "La ville est requise."})
	}
	return errs
}

// Create handles POST /api/properties (auth required, multipart).
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	in, images, err := parsePropertyForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Formulaire invalide.")
		return
	}
	if errs := validatePropertyInput(in); len(errs) > 0 {
		closeImageUploads(images)
		writeValidationErrors(w, errs)
		return
	}

	property, err := h.propertySvc.Create(r.Context(), userID, in, images)
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeJSON(w, http.StatusCreated, property)
}

// Update handles PUT /api/properties/{id} (auth required, owner only, multipart).
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	in, images, err := parsePropertyForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Formulaire invalide.")
		return
	}

	property, err := h.propertySvc.Update(r.Context(), userID, r.PathValue("id"), in, images)
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeJSON(w, http.StatusOK, property)
}

// Delete handles DELETE /api/properties/{id} (auth required, owner only).
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	if err := h.propertySvc.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeMessage(w, http.StatusOK, "Propriété supprimée avec succès.")
}

// ToggleFavorite handles POST /api/properties/{id}/favoris (auth required).
func (h *PropertyHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	favori, err := h.propertySvc.ToggleFavorite(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}

	message := "Propriété retirée des favoris."
	if favori {
		message = "Propriété ajoutée aux favoris."
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "favori": favori})
}

// Favorites handles GET /api/users/favoris (auth required).
func (h *PropertyHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	properties, err := h.propertySvc.ListFavorites(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	if properties == nil {
		properties = []*model.Property{}
	}
	writeJSON(w, http.StatusOK, properties)
}

// Rate handles POST /api/properties/{id}/rate (auth required).
func (h *PropertyHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	var req struct {
		Rating int `json:"rating"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	avg, err := h.propertySvc.Rate(r.Context(), userID, r.PathValue("id"), req.Rating)
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"noteMoyenne": avg})
}

// Rating handles GET /api/properties/{id}/rating (auth required).
func (h *PropertyHandler) Rating(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Non autorisé.")
		return
	}

	result, err := h.propertySvc.GetWithRating(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Propriété non trouvée.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
