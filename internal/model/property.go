package model

import "time"

// Property は不動産の掲載情報。JSON フィールド名は既存 API（フランス語）に合わせる。
type Property struct {
	ID          string          `json:"id"`
	UserID      string          `json:"utilisateur"`
	Titre       string          `json:"titre"`
	Description string          `json:"description"`
	Prix        float64         `json:"prix"`
	Ville       string          `json:"ville"`
	Adresse     string          `json:"adresse"`
	Categorie   string          `json:"categorie"`
	NoteMoyenne float64         `json:"noteMoyenne"`
	Images      []PropertyImage `json:"images"`
	Owner       *PublicUser     `json:"proprietaire,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PropertyImage はストレージに保存された掲載画像
type PropertyImage struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	StorageKey string `json:"-"`
	Position   int    `json:"position"`
}
