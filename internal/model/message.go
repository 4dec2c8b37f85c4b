package model

import "time"

// Message はユーザー間のダイレクトメッセージ。lu 以外は作成後に変更されない。
type Message struct {
	ID           string    `json:"id"`
	Expediteur   string    `json:"expediteur"`
	Destinataire string    `json:"destinataire"`
	Contenu      string    `json:"contenu"`
	Lu           bool      `json:"lu"`
	CreatedAt    time.Time `json:"createdAt"`
}
