package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
	"github.com/ophrus/backend/internal/storage"
)

const defaultPropertyLimit = 10

// PropertyServiceImpl は PropertyService の実装
type PropertyServiceImpl struct {
	propertyRepo repository.PropertyRepository
	favoriteRepo repository.FavoriteRepository
	storage      storage.Storage
}

// NewPropertyService は PropertyServiceImpl を生成する
func NewPropertyService(propertyRepo repository.PropertyRepository, favoriteRepo repository.FavoriteRepository, st storage.Storage) *PropertyServiceImpl {
	return &PropertyServiceImpl{propertyRepo: propertyRepo, favoriteRepo: favoriteRepo, storage: st}
}

// closeUploads は multipart のファイルハンドルを解放する
func closeUploads(images []ImageUpload) {
	for _, img := range images {
		if img.Data != nil {
			img.Data.Close()
		}
	}
}

// uploadImages は画像をストレージに保存し、画像レコードを組み立てる
func (s *PropertyServiceImpl) uploadImages(ctx context.Context, images []ImageUpload) ([]model.PropertyImage, error) {
	var saved []model.PropertyImage
	for _, img := range images {
		key := "properties/" + uuid.NewString() + path.Ext(img.Filename)
		url, err := s.storage.Save(ctx, key, img.Data, img.ContentType)
		if err != nil {
			s.deleteBlobs(ctx, saved)
			return nil, fmt.Errorf("save image: %w", err)
		}
		saved = append(saved, model.PropertyImage{URL: url, StorageKey: key})
	}
	return saved, nil
}

// deleteBlobs はストレージ上の画像を削除する（失敗はログのみ）
func (s *PropertyServiceImpl) deleteBlobs(ctx context.Context, images []model.PropertyImage) {
	for _, img := range images {
		if img.StorageKey == "" {
			continue
		}
		if err := s.storage.Delete(ctx, img.StorageKey); err != nil {
			slog.Error("delete image blob", "error", err, "key", img.StorageKey)
		}
	}
}

// Create は物件を作成する。画像は最低 1 枚必要。
func (s *PropertyServiceImpl) Create(ctx context.Context, userID string, in PropertyInput, images []ImageUpload) (*model.Property, error) {
	// 受け取ったハンドルはどの経路でも必ず解放する
	defer closeUploads(images)

	if len(images) == 0 {
		return nil, ErrNoImages
	}

	saved, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}

	p := &model.Property{
		UserID:      userID,
		Titre:       in.Titre,
		Description: in.Description,
		Prix:        in.Prix,
		Ville:       in.Ville,
		Adresse:     in.Adresse,
		Categorie:   in.Categorie,
		Images:      saved,
	}
	if err := s.propertyRepo.Create(ctx, p); err != nil {
		s.deleteBlobs(ctx, saved)
		return nil, fmt.Errorf("create property: %w", err)
	}
	return p, nil
}

// Get は物件を取得する
func (s *PropertyServiceImpl) Get(ctx context.Context, id string) (*model.Property, error) {
	return s.propertyRepo.FindByID(ctx, id)
}

// List は絞り込み・ページング済みの一覧を返す
func (s *PropertyServiceImpl) List(ctx context.Context, f repository.PropertyFilter, page, limit int) (*PropertyPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPropertyLimit
	}
	f.Limit = limit
	f.Offset = (page - 1) * limit

	properties, total, err := s.propertyRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if properties == nil {
		properties = []*model.Property{}
	}

	// ページ内に現れるカテゴリの重複なし一覧
	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range properties {
		if !seen[p.Categorie] {
			seen[p.Categorie] = true
			categories = append(categories, p.Categorie)
		}
	}

	return &PropertyPage{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
		Properties: properties,
		Categories: categories,
	}, nil
}

// Update は物件を更新する。所有者のみ許可。
func (s *PropertyServiceImpl) Update(ctx context.Context, userID, id string, in PropertyInput, images []ImageUpload) (*model.Property, error) {
	defer closeUploads(images)

	p, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}

	if len(images) > 0 {
		saved, err := s.uploadImages(ctx, images)
		if err != nil {
			return nil, err
		}
		old := p.Images
		if err := s.propertyRepo.ReplaceImages(ctx, p.ID, saved); err != nil {
			s.deleteBlobs(ctx, saved)
			return nil, fmt.Errorf("replace images: %w", err)
		}
		s.deleteBlobs(ctx, old)
		p.Images = saved
	}

	// 空値のフィールドは据え置き
	if in.Titre != "" {
		p.Titre = in.Titre
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Prix > 0 {
		p.Prix = in.Prix
	}
	if in.Ville != "" {
		p.Ville = in.Ville
	}
	if in.Adresse != "" {
		p.Adresse = in.Adresse
	}
	if in.Categorie != "" {
		p.Categorie = in.Categorie
	}

	if err := s.propertyRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	return p, nil
}

// Delete は物件を削除する。所有者のみ許可。ストレージ上の画像も削除する。
func (s *PropertyServiceImpl) Delete(ctx context.Context, userID, id string) error {
	p, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrForbidden
	}

	if err := s.propertyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	s.deleteBlobs(ctx, p.Images)
	return nil
}

// ToggleFavorite はお気に入りを原子的にトグルする。
// 先に削除を試み、削除できなければ登録する（read-modify-write しない）。
func (s *PropertyServiceImpl) ToggleFavorite(ctx context.Context, userID, propertyID string) (bool, error) {
	if _, err := s.propertyRepo.FindByID(ctx, propertyID); err != nil {
		return false, err
	}

	removed, err := s.favoriteRepo.Remove(ctx, userID, propertyID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	if removed {
		return false, nil
	}
	if err := s.favoriteRepo.Add(ctx, userID, propertyID); err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return true, nil
}

// ListFavorites はお気に入り物件一覧を返す
func (s *PropertyServiceImpl) ListFavorites(ctx context.Context, userID string) ([]*model.Property, error) {
	return s.favoriteRepo.ListByUser(ctx, userID)
}

// Rate は評価を登録・更新し、新しい平均点を返す
func (s *PropertyServiceImpl) Rate(ctx context.Context, userID, propertyID string, note int) (float64, error) {
	if note < 1 || note > 5 {
		return 0, ErrInvalidRating
	}
	return s.propertyRepo.Rate(ctx, propertyID, userID, note)
}

// GetWithRating は物件とユーザー自身の評価・平均点を返す
func (s *PropertyServiceImpl) GetWithRating(ctx context.Context, userID, propertyID string) (*PropertyRating, error) {
	p, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	note, ok, err := s.propertyRepo.FindRating(ctx, propertyID, userID)
	if err != nil {
		return nil, fmt.Errorf("find rating: %w", err)
	}

	result := &PropertyRating{Property: p, AverageRating: p.NoteMoyenne}
	if ok {
		result.UserRating = &note
	}
	return result, nil
}
