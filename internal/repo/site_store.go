package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ipcheck/internal/models"
)

type SiteStore struct{ db *gorm.DB }

func NewSiteStore(db *gorm.DB) *SiteStore { return &SiteStore{db: db} }

func (s *SiteStore) List(ctx context.Context) ([]models.Site, error) {
	rows := []models.Site{}
	if err := s.db.WithContext(ctx).Order("sitename asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SiteStore) Get(ctx context.Context, name string) (*models.Site, error) {
	var site models.Site
	err := s.db.WithContext(ctx).Where("sitename = ?", name).Take(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// Upsert — MERGE по sitename: есть — обновляем полное имя, нет — вставляем.
func (s *SiteStore) Upsert(ctx context.Context, site models.Site) (int64, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sitename"}},
		DoUpdates: clause.AssignmentColumns([]string{"sitefullname"}),
	}).Create(&site)
	return res.RowsAffected, res.Error
}

func (s *SiteStore) Delete(ctx context.Context, name string) (int64, error) {
	res := s.db.WithContext(ctx).Where("sitename = ?", name).Delete(&models.Site{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return res.RowsAffected, nil
}
