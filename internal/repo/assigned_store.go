package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ipcheck/internal/models"
)

type AssignedStore struct{ db *gorm.DB }

func NewAssignedStore(db *gorm.DB) *AssignedStore { return &AssignedStore{db: db} }

func (s *AssignedStore) List(ctx context.Context) ([]models.AssignedIP, error) {
	rows := []models.AssignedIP{}
	if err := s.db.WithContext(ctx).Order("sitename asc, ipaddress asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AssignedStore) Get(ctx context.Context, ip string) (*models.AssignedIP, error) {
	var a models.AssignedIP
	err := s.db.WithContext(ctx).Where("ipaddress = ?", ip).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssignedStore) Upsert(ctx context.Context, a models.AssignedIP) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = upsertAssigned(tx, a)
		return err
	})
	return n, err
}

func (s *AssignedStore) Delete(ctx context.Context, ip string) (int64, error) {
	res := s.db.WithContext(ctx).Where("ipaddress = ?", ip).Delete(&models.AssignedIP{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return res.RowsAffected, nil
}

// upsertAssigned работает внутри уже открытой транзакции tx.
// Площадка должна существовать, иначе ErrUnknownSite.
func upsertAssigned(tx *gorm.DB, a models.AssignedIP) (int64, error) {
	var cnt int64
	if err := tx.Model(&models.Site{}).Where("sitename = ?", a.SiteName).Count(&cnt).Error; err != nil {
		return 0, err
	}
	if cnt == 0 {
		return 0, ErrUnknownSite
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ipaddress"}},
		DoUpdates: clause.AssignmentColumns([]string{"sitename"}),
	}).Create(&a)
	return res.RowsAffected, res.Error
}
