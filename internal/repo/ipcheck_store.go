package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ipcheck/internal/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnknownSite = errors.New("invalid sitename")
)

type IPCheckStore struct{ db *gorm.DB }

func NewIPCheckStore(db *gorm.DB) *IPCheckStore { return &IPCheckStore{db: db} }

// UpsertInput — частичное обновление: nil-поля не трогаем.
type UpsertInput struct {
	IP           string
	SiteName     *string
	MACAddress   *string
	Device       *string
	Location     *string
	Comment      *string
	ModifiedDate *time.Time
	ModifiedBy   *string
}

func (s *IPCheckStore) List(ctx context.Context) ([]models.IPCheck, error) {
	rows := []models.IPCheck{}
	if err := s.db.WithContext(ctx).Order("ipaddress asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *IPCheckStore) Get(ctx context.Context, ip string) (*models.IPCheck, error) {
	var rec models.IPCheck
	err := s.db.WithContext(ctx).Where("ipaddress = ?", ip).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert в одной транзакции пишет привязку к площадке (если sitename задан)
// и запись устройства. Любая ошибка откатывает обе.
func (s *IPCheckStore) Upsert(ctx context.Context, in UpsertInput) (*models.IPCheck, error) {
	modified := time.Now().UTC()
	if in.ModifiedDate != nil && !in.ModifiedDate.IsZero() {
		modified = in.ModifiedDate.UTC()
	}

	var out models.IPCheck
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) TB_AssignedIP
		if in.SiteName != nil && *in.SiteName != "" {
			if _, err := upsertAssigned(tx, models.AssignedIP{IPAddress: in.IP, SiteName: *in.SiteName}); err != nil {
				return fmt.Errorf("upsert assignment %s: %w", in.IP, err)
			}
		}

		// 2) TB_IPCheck
		var cur models.IPCheck
		err := tx.Where("ipaddress = ?", in.IP).Take(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.IPCheck{
				IPAddress:    in.IP,
				MACAddress:   in.MACAddress,
				Device:       in.Device,
				Location:     in.Location,
				Comment:      in.Comment,
				ModifiedDate: &modified,
				ModifiedBy:   in.ModifiedBy,
			}
			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("insert device %s: %w", in.IP, err)
			}
			return nil
		case err != nil:
			return err
		}

		updates := map[string]any{"modifieddate": modified}
		if in.MACAddress != nil {
			updates["macaddress"] = *in.MACAddress
		}
		if in.Device != nil {
			updates["device"] = *in.Device
		}
		if in.Location != nil {
			updates["location"] = *in.Location
		}
		if in.Comment != nil {
			updates["comment"] = *in.Comment
		}
		if in.ModifiedBy != nil {
			updates["modifiedby"] = *in.ModifiedBy
		}
		if err := tx.Model(&models.IPCheck{}).Where("ipaddress = ?", in.IP).Updates(updates).Error; err != nil {
			return fmt.Errorf("update device %s: %w", in.IP, err)
		}
		return tx.Where("ipaddress = ?", in.IP).Take(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete удаляет запись устройства и привязку к площадке атомарно.
// ErrNotFound — если не было ни того, ни другого.
func (s *IPCheckStore) Delete(ctx context.Context, ip string) (int64, error) {
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("ipaddress = ?", ip).Delete(&models.IPCheck{})
		if res.Error != nil {
			return fmt.Errorf("delete device %s: %w", ip, res.Error)
		}
		affected += res.RowsAffected

		res = tx.Where("ipaddress = ?", ip).Delete(&models.AssignedIP{})
		if res.Error != nil {
			return fmt.Errorf("delete assignment %s: %w", ip, res.Error)
		}
		affected += res.RowsAffected

		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
