package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rivadavia/grainops/internal/db"
	"github.com/rivadavia/grainops/internal/model"
)

const settingsRowID = 1

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(database *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: database}
}

// Get returns gorm.ErrRecordNotFound until settings are saved for the first time.
func (r *SettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var row db.SettingsRow
	if err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&row).Error; err != nil {
		return nil, err
	}
	settings := model.Settings{
		Company: model.Company{
			Name:    row.CompanyName,
			CUIT:    row.CompanyCUIT,
			Address: row.CompanyAddress,
			Phone:   row.CompanyPhone,
			Logo:    row.CompanyLogo,
		},
		Commission: model.CommissionPolicy{
			Mode:              model.CommissionMode(row.CommissionMode),
			FixedRatePerTonne: row.CommissionFixedRate,
			FixedValue:        row.CommissionFixedFlat,
		},
	}
	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings model.Settings) error {
	row := db.SettingsRow{
		ID:                  settingsRowID,
		CompanyName:         settings.Company.Name,
		CompanyCUIT:         settings.Company.CUIT,
		CompanyAddress:      settings.Company.Address,
		CompanyPhone:        settings.Company.Phone,
		CompanyLogo:         settings.Company.Logo,
		CommissionMode:      string(settings.Commission.Mode),
		CommissionFixedRate: settings.Commission.FixedRatePerTonne,
		CommissionFixedFlat: settings.Commission.FixedValue,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}
