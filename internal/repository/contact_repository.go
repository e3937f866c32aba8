package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rivadavia/grainops/internal/db"
	"github.com/rivadavia/grainops/internal/model"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(database *gorm.DB) *ContactRepository {
	return &ContactRepository{db: database}
}

func (r *ContactRepository) Create(ctx context.Context, contact model.Contact) (*model.Contact, error) {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	row := contactToRow(contact)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	saved := contactFromRow(row)
	return &saved, nil
}

func (r *ContactRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	var row db.ContactRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	contact := contactFromRow(row)
	return &contact, nil
}

func (r *ContactRepository) List(ctx context.Context, contactType model.ContactType, search string) ([]model.Contact, error) {
	query := r.db.WithContext(ctx).Model(&db.ContactRow{})
	if contactType != "" {
		query = query.Where("type = ?", string(contactType))
	}
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(cuit) LIKE ?)", like, like)
	}

	var rows []db.ContactRow
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, contactFromRow(row))
	}
	return contacts, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact model.Contact) (*model.Contact, error) {
	row := contactToRow(contact)
	result := r.db.WithContext(ctx).
		Model(&db.ContactRow{}).
		Where("id = ?", contact.ID).
		Updates(map[string]any{
			"name":       row.Name,
			"type":       row.Type,
			"phone":      row.Phone,
			"email":      row.Email,
			"cuit":       row.CUIT,
			"address":    row.Address,
			"notes":      row.Notes,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, contact.ID)
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.ContactRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.ContactRow{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func contactToRow(contact model.Contact) db.ContactRow {
	return db.ContactRow{
		ID:        contact.ID,
		Name:      contact.Name,
		Type:      string(contact.Type),
		Phone:     contact.Phone,
		Email:     contact.Email,
		CUIT:      contact.CUIT,
		Address:   contact.Address,
		Notes:     contact.Notes,
		CreatedAt: contact.CreatedAt,
		UpdatedAt: contact.UpdatedAt,
	}
}

func contactFromRow(row db.ContactRow) model.Contact {
	return model.Contact{
		ID:        row.ID,
		Name:      row.Name,
		Type:      model.ContactType(row.Type),
		Phone:     row.Phone,
		Email:     row.Email,
		CUIT:      row.CUIT,
		Address:   row.Address,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
