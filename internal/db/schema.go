package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Floats are stored as double precision so recomputed totals survive a round trip
// through the database bit for bit.

type OperationRow struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Date             time.Time `gorm:"type:date;not null"`
	Producer         string    `gorm:"size:255;not null"`
	Buyer            string    `gorm:"size:255;not null"`
	Transporter      string    `gorm:"size:255"`
	Cereal           string    `gorm:"size:64"`
	Status           string    `gorm:"size:32;not null"`
	Currency         string    `gorm:"size:3;not null"`
	ExchangeRate     float64   `gorm:"type:double precision;not null"`
	ProducerPriceARS float64   `gorm:"column:producer_price_ars;type:double precision;not null"`
	BuyerPriceARS    float64   `gorm:"column:buyer_price_ars;type:double precision;not null"`
	NetTonnes        float64   `gorm:"type:double precision;not null"`
	TotalProducerARS float64   `gorm:"column:total_producer_ars;type:double precision;not null"`
	TotalProducerUSD float64   `gorm:"column:total_producer_usd;type:double precision;not null"`
	TotalBuyerARS    float64   `gorm:"column:total_buyer_ars;type:double precision;not null"`
	TotalBuyerUSD    float64   `gorm:"column:total_buyer_usd;type:double precision;not null"`
	CommissionARS    float64   `gorm:"column:commission_ars;type:double precision;not null"`
	CommissionUSD    float64   `gorm:"column:commission_usd;type:double precision;not null"`
	Notes            string    `gorm:"type:text"`
	CreatedByUserID  string    `gorm:"size:128"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Trucks           []TruckTicketRow `gorm:"foreignKey:OperationID;constraint:OnDelete:CASCADE"`
}

func (OperationRow) TableName() string { return "operations" }

type TruckTicketRow struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OperationID   uuid.UUID      `gorm:"type:uuid;not null"`
	Position      int            `gorm:"not null"`
	LicensePlate  string         `gorm:"size:32"`
	Waybill       string         `gorm:"size:64"`
	GrossWeightKg float64        `gorm:"type:double precision;not null"`
	TareWeightKg  float64        `gorm:"type:double precision;not null"`
	NetWeightKg   float64        `gorm:"type:double precision;not null"`
	NetTonnes     float64        `gorm:"type:double precision;not null"`
	OCRRaw        datatypes.JSON `gorm:"column:ocr_raw"`
	CreatedAt     time.Time
}

func (TruckTicketRow) TableName() string { return "truck_tickets" }

type ContactRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	Type      string    `gorm:"size:32;not null"`
	Phone     string    `gorm:"size:64"`
	Email     string    `gorm:"size:255"`
	CUIT      string    `gorm:"column:cuit;size:32"`
	Address   string    `gorm:"size:255"`
	Notes     string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ContactRow) TableName() string { return "contacts" }

// SettingsRow holds the single process-wide settings record (ID 1).
type SettingsRow struct {
	ID                  uint     `gorm:"primaryKey"`
	CompanyName         string   `gorm:"size:255"`
	CompanyCUIT         string   `gorm:"column:company_cuit;size:32"`
	CompanyAddress      string   `gorm:"size:255"`
	CompanyPhone        string   `gorm:"size:64"`
	CompanyLogo         string   `gorm:"type:text"`
	CommissionMode      string   `gorm:"size:16;not null"`
	CommissionFixedRate float64  `gorm:"type:double precision;not null"`
	CommissionFixedFlat *float64 `gorm:"type:double precision"`
	UpdatedAt           time.Time
}

func (SettingsRow) TableName() string { return "settings" }
