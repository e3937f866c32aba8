package model

import (
	"time"

	"github.com/google/uuid"
)

type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "Pendiente"
	OperationStatusInProcess OperationStatus = "En Proceso"
	OperationStatusCompleted OperationStatus = "Completada"
	OperationStatusCancelled OperationStatus = "Cancelada"
)

// IsTerminal reports whether no further transitions or commercial edits are allowed.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationStatusCompleted || s == OperationStatusCancelled
}

func (s OperationStatus) Valid() bool {
	switch s {
	case OperationStatusPending, OperationStatusInProcess, OperationStatusCompleted, OperationStatusCancelled:
		return true
	}
	return false
}

// CanTransition allows any move out of a non-terminal status.
func CanTransition(from, to OperationStatus) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	return !from.IsTerminal()
}

type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == CurrencyARS || c == CurrencyUSD
}

var Cereals = []string{"Soja", "Maiz", "Trigo", "Girasol", "Sorgo", "Cebada"}

type Operation struct {
	ID               uuid.UUID
	Date             time.Time
	Producer         string
	Buyer            string
	Transporter      string
	Cereal           string
	Status           OperationStatus
	Currency         Currency
	ExchangeRate     float64
	ProducerPriceARS float64
	BuyerPriceARS    float64
	Notes            string
	Trucks           []TruckTicket
	NetTonnes        float64
	Totals           Totals
	CreatedByUserID  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Totals are derived; only settlement.Recompute writes them.
type Totals struct {
	ProducerARS   float64
	ProducerUSD   float64
	BuyerARS      float64
	BuyerUSD      float64
	CommissionARS float64
	CommissionUSD float64
}

type OperationFilter struct {
	Status        OperationStatus
	Search        string
	Contact       string
	CompletedOnly bool
	From          time.Time
	To            time.Time
}

type OperationEventType string

const (
	OperationEventUpserted OperationEventType = "upserted"
	OperationEventDeleted  OperationEventType = "deleted"
)

type OperationEvent struct {
	Type        OperationEventType
	OperationID uuid.UUID
	Operation   *Operation
	At          time.Time
}

type DashboardStats struct {
	// TotalOperations counts every operation except cancelled ones.
	TotalOperations   int64
	PendingOperations int64
	// TotalNetTonnes and TotalCommissionARS also leave cancelled operations out.
	TotalNetTonnes     float64
	TotalCommissionARS float64
	ContactsCount      int64
}
