package model

import (
	"time"

	"github.com/google/uuid"
)

// TruckTicket is one weighing ticket logged against an operation.
type TruckTicket struct {
	ID            uuid.UUID
	LicensePlate  string
	Waybill       string
	GrossWeightKg float64
	TareWeightKg  float64
	NetWeightKg   float64
	NetTonnes     float64
	OCRRaw        []byte
	CreatedAt     time.Time
}

// TicketGuess is what the OCR provider read from a scale ticket. Fields it could not
// read stay at their zero value.
type TicketGuess struct {
	LicensePlate  string
	Waybill       string
	GrossWeightKg float64
	TareWeightKg  float64
	Raw           []byte
}
