package model

import (
	"time"

	"github.com/google/uuid"
)

type ContactType string

const (
	ContactTypeProducer    ContactType = "productor"
	ContactTypeBuyer       ContactType = "comprador"
	ContactTypeTransporter ContactType = "transportista"
)

func (t ContactType) Valid() bool {
	switch t {
	case ContactTypeProducer, ContactTypeBuyer, ContactTypeTransporter:
		return true
	}
	return false
}

type Contact struct {
	ID        uuid.UUID
	Name      string
	Type      ContactType
	Phone     string
	Email     string
	CUIT      string
	Address   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
