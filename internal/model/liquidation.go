package model

type LiquidationParty string

const (
	LiquidationPartyProducer LiquidationParty = "productor"
	LiquidationPartyBuyer    LiquidationParty = "comprador"
)

func (p LiquidationParty) Valid() bool {
	return p == LiquidationPartyProducer || p == LiquidationPartyBuyer
}

// Liquidation is the input of the settlement document for one side of a completed operation.
type Liquidation struct {
	Operation Operation
	Company   Company
	Party     LiquidationParty
}
