package settlement

import (
	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/numeric"
)

const kgPerTonne = 1000.0

type NetWeight struct {
	Kg     float64
	Tonnes float64
}

// NetWeightOf returns gross minus tare. A tare above gross yields a negative weight;
// it is not clamped here.
func NetWeightOf(ticket model.TruckTicket) NetWeight {
	gross := numeric.Finite(ticket.GrossWeightKg)
	tare := numeric.Finite(ticket.TareWeightKg)
	net := gross - tare
	return NetWeight{Kg: net, Tonnes: net / kgPerTonne}
}

// AggregateNet sums the net tonnes of all tickets.
func AggregateNet(tickets []model.TruckTicket) float64 {
	total := 0.0
	for _, ticket := range tickets {
		total += NetWeightOf(ticket).Tonnes
	}
	return total
}
