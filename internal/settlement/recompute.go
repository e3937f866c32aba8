package settlement

import (
	"errors"

	"github.com/rivadavia/grainops/internal/model"
)

var ErrCalculationFailed = errors.New("settlement calculation failed")

// Recompute re-derives truck nets, net tonnage and every financial total of op.
// The argument is left untouched; the returned value owns its own truck slice.
func Recompute(op model.Operation, policy model.CommissionPolicy, calc *Calculator) (model.Operation, error) {
	out := op
	out.Trucks = make([]model.TruckTicket, len(op.Trucks))
	for i, truck := range op.Trucks {
		net := NetWeightOf(truck)
		truck.NetWeightKg = net.Kg
		truck.NetTonnes = net.Tonnes
		out.Trucks[i] = truck
	}
	out.NetTonnes = AggregateNet(out.Trucks)

	totals := calc.Calculate(Input{
		NetTonnes:        out.NetTonnes,
		Currency:         out.Currency,
		ExchangeRate:     out.ExchangeRate,
		ProducerPriceARS: out.ProducerPriceARS,
		BuyerPriceARS:    out.BuyerPriceARS,
	}, policy)
	if totals == nil {
		return op, ErrCalculationFailed
	}
	out.Totals = *totals
	return out, nil
}
