package settlement

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/numeric"
)

// Input carries the commercial terms of one operation. Prices are ARS per tonne
// regardless of the settlement currency.
type Input struct {
	NetTonnes        float64
	Currency         model.Currency
	ExchangeRate     float64
	ProducerPriceARS float64
	BuyerPriceARS    float64
}

type FailureObserver interface {
	ObserveCalculationFailure()
}

type Calculator struct {
	log        zerolog.Logger
	failures   FailureObserver
	commission func(netTonnes float64, totals model.Totals, policy model.CommissionPolicy) float64
}

func NewCalculator(log zerolog.Logger, failures FailureObserver) *Calculator {
	return &Calculator{log: log, failures: failures, commission: commission}
}

// Calculate derives producer, buyer and commission amounts. It returns nil when an
// internal step fails; malformed numbers never fail, they count as zero.
func (c *Calculator) Calculate(in Input, policy model.CommissionPolicy) (totals *model.Totals) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Str("panic", fmt.Sprint(r)).
				Float64("net_tonnes", in.NetTonnes).
				Str("currency", string(in.Currency)).
				Msg("settlement calculation failed")
			if c.failures != nil {
				c.failures.ObserveCalculationFailure()
			}
			totals = nil
		}
	}()

	netTonnes := numeric.Finite(in.NetTonnes)
	producerPrice := numeric.Finite(in.ProducerPriceARS)
	buyerPrice := numeric.Finite(in.BuyerPriceARS)
	rate := numeric.Finite(in.ExchangeRate)

	result := model.Totals{
		ProducerARS: netTonnes * producerPrice,
		BuyerARS:    netTonnes * buyerPrice,
	}
	result.CommissionARS = math.Max(0, c.commission(netTonnes, result, policy))

	if in.Currency == model.CurrencyUSD && rate > 0 {
		result.ProducerUSD = result.ProducerARS / rate
		result.BuyerUSD = result.BuyerARS / rate
		result.CommissionUSD = result.CommissionARS / rate
	}
	return &result
}

func commission(netTonnes float64, totals model.Totals, policy model.CommissionPolicy) float64 {
	if policy.Mode != model.CommissionModeFixed {
		return totals.BuyerARS - totals.ProducerARS
	}
	if policy.FixedValue != nil {
		return numeric.Finite(*policy.FixedValue)
	}
	return numeric.Finite(policy.FixedRatePerTonne) * netTonnes
}
