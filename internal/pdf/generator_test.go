package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivadavia/grainops/internal/model"
)

func sampleLiquidation(party model.LiquidationParty) model.Liquidation {
	return model.Liquidation{
		Party:   party,
		Company: model.Company{Name: "Cereales Rivadavia S.A.", CUIT: "30-12345678-9", Address: "Av. Rivadavia 100"},
		Operation: model.Operation{
			ID:               uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001"),
			Date:             time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			Producer:         "Estancia La Paz",
			Buyer:            "Acopio Norte",
			Transporter:      "Transportes Sur",
			Cereal:           "Soja",
			Status:           model.OperationStatusCompleted,
			Currency:         model.CurrencyUSD,
			ExchangeRate:     1000,
			ProducerPriceARS: 100,
			BuyerPriceARS:    110,
			Notes:            "Entrega en planta Timbúes",
			Trucks: []model.TruckTicket{
				{LicensePlate: "AB123CD", Waybill: "CP-1", GrossWeightKg: 30000, TareWeightKg: 10000, NetWeightKg: 20000, NetTonnes: 20},
			},
			NetTonnes: 20,
			Totals: model.Totals{
				ProducerARS: 2000, ProducerUSD: 2, BuyerARS: 2200, BuyerUSD: 2.2, CommissionARS: 200, CommissionUSD: 0.2,
			},
		},
	}
}

func TestGenerateBothParties(t *testing.T) {
	gen := NewGenerator()
	for _, party := range []model.LiquidationParty{model.LiquidationPartyProducer, model.LiquidationPartyBuyer} {
		t.Run(string(party), func(t *testing.T) {
			data, err := gen.Generate(sampleLiquidation(party))
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		})
	}
}

func TestGenerateRejectsUnknownParty(t *testing.T) {
	_, err := NewGenerator().Generate(sampleLiquidation("transportista"))
	assert.Error(t, err)
}

func TestGenerateSkipsBrokenLogo(t *testing.T) {
	doc := sampleLiquidation(model.LiquidationPartyProducer)
	doc.Company.Logo = "data:image/png;base64,not-base64!"
	data, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFileName(t *testing.T) {
	gen := &Generator{now: func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }}
	assert.Equal(t, "Liquidacion-comprador-3f2a9c1e-2025.pdf", gen.FileName(sampleLiquidation(model.LiquidationPartyBuyer)))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$ 1.234.567,89", FormatMoney(1234567.891, model.CurrencyARS))
	assert.Equal(t, "$ 0,00", FormatMoney(0, model.CurrencyARS))
	assert.Equal(t, "US$ 1,234.50", FormatMoney(1234.5, model.CurrencyUSD))
	assert.Equal(t, "$ -950,00", FormatMoney(-950, model.CurrencyARS))
	assert.Equal(t, "3F2A9C1E", ShortID("3f2a9c1e-0000"))
}
