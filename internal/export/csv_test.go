package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivadavia/grainops/internal/model"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM))
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestToCSVEmpty(t *testing.T) {
	_, err := ToCSV(nil)
	assert.ErrorIs(t, err, ErrNoOperations)
}

func TestToCSVRoundTripsTotals(t *testing.T) {
	op := model.Operation{
		ID:               uuid.New(),
		Date:             time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Producer:         `Estancia "La Paz", S.A.`,
		Buyer:            "Acopio Norte",
		Cereal:           "Soja",
		Status:           model.OperationStatusCompleted,
		Currency:         model.CurrencyUSD,
		ExchangeRate:     1050.5,
		ProducerPriceARS: 100,
		BuyerPriceARS:    110,
		NetTonnes:        28.3456,
		Totals: model.Totals{
			ProducerARS:   2834.56,
			BuyerARS:      3118.016,
			CommissionARS: 283.456,
			ProducerUSD:   2.698295,
			BuyerUSD:      2.968126,
			CommissionUSD: 0.269830,
		},
	}

	data, err := ToCSV([]model.Operation{op})
	require.NoError(t, err)
	records := readCSV(t, data)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])

	row := records[1]
	assert.Equal(t, op.ID.String(), row[0])
	assert.Equal(t, "05/03/2025", row[1])
	assert.Equal(t, op.Producer, row[2])
	assert.Equal(t, "28.346", row[6])
	assert.Equal(t, "1050.50", row[8])
	assert.Equal(t, "Completada", row[17])

	parse := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, op.NetTonnes, parse(row[6]), 0.0005)
	assert.InDelta(t, op.Totals.ProducerARS, parse(row[11]), 0.005)
	assert.InDelta(t, op.Totals.BuyerARS, parse(row[12]), 0.005)
	assert.InDelta(t, op.Totals.CommissionARS, parse(row[13]), 0.005)
	assert.InDelta(t, op.Totals.ProducerUSD, parse(row[14]), 0.005)
	assert.InDelta(t, op.Totals.BuyerUSD, parse(row[15]), 0.005)
	assert.InDelta(t, op.Totals.CommissionUSD, parse(row[16]), 0.005)
}

func TestToCSVQuotesEmbeddedQuotes(t *testing.T) {
	data, err := ToCSV([]model.Operation{{Producer: `El "Trébol"`, Currency: model.CurrencyARS}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"El ""Trébol"""`)

	row := readCSV(t, data)[1]
	assert.Empty(t, row[1])
	assert.Empty(t, row[8])
	assert.Equal(t, "0.000", row[6])
	assert.Equal(t, "0.00", row[11])
}
