package export

import (
	"bytes"
	"encoding/csv"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rivadavia/grainops/internal/model"
)

var ErrNoOperations = errors.New("no hay operaciones para exportar")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"ID",
	"Fecha",
	"Productor",
	"Comprador",
	"Transportista",
	"Cereal",
	"Neto (TN)",
	"Moneda",
	"Tipo de Cambio",
	"Precio Productor (ARS)",
	"Precio Comprador (ARS)",
	"Total Productor (ARS)",
	"Total Comprador (ARS)",
	"Comisión Interna (ARS)",
	"Total Productor (USD)",
	"Total Comprador (USD)",
	"Comisión Interna (USD)",
	"Estado",
}

// ToCSV renders operations with their stored totals; nothing is recomputed here.
func ToCSV(ops []model.Operation) ([]byte, error) {
	if len(ops) == 0 {
		return nil, ErrNoOperations
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := w.Write(csvRecord(op)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRecord(op model.Operation) []string {
	rate := ""
	if op.ExchangeRate != 0 {
		rate = money(op.ExchangeRate)
	}
	date := ""
	if !op.Date.IsZero() {
		date = op.Date.Format("02/01/2006")
	}
	return []string{
		op.ID.String(),
		date,
		op.Producer,
		op.Buyer,
		op.Transporter,
		op.Cereal,
		tonnes(op.NetTonnes),
		string(op.Currency),
		rate,
		money(op.ProducerPriceARS),
		money(op.BuyerPriceARS),
		money(op.Totals.ProducerARS),
		money(op.Totals.BuyerARS),
		money(op.Totals.CommissionARS),
		money(op.Totals.ProducerUSD),
		money(op.Totals.BuyerUSD),
		money(op.Totals.CommissionUSD),
		string(op.Status),
	}
}

func tonnes(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
