package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/rivadavia/grainops/internal/model"
)

const fontName = "Helvetica"

type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate renders the liquidation of one side of an operation from its stored totals.
func (g *Generator) Generate(doc model.Liquidation) ([]byte, error) {
	if !doc.Party.Valid() {
		return nil, fmt.Errorf("unknown liquidation party %q", doc.Party)
	}
	op := doc.Operation

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetLineWidth(0.5)
		pageWidth, _ := pdf.GetPageSize()
		pdf.Line(15, pdf.GetY(), pageWidth-15, pdf.GetY())
		pdf.SetFont(fontName, "", 8)
		pdf.CellFormat(120, 6, tr("Documento generado automáticamente por "+safeValue(doc.Company.Name)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	addLogo(pdf, doc.Company.Logo)
	addCompanyBlock(pdf, tr, doc.Company)
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 15)
	pdf.CellFormat(0, 10, tr("LIQUIDACIÓN DE OPERACIÓN - "+strings.ToUpper(string(doc.Party))), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	drawTableRow(pdf, tr, []string{"Campo", "Valor"}, []float64{60, 120}, true)
	details := [][]string{
		{"N° de Operación", ShortID(op.ID.String())},
		{"Fecha", formatDate(op.Date)},
		{"Cereal", op.Cereal},
		{"Productor", op.Producer},
		{"Comprador", op.Buyer},
		{"Transportista", op.Transporter},
		{"Estado", string(op.Status)},
		{"Total Neto (TN)", formatAmount(op.NetTonnes, 3)},
	}
	for _, row := range details {
		drawTableRow(pdf, tr, row, []float64{60, 120}, false)
	}
	pdf.Ln(6)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Detalle de Camiones", "", 1, "L", false, 0, "")
	truckWidths := []float64{36, 36, 36, 36, 36}
	drawTableRow(pdf, tr, []string{"Patente", "C. Porte", "Bruto", "Tara", "Neto"}, truckWidths, true)
	for _, truck := range op.Trucks {
		drawTableRow(pdf, tr, []string{
			safeValue(truck.LicensePlate),
			safeValue(truck.Waybill),
			formatAmount(truck.GrossWeightKg, 0) + " kg",
			formatAmount(truck.TareWeightKg, 0) + " kg",
			formatAmount(truck.NetWeightKg, 0) + " kg",
		}, truckWidths, false)
	}
	pdf.Ln(6)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Resumen Financiero", "", 1, "L", false, 0, "")
	summaryWidths := []float64{120, 60}
	drawTableRow(pdf, tr, []string{"Concepto", "Monto"}, summaryWidths, true)
	for _, row := range financialRows(doc) {
		drawTableRow(pdf, tr, row, summaryWidths, false)
	}

	if op.Currency == model.CurrencyUSD && op.ExchangeRate > 0 {
		usd := op.Totals.ProducerUSD
		if doc.Party == model.LiquidationPartyBuyer {
			usd = op.Totals.BuyerUSD
		}
		pdf.Ln(4)
		pdf.SetFont(fontName, "B", 11)
		pdf.CellFormat(120, 6, "Equivalente en USD (Ref.):", "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, FormatMoney(usd, model.CurrencyUSD), "", 1, "R", false, 0, "")
		pdf.SetFont(fontName, "", 9)
		pdf.CellFormat(120, 5, "Tipo de Cambio Aplicado:", "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 5, formatAmount(op.ExchangeRate, 2)+" ARS/USD", "", 1, "R", false, 0, "")
	}

	if strings.TrimSpace(op.Notes) != "" {
		pdf.Ln(4)
		pdf.SetFont(fontName, "B", 11)
		pdf.CellFormat(0, 6, "Notas", "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, tr(op.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName follows Liquidacion-<party>-<id prefix>-<year>.pdf.
func (g *Generator) FileName(doc model.Liquidation) string {
	return fmt.Sprintf("Liquidacion-%s-%s-%d.pdf", doc.Party, strings.ToLower(ShortID(doc.Operation.ID.String())), g.now().Year())
}

func financialRows(doc model.Liquidation) [][]string {
	op := doc.Operation
	if doc.Party == model.LiquidationPartyProducer {
		return [][]string{
			{"Precio por Tonelada (ARS)", FormatMoney(op.ProducerPriceARS, model.CurrencyARS)},
			{"Total a Pagar (ARS)", FormatMoney(op.Totals.ProducerARS, model.CurrencyARS)},
		}
	}
	return [][]string{
		{"Precio por Tonelada (ARS)", FormatMoney(op.BuyerPriceARS, model.CurrencyARS)},
		{"Comisión Interna (ARS)", FormatMoney(op.Totals.CommissionARS, model.CurrencyARS)},
		{"Total a Cobrar (ARS)", FormatMoney(op.Totals.BuyerARS, model.CurrencyARS)},
	}
}

func addCompanyBlock(pdf *gofpdf.Fpdf, tr func(string) string, company model.Company) {
	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 8, tr(safeValue(company.Name)), "", 1, "R", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		safeValue(company.Address),
		fmt.Sprintf("CUIT: %s", safeValue(company.CUIT)),
		fmt.Sprintf("Tel: %s", safeValue(company.Phone)),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, tr(line), "", 1, "R", false, 0, "")
	}
}

// addLogo draws a data URL logo; anything it cannot decode is skipped.
func addLogo(pdf *gofpdf.Fpdf, logo string) {
	header, payload, ok := strings.Cut(logo, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return
	}
	imageType := strings.ToUpper(strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64"))
	if imageType == "JPEG" {
		imageType = "JPG"
	}
	if imageType != "PNG" && imageType != "JPG" && imageType != "GIF" {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(raw))
	if pdf.Ok() && info != nil {
		pdf.ImageOptions("logo", 15, 15, 30, 15, false, opts, 0, "")
		return
	}
	pdf.ClearError()
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
		pdf.SetFillColor(230, 230, 230)
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if !header && isAmount(col) {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, header, 0, "")
	}
	pdf.Ln(-1)
}

func isAmount(value string) bool {
	return strings.HasPrefix(value, "$") || strings.HasPrefix(value, "US$")
}

// ShortID is the upper-cased first eight characters of an identifier.
func ShortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// FormatMoney renders an amount the way es-AR (ARS) and en-US (USD) locales do.
func FormatMoney(value float64, currency model.Currency) string {
	if currency == model.CurrencyUSD {
		return "US$ " + groupDigits(decimal.NewFromFloat(value).StringFixed(2), ",", ".")
	}
	return "$ " + groupDigits(decimal.NewFromFloat(value).StringFixed(2), ".", ",")
}

func groupDigits(fixed, thousands, decimalSep string) string {
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteRune(r)
	}
	out := b.String()
	if fracPart != "" {
		out += decimalSep + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int32) string {
	return decimal.NewFromFloat(value).StringFixed(precision)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
