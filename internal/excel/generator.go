package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rivadavia/grainops/internal/model"
)

const summarySheet = "Operaciones"

var summaryHeaders = []string{
	"Fecha",
	"Productor",
	"Comprador",
	"Transportista",
	"Cereal",
	"Estado",
	"Moneda",
	"Tipo de Cambio",
	"Camiones",
	"Neto (TN)",
	"Precio Productor (ARS)",
	"Precio Comprador (ARS)",
	"Total Productor (ARS)",
	"Total Comprador (ARS)",
	"Comisión (ARS)",
	"Total Productor (USD)",
	"Total Comprador (USD)",
	"Comisión (USD)",
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes a summary sheet plus one truck detail sheet per operation.
func (g *Generator) Generate(ops []model.Operation) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, ops); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, op := range ops {
		sheetName := buildSheetName(op.Producer, op.ID, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, op); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, ops []model.Operation) error {
	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := file.SetSheetRow(summarySheet, "A1", &summaryHeaders); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(summaryHeaders), 1)
	_ = file.SetCellStyle(summarySheet, "A1", last, headerStyle)

	for i, op := range ops {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			formatDate(op.Date),
			op.Producer,
			op.Buyer,
			op.Transporter,
			op.Cereal,
			string(op.Status),
			string(op.Currency),
			optionalRate(op.ExchangeRate),
			len(op.Trucks),
			op.NetTonnes,
			op.ProducerPriceARS,
			op.BuyerPriceARS,
			op.Totals.ProducerARS,
			op.Totals.BuyerARS,
			op.Totals.CommissionARS,
			op.Totals.ProducerUSD,
			op.Totals.BuyerUSD,
			op.Totals.CommissionUSD,
		}
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 12)
	_ = file.SetColWidth(summarySheet, "B", "E", 28)
	_ = file.SetColWidth(summarySheet, "F", "R", 18)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, op model.Operation) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Operación")
	set("B1", strings.ToUpper(op.ID.String()[:8]))
	set("A2", "Fecha")
	set("B2", formatDate(op.Date))
	set("A3", "Productor")
	set("B3", op.Producer)
	set("A4", "Comprador")
	set("B4", op.Buyer)
	set("A5", "Cereal")
	set("B5", op.Cereal)
	set("A6", "Neto (TN)")
	set("B6", op.NetTonnes)

	tableRow := 8
	headers := []string{"Patente", "Carta de Porte", "Bruto (kg)", "Tara (kg)", "Neto (kg)", "Neto (TN)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, truck := range op.Trucks {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), truck.LicensePlate)
		set(fmt.Sprintf("B%d", row), truck.Waybill)
		set(fmt.Sprintf("C%d", row), truck.GrossWeightKg)
		set(fmt.Sprintf("D%d", row), truck.TareWeightKg)
		set(fmt.Sprintf("E%d", row), truck.NetWeightKg)
		set(fmt.Sprintf("F%d", row), truck.NetTonnes)
	}

	_ = file.SetColWidth(sheet, "A", "A", 16)
	_ = file.SetColWidth(sheet, "B", "B", 28)
	_ = file.SetColWidth(sheet, "C", "F", 14)
	return nil
}

func buildSheetName(producer string, id uuid.UUID, used map[string]struct{}) string {
	prefix := strings.ToUpper(id.String()[:8])
	base := prefix
	if name := strings.TrimSpace(producer); name != "" {
		base = fmt.Sprintf("%s - %s", prefix, name)
	}
	base = truncateRunes(sanitizeSheetName(base), 31)

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		nameCandidate = truncateRunes(base, 31-len(suffix)) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Hoja"
	}
	return value
}

// truncateRunes cuts by characters; sheet name limits count characters, not bytes.
func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func optionalRate(rate float64) any {
	if rate <= 0 {
		return ""
	}
	return rate
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}
