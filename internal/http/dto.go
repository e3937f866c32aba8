package http

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/numeric"
	"github.com/rivadavia/grainops/internal/service"
)

const dateLayout = "2006-01-02"

type truckRequest struct {
	Patente    string          `json:"patente" binding:"max=20"`
	CartaPorte string          `json:"carta_porte" binding:"max=40"`
	BrutoKg    numeric.Value   `json:"bruto_kg"`
	TaraKg     numeric.Value   `json:"tara_kg"`
	OCRRaw     json.RawMessage `json:"ocr_raw,omitempty"`
}

func (r truckRequest) toInput() service.TruckInput {
	return service.TruckInput{
		LicensePlate:  r.Patente,
		Waybill:       r.CartaPorte,
		GrossWeightKg: r.BrutoKg.Float64(),
		TareWeightKg:  r.TaraKg.Float64(),
		OCRRaw:        r.OCRRaw,
	}
}

type replaceTrucksRequest struct {
	Camiones []truckRequest `json:"camiones" binding:"dive"`
}

type truckPatchRequest struct {
	Patente    *string        `json:"patente" binding:"omitempty,max=20"`
	CartaPorte *string        `json:"carta_porte" binding:"omitempty,max=40"`
	BrutoKg    *numeric.Value `json:"bruto_kg"`
	TaraKg     *numeric.Value `json:"tara_kg"`
}

func (r truckPatchRequest) toPatch() service.TruckPatch {
	return service.TruckPatch{
		LicensePlate:  r.Patente,
		Waybill:       r.CartaPorte,
		GrossWeightKg: floatPtr(r.BrutoKg),
		TareWeightKg:  floatPtr(r.TaraKg),
	}
}

type createOperationRequest struct {
	Fecha           string         `json:"fecha"`
	Productor       string         `json:"productor" binding:"required,max=200"`
	Comprador       string         `json:"comprador" binding:"required,max=200"`
	Transportista   string         `json:"transportista" binding:"max=200"`
	Cereal          string         `json:"cereal" binding:"max=60"`
	Moneda          string         `json:"moneda" binding:"omitempty,oneof=ARS USD"`
	TipoDeCambio    numeric.Value  `json:"tipo_de_cambio"`
	PrecioProductor numeric.Value  `json:"precio_productor_ars"`
	PrecioComprador numeric.Value  `json:"precio_comprador_ars"`
	Notas           string         `json:"notas"`
	Camiones        []truckRequest `json:"camiones" binding:"dive"`
}

type updateOperationRequest struct {
	Fecha           *string        `json:"fecha"`
	Productor       *string        `json:"productor" binding:"omitempty,max=200"`
	Comprador       *string        `json:"comprador" binding:"omitempty,max=200"`
	Transportista   *string        `json:"transportista" binding:"omitempty,max=200"`
	Cereal          *string        `json:"cereal" binding:"omitempty,max=60"`
	Moneda          *string        `json:"moneda" binding:"omitempty,oneof=ARS USD"`
	TipoDeCambio    *numeric.Value `json:"tipo_de_cambio"`
	PrecioProductor *numeric.Value `json:"precio_productor_ars"`
	PrecioComprador *numeric.Value `json:"precio_comprador_ars"`
	Notas           *string        `json:"notas"`
}

type statusRequest struct {
	Estado string `json:"estado" binding:"required"`
}

type truckResponse struct {
	ID         uuid.UUID `json:"id"`
	Patente    string    `json:"patente"`
	CartaPorte string    `json:"carta_porte"`
	BrutoKg    float64   `json:"bruto_kg"`
	TaraKg     float64   `json:"tara_kg"`
	NetoKg     float64   `json:"neto_kg"`
	NetoTon    float64   `json:"neto_ton"`
}

type operationResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Fecha              string          `json:"fecha"`
	Productor          string          `json:"productor"`
	Comprador          string          `json:"comprador"`
	Transportista      string          `json:"transportista"`
	Cereal             string          `json:"cereal"`
	Estado             string          `json:"estado"`
	Moneda             string          `json:"moneda"`
	TipoDeCambio       float64         `json:"tipo_de_cambio"`
	PrecioProductorARS float64         `json:"precio_productor_ars"`
	PrecioCompradorARS float64         `json:"precio_comprador_ars"`
	Notas              string          `json:"notas"`
	Camiones           []truckResponse `json:"camiones"`
	NetoTon            float64         `json:"neto_ton"`
	TotalProductorARS  float64         `json:"total_productor_ars"`
	TotalProductorUSD  float64         `json:"total_productor_usd"`
	TotalCompradorARS  float64         `json:"total_comprador_ars"`
	TotalCompradorUSD  float64         `json:"total_comprador_usd"`
	ComisionARS        float64         `json:"comision_interna_ars"`
	ComisionUSD        float64         `json:"comision_interna_usd"`
	CreadoPor          string          `json:"creado_por,omitempty"`
	CreadoEn           time.Time       `json:"creado_en"`
	ActualizadoEn      time.Time       `json:"actualizado_en"`
}

func newOperationResponse(op model.Operation) operationResponse {
	trucks := make([]truckResponse, 0, len(op.Trucks))
	for _, truck := range op.Trucks {
		trucks = append(trucks, truckResponse{
			ID:         truck.ID,
			Patente:    truck.LicensePlate,
			CartaPorte: truck.Waybill,
			BrutoKg:    truck.GrossWeightKg,
			TaraKg:     truck.TareWeightKg,
			NetoKg:     truck.NetWeightKg,
			NetoTon:    truck.NetTonnes,
		})
	}
	fecha := ""
	if !op.Date.IsZero() {
		fecha = op.Date.Format(dateLayout)
	}
	return operationResponse{
		ID:                 op.ID,
		Fecha:              fecha,
		Productor:          op.Producer,
		Comprador:          op.Buyer,
		Transportista:      op.Transporter,
		Cereal:             op.Cereal,
		Estado:             string(op.Status),
		Moneda:             string(op.Currency),
		TipoDeCambio:       op.ExchangeRate,
		PrecioProductorARS: op.ProducerPriceARS,
		PrecioCompradorARS: op.BuyerPriceARS,
		Notas:              op.Notes,
		Camiones:           trucks,
		NetoTon:            op.NetTonnes,
		TotalProductorARS:  op.Totals.ProducerARS,
		TotalProductorUSD:  op.Totals.ProducerUSD,
		TotalCompradorARS:  op.Totals.BuyerARS,
		TotalCompradorUSD:  op.Totals.BuyerUSD,
		ComisionARS:        op.Totals.CommissionARS,
		ComisionUSD:        op.Totals.CommissionUSD,
		CreadoPor:          op.CreatedByUserID,
		CreadoEn:           op.CreatedAt,
		ActualizadoEn:      op.UpdatedAt,
	}
}

func newOperationList(ops []model.Operation) []operationResponse {
	items := make([]operationResponse, 0, len(ops))
	for _, op := range ops {
		items = append(items, newOperationResponse(op))
	}
	return items
}

type eventResponse struct {
	Tipo        string             `json:"tipo"`
	OperacionID uuid.UUID          `json:"operacion_id"`
	Operacion   *operationResponse `json:"operacion,omitempty"`
	En          time.Time          `json:"en"`
}

func newEventResponse(event model.OperationEvent) eventResponse {
	resp := eventResponse{Tipo: string(event.Type), OperacionID: event.OperationID, En: event.At}
	if event.Operation != nil {
		op := newOperationResponse(*event.Operation)
		resp.Operacion = &op
	}
	return resp
}

type contactRequest struct {
	Nombre    string `json:"nombre" binding:"required,max=200"`
	Tipo      string `json:"tipo" binding:"required,oneof=productor comprador transportista"`
	Telefono  string `json:"telefono" binding:"max=40"`
	Email     string `json:"email" binding:"omitempty,email"`
	CUIT      string `json:"cuit" binding:"max=20"`
	Direccion string `json:"direccion" binding:"max=200"`
	Notas     string `json:"notas"`
}

func (r contactRequest) toInput() service.ContactInput {
	return service.ContactInput{
		Name:    r.Nombre,
		Type:    model.ContactType(r.Tipo),
		Phone:   r.Telefono,
		Email:   r.Email,
		CUIT:    r.CUIT,
		Address: r.Direccion,
		Notes:   r.Notas,
	}
}

type contactResponse struct {
	ID            uuid.UUID `json:"id"`
	Nombre        string    `json:"nombre"`
	Tipo          string    `json:"tipo"`
	Telefono      string    `json:"telefono"`
	Email         string    `json:"email"`
	CUIT          string    `json:"cuit"`
	Direccion     string    `json:"direccion"`
	Notas         string    `json:"notas"`
	CreadoEn      time.Time `json:"creado_en"`
	ActualizadoEn time.Time `json:"actualizado_en"`
}

func newContactResponse(contact model.Contact) contactResponse {
	return contactResponse{
		ID:            contact.ID,
		Nombre:        contact.Name,
		Tipo:          string(contact.Type),
		Telefono:      contact.Phone,
		Email:         contact.Email,
		CUIT:          contact.CUIT,
		Direccion:     contact.Address,
		Notas:         contact.Notes,
		CreadoEn:      contact.CreatedAt,
		ActualizadoEn: contact.UpdatedAt,
	}
}

type companyPayload struct {
	Nombre    string `json:"nombre" binding:"required,max=200"`
	CUIT      string `json:"cuit" binding:"max=20"`
	Direccion string `json:"direccion" binding:"max=200"`
	Telefono  string `json:"telefono" binding:"max=40"`
	Logo      string `json:"logo"`
}

type commissionPayload struct {
	Modo          string         `json:"modo" binding:"required,oneof=auto-diff fixed"`
	TarifaFijaTon numeric.Value  `json:"tarifa_fija_ton"`
	ValorFijo     *numeric.Value `json:"valor_fijo"`
}

type settingsPayload struct {
	Empresa  companyPayload    `json:"empresa"`
	Comision commissionPayload `json:"comision"`
}

func (p settingsPayload) toModel() model.Settings {
	return model.Settings{
		Company: model.Company{
			Name:    p.Empresa.Nombre,
			CUIT:    p.Empresa.CUIT,
			Address: p.Empresa.Direccion,
			Phone:   p.Empresa.Telefono,
			Logo:    p.Empresa.Logo,
		},
		Commission: model.CommissionPolicy{
			Mode:              model.CommissionMode(p.Comision.Modo),
			FixedRatePerTonne: p.Comision.TarifaFijaTon.Float64(),
			FixedValue:        floatPtr(p.Comision.ValorFijo),
		},
	}
}

func newSettingsPayload(settings model.Settings) settingsPayload {
	var flat *numeric.Value
	if settings.Commission.FixedValue != nil {
		v := numeric.Value(*settings.Commission.FixedValue)
		flat = &v
	}
	return settingsPayload{
		Empresa: companyPayload{
			Nombre:    settings.Company.Name,
			CUIT:      settings.Company.CUIT,
			Direccion: settings.Company.Address,
			Telefono:  settings.Company.Phone,
			Logo:      settings.Company.Logo,
		},
		Comision: commissionPayload{
			Modo:          string(settings.Commission.Mode),
			TarifaFijaTon: numeric.Value(settings.Commission.FixedRatePerTonne),
			ValorFijo:     flat,
		},
	}
}

type statsResponse struct {
	// Cancelled operations are not counted.
	TotalOperaciones     int64   `json:"total_operaciones"`
	OperacionesPendiente int64   `json:"operaciones_pendientes"`
	TotalNetoTon         float64 `json:"total_neto_ton"`
	TotalComisionARS     float64 `json:"total_comision_ars"`
	TotalContactos       int64   `json:"total_contactos"`
}

type ticketGuessResponse struct {
	Patente    string  `json:"patente"`
	CartaPorte string  `json:"carta_porte"`
	BrutoKg    float64 `json:"bruto_kg"`
	TaraKg     float64 `json:"tara_kg"`
	// Raw is echoed back so the client can attach it to the truck it creates.
	Raw json.RawMessage `json:"ocr_raw,omitempty"`
}

func floatPtr(v *numeric.Value) *float64 {
	if v == nil {
		return nil
	}
	f := v.Float64()
	return &f
}
