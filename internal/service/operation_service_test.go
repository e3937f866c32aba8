package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivadavia/grainops/internal/db/dbtest"
	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/repository"
	"github.com/rivadavia/grainops/internal/settings"
	"github.com/rivadavia/grainops/internal/settlement"
)

type fixture struct {
	ops      *OperationService
	contacts *ContactService
	docs     *DocumentService
	store    *settings.Store
	opRepo   *repository.OperationRepository
	pdfGen   *stubPDF
	excelGen *stubExcel
}

type stubPDF struct{ last model.Liquidation }

func (s *stubPDF) Generate(doc model.Liquidation) ([]byte, error) {
	s.last = doc
	return []byte("%PDF-stub"), nil
}

func (s *stubPDF) FileName(doc model.Liquidation) string {
	return "Liquidacion-" + string(doc.Party) + ".pdf"
}

type stubExcel struct{ rows int }

func (s *stubExcel) Generate(ops []model.Operation) ([]byte, error) {
	s.rows = len(ops)
	return []byte("xlsx"), nil
}

func newFixture(t *testing.T, opts OperationOptions) *fixture {
	t.Helper()
	database := dbtest.Open(t)
	log := zerolog.Nop()

	opRepo := repository.NewOperationRepository(database)
	contactRepo := repository.NewContactRepository(database)
	store := settings.NewStore(repository.NewSettingsRepository(database), model.Settings{
		Company:    model.Company{Name: "Cereales Rivadavia S.A."},
		Commission: model.CommissionPolicy{Mode: model.CommissionModeAutoDiff, FixedRatePerTonne: 10},
	}, log)

	calc := settlement.NewCalculator(log, nil)
	f := &fixture{
		store:    store,
		opRepo:   opRepo,
		pdfGen:   &stubPDF{},
		excelGen: &stubExcel{},
	}
	f.ops = NewOperationService(opRepo, contactRepo, store, calc, nil, opts, log)
	f.contacts = NewContactService(contactRepo, log)
	f.docs = NewDocumentService(opRepo, store, f.excelGen, f.pdfGen, nil, log)
	return f
}

func strictOptions() OperationOptions {
	return OperationOptions{StrictTickets: true, RequireUSDRate: true}
}

func baseInput() CreateOperationInput {
	return CreateOperationInput{
		Date:             time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC),
		Producer:         " Estancia La Paz ",
		Buyer:            "Acopio Norte",
		Transporter:      "Transportes Sur",
		Cereal:           "Soja",
		ProducerPriceARS: 100,
		BuyerPriceARS:    110,
		Trucks: []TruckInput{
			{LicensePlate: "ab 123 cd", Waybill: "CP-1", GrossWeightKg: 30000, TareWeightKg: 10000},
		},
		Principal: model.Principal{UserID: "user-1"},
	}
}

func TestCreateOperationComputesTotals(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)

	assert.Equal(t, model.OperationStatusPending, op.Status)
	assert.Equal(t, model.CurrencyARS, op.Currency)
	assert.Equal(t, "Estancia La Paz", op.Producer)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), op.Date.UTC())
	assert.Equal(t, "user-1", op.CreatedByUserID)
	require.Len(t, op.Trucks, 1)
	assert.Equal(t, "AB123CD", op.Trucks[0].LicensePlate)
	assert.Equal(t, 20000.0, op.Trucks[0].NetWeightKg)
	assert.Equal(t, 20.0, op.NetTonnes)
	assert.InDelta(t, 2000, op.Totals.ProducerARS, 1e-9)
	assert.InDelta(t, 2200, op.Totals.BuyerARS, 1e-9)
	assert.InDelta(t, 200, op.Totals.CommissionARS, 1e-9)

	stored, err := f.ops.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, op.Totals, stored.Totals)
}

func TestCreateOperationValidation(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	cases := map[string]func(in *CreateOperationInput){
		"missing producer": func(in *CreateOperationInput) { in.Producer = "  " },
		"missing buyer":    func(in *CreateOperationInput) { in.Buyer = "" },
		"bad currency":     func(in *CreateOperationInput) { in.Currency = "EUR" },
		"usd without rate": func(in *CreateOperationInput) { in.Currency = model.CurrencyUSD },
		"negative price":   func(in *CreateOperationInput) { in.BuyerPriceARS = -1 },
		"tare above gross": func(in *CreateOperationInput) { in.Trucks[0].TareWeightKg = 40000 },
		"negative weight":  func(in *CreateOperationInput) { in.Trucks[0].GrossWeightKg = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := baseInput()
			mutate(&in)
			_, err := f.ops.CreateOperation(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLenientTicketsKeepNegativeNet(t *testing.T) {
	f := newFixture(t, OperationOptions{})
	in := baseInput()
	in.Currency = model.CurrencyUSD
	in.Trucks[0].TareWeightKg = 32000

	op, err := f.ops.CreateOperation(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, -2.0, op.NetTonnes)
	assert.Zero(t, op.Totals.ProducerUSD)
	assert.Zero(t, op.Totals.CommissionARS)
}

func TestTruckEditsRecompute(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)

	op, err = f.ops.AddTruck(ctx, op.ID, TruckInput{LicensePlate: "AC456EF", GrossWeightKg: 25000, TareWeightKg: 10000})
	require.NoError(t, err)
	require.Len(t, op.Trucks, 2)
	assert.Equal(t, 35.0, op.NetTonnes)
	assert.InDelta(t, 350, op.Totals.CommissionARS, 1e-9)

	tare := 5000.0
	op, err = f.ops.UpdateTruck(ctx, op.ID, op.Trucks[1].ID, TruckPatch{TareWeightKg: &tare})
	require.NoError(t, err)
	assert.Equal(t, 40.0, op.NetTonnes)

	op, err = f.ops.RemoveTruck(ctx, op.ID, op.Trucks[0].ID)
	require.NoError(t, err)
	require.Len(t, op.Trucks, 1)
	assert.Equal(t, "AC456EF", op.Trucks[0].LicensePlate)
	assert.Equal(t, 20.0, op.NetTonnes)
	assert.InDelta(t, 2000, op.Totals.ProducerARS, 1e-9)

	op, err = f.ops.ReplaceTrucks(ctx, op.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, op.Trucks)
	assert.Zero(t, op.NetTonnes)
	assert.Zero(t, op.Totals.BuyerARS)

	_, err = f.ops.RemoveTruck(ctx, op.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOperationRecomputesAndPatches(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)

	usd := model.CurrencyUSD
	rate := 1000.0
	price := 120.0
	op, err = f.ops.UpdateOperation(ctx, op.ID, UpdateOperationInput{Currency: &usd, ExchangeRate: &rate, BuyerPriceARS: &price})
	require.NoError(t, err)
	assert.Equal(t, "Estancia La Paz", op.Producer)
	assert.InDelta(t, 2400, op.Totals.BuyerARS, 1e-9)
	assert.InDelta(t, 400, op.Totals.CommissionARS, 1e-9)
	assert.InDelta(t, 2.4, op.Totals.BuyerUSD, 1e-9)
	assert.InDelta(t, 0.4, op.Totals.CommissionUSD, 1e-9)

	zero := 0.0
	_, err = f.ops.UpdateOperation(ctx, op.ID, UpdateOperationInput{ExchangeRate: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPolicyChangeAppliesOnRecomputeOnly(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)
	require.InDelta(t, 200, op.Totals.CommissionARS, 1e-9)

	_, err = f.store.Update(ctx, model.Settings{
		Company:    model.Company{Name: "Cereales Rivadavia S.A."},
		Commission: model.CommissionPolicy{Mode: model.CommissionModeFixed, FixedRatePerTonne: 15},
	})
	require.NoError(t, err)

	stored, err := f.ops.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200, stored.Totals.CommissionARS, 1e-9)

	recomputed, err := f.ops.RecomputeOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.InDelta(t, 300, recomputed.Totals.CommissionARS, 1e-9)
}

func TestStatusMachineAndLock(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)

	_, err = f.ops.ChangeStatus(ctx, op.ID, model.OperationStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.ops.ChangeStatus(ctx, op.ID, "Archivada")
	assert.ErrorIs(t, err, ErrInvalidInput)

	op, err = f.ops.ChangeStatus(ctx, op.ID, model.OperationStatusInProcess)
	require.NoError(t, err)
	op, err = f.ops.ChangeStatus(ctx, op.ID, model.OperationStatusCompleted)
	require.NoError(t, err)
	assert.InDelta(t, 200, op.Totals.CommissionARS, 1e-9)

	_, err = f.ops.ChangeStatus(ctx, op.ID, model.OperationStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.ops.AddTruck(ctx, op.ID, TruckInput{GrossWeightKg: 2000, TareWeightKg: 1000})
	assert.ErrorIs(t, err, ErrOperationLocked)
	_, err = f.ops.RecomputeOperation(ctx, op.ID)
	assert.ErrorIs(t, err, ErrOperationLocked)

	price := 1.0
	_, err = f.ops.UpdateOperation(ctx, op.ID, UpdateOperationInput{ProducerPriceARS: &price})
	assert.ErrorIs(t, err, ErrOperationLocked)

	_, err = f.store.Update(ctx, model.Settings{
		Company:    model.Company{Name: "Cereales Rivadavia S.A."},
		Commission: model.CommissionPolicy{Mode: model.CommissionModeFixed, FixedRatePerTonne: 15},
	})
	require.NoError(t, err)

	notes := "pagado"
	op, err = f.ops.UpdateOperation(ctx, op.ID, UpdateOperationInput{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "pagado", op.Notes)
	assert.Equal(t, model.OperationStatusCompleted, op.Status)
	assert.InDelta(t, 200, op.Totals.CommissionARS, 1e-9, "notes edit keeps the stored totals")

	stored, err := f.ops.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200, stored.Totals.CommissionARS, 1e-9)
	assert.InDelta(t, 2200, stored.Totals.BuyerARS, 1e-9)
}

func TestDeleteAndNotFound(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)
	require.NoError(t, f.ops.DeleteOperation(ctx, op.ID))

	_, err = f.ops.GetOperation(ctx, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.ops.DeleteOperation(ctx, op.ID), ErrNotFound)
	_, err = f.ops.AddTruck(ctx, op.ID, TruckInput{GrossWeightKg: 2000, TareWeightKg: 1000})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndStats(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx := context.Background()

	first, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)
	other := baseInput()
	other.Producer = "Campo Verde"
	_, err = f.ops.CreateOperation(ctx, other)
	require.NoError(t, err)
	_, err = f.ops.ChangeStatus(ctx, first.ID, model.OperationStatusCompleted)
	require.NoError(t, err)

	_, err = f.contacts.Create(ctx, ContactInput{Name: "Campo Verde", Type: model.ContactTypeProducer})
	require.NoError(t, err)

	pending, err := f.ops.ListOperations(ctx, model.OperationFilter{Status: model.OperationStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Campo Verde", pending[0].Producer)

	_, err = f.ops.ListOperations(ctx, model.OperationFilter{Status: "otro"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	stats, err := f.ops.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOperations)
	assert.Equal(t, int64(1), stats.PendingOperations)
	assert.InDelta(t, 40, stats.TotalNetTonnes, 1e-9)
	assert.InDelta(t, 400, stats.TotalCommissionARS, 1e-9)
	assert.Equal(t, int64(1), stats.ContactsCount)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	f := newFixture(t, strictOptions())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := f.ops.Subscribe(ctx)
	op, err := f.ops.CreateOperation(ctx, baseInput())
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, model.OperationEventUpserted, event.Type)
		assert.Equal(t, op.ID, event.OperationID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}
