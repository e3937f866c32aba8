package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rivadavia/grainops/internal/metrics"
	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/settlement"
)

type OperationStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Operation, error)
	List(ctx context.Context, filter model.OperationFilter) ([]model.Operation, error)
	Save(ctx context.Context, op model.Operation) (*model.Operation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Subscribe(ctx context.Context) <-chan model.OperationEvent
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

type ContactCounter interface {
	Count(ctx context.Context) (int64, error)
}

type PolicySource interface {
	Policy() model.CommissionPolicy
}

type OperationOptions struct {
	// StrictTickets rejects tickets whose net weight is not positive.
	StrictTickets  bool
	RequireUSDRate bool
}

type OperationService struct {
	repo     OperationStore
	contacts ContactCounter
	policy   PolicySource
	calc     *settlement.Calculator
	metrics  *metrics.Metrics
	opts     OperationOptions
	log      zerolog.Logger
	now      func() time.Time
}

func NewOperationService(
	repo OperationStore,
	contacts ContactCounter,
	policy PolicySource,
	calc *settlement.Calculator,
	m *metrics.Metrics,
	opts OperationOptions,
	log zerolog.Logger,
) *OperationService {
	return &OperationService{
		repo:     repo,
		contacts: contacts,
		policy:   policy,
		calc:     calc,
		metrics:  m,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

type TruckInput struct {
	LicensePlate  string
	Waybill       string
	GrossWeightKg float64
	TareWeightKg  float64
	OCRRaw        []byte
}

type TruckPatch struct {
	LicensePlate  *string
	Waybill       *string
	GrossWeightKg *float64
	TareWeightKg  *float64
}

type CreateOperationInput struct {
	Date             time.Time
	Producer         string
	Buyer            string
	Transporter      string
	Cereal           string
	Currency         model.Currency
	ExchangeRate     float64
	ProducerPriceARS float64
	BuyerPriceARS    float64
	Notes            string
	Trucks           []TruckInput
	Principal        model.Principal
}

// UpdateOperationInput is a partial update; nil fields are left as they are.
type UpdateOperationInput struct {
	Date             *time.Time
	Producer         *string
	Buyer            *string
	Transporter      *string
	Cereal           *string
	Currency         *model.Currency
	ExchangeRate     *float64
	ProducerPriceARS *float64
	BuyerPriceARS    *float64
	Notes            *string
}

func (in UpdateOperationInput) touchesTerms() bool {
	return in.Date != nil || in.Producer != nil || in.Buyer != nil || in.Transporter != nil ||
		in.Cereal != nil || in.Currency != nil || in.ExchangeRate != nil ||
		in.ProducerPriceARS != nil || in.BuyerPriceARS != nil
}

func (s *OperationService) CreateOperation(ctx context.Context, input CreateOperationInput) (*model.Operation, error) {
	date := dateOnly(input.Date)
	if date.IsZero() {
		date = dateOnly(s.now())
	}
	currency := input.Currency
	if currency == "" {
		currency = model.CurrencyARS
	}

	op := model.Operation{
		ID:               uuid.New(),
		Date:             date,
		Producer:         strings.TrimSpace(input.Producer),
		Buyer:            strings.TrimSpace(input.Buyer),
		Transporter:      strings.TrimSpace(input.Transporter),
		Cereal:           strings.TrimSpace(input.Cereal),
		Status:           model.OperationStatusPending,
		Currency:         currency,
		ExchangeRate:     input.ExchangeRate,
		ProducerPriceARS: input.ProducerPriceARS,
		BuyerPriceARS:    input.BuyerPriceARS,
		Notes:            input.Notes,
		CreatedByUserID:  input.Principal.UserID,
	}
	for _, truck := range input.Trucks {
		ticket, err := s.newTicket(truck)
		if err != nil {
			return nil, err
		}
		op.Trucks = append(op.Trucks, ticket)
	}
	if err := s.validateTerms(op); err != nil {
		return nil, err
	}

	saved, err := s.recomputeAndSave(ctx, op)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("operation_id", saved.ID.String()).
		Int("trucks", len(saved.Trucks)).
		Float64("net_tonnes", saved.NetTonnes).
		Msg("operation created")
	return saved, nil
}

func (s *OperationService) GetOperation(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return op, nil
}

func (s *OperationService) ListOperations(ctx context.Context, filter model.OperationFilter) ([]model.Operation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *OperationService) UpdateOperation(ctx context.Context, id uuid.UUID, input UpdateOperationInput) (*model.Operation, error) {
	return s.mutate(ctx, id, input.touchesTerms(), func(op *model.Operation) error {
		if input.Date != nil {
			op.Date = dateOnly(*input.Date)
		}
		if input.Producer != nil {
			op.Producer = strings.TrimSpace(*input.Producer)
		}
		if input.Buyer != nil {
			op.Buyer = strings.TrimSpace(*input.Buyer)
		}
		if input.Transporter != nil {
			op.Transporter = strings.TrimSpace(*input.Transporter)
		}
		if input.Cereal != nil {
			op.Cereal = strings.TrimSpace(*input.Cereal)
		}
		if input.Currency != nil {
			op.Currency = *input.Currency
		}
		if input.ExchangeRate != nil {
			op.ExchangeRate = *input.ExchangeRate
		}
		if input.ProducerPriceARS != nil {
			op.ProducerPriceARS = *input.ProducerPriceARS
		}
		if input.BuyerPriceARS != nil {
			op.BuyerPriceARS = *input.BuyerPriceARS
		}
		if input.Notes != nil {
			op.Notes = *input.Notes
		}
		return s.validateTerms(*op)
	})
}

func (s *OperationService) ChangeStatus(ctx context.Context, id uuid.UUID, status model.OperationStatus) (*model.Operation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !model.CanTransition(op.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, op.Status, status)
	}

	from := op.Status
	op.Status = status
	saved, err := s.repo.Save(ctx, *op)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("operation_id", id.String()).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("operation status changed")
	return saved, nil
}

func (s *OperationService) DeleteOperation(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.log.Info().Str("operation_id", id.String()).Msg("operation deleted")
	return nil
}

// RecomputeOperation re-derives totals with the current commission policy.
func (s *OperationService) RecomputeOperation(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	return s.mutate(ctx, id, true, func(*model.Operation) error { return nil })
}

func (s *OperationService) AddTruck(ctx context.Context, id uuid.UUID, input TruckInput) (*model.Operation, error) {
	ticket, err := s.newTicket(input)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, true, func(op *model.Operation) error {
		op.Trucks = append(op.Trucks, ticket)
		return nil
	})
}

func (s *OperationService) UpdateTruck(ctx context.Context, id, truckID uuid.UUID, patch TruckPatch) (*model.Operation, error) {
	return s.mutate(ctx, id, true, func(op *model.Operation) error {
		idx := truckIndex(op.Trucks, truckID)
		if idx < 0 {
			return fmt.Errorf("%w: truck %s", ErrNotFound, truckID)
		}
		truck := op.Trucks[idx]
		if patch.LicensePlate != nil {
			truck.LicensePlate = normalizePlate(*patch.LicensePlate)
		}
		if patch.Waybill != nil {
			truck.Waybill = strings.TrimSpace(*patch.Waybill)
		}
		if patch.GrossWeightKg != nil {
			truck.GrossWeightKg = *patch.GrossWeightKg
		}
		if patch.TareWeightKg != nil {
			truck.TareWeightKg = *patch.TareWeightKg
		}
		if err := s.validateTicket(truck); err != nil {
			return err
		}
		op.Trucks[idx] = truck
		return nil
	})
}

func (s *OperationService) RemoveTruck(ctx context.Context, id, truckID uuid.UUID) (*model.Operation, error) {
	return s.mutate(ctx, id, true, func(op *model.Operation) error {
		idx := truckIndex(op.Trucks, truckID)
		if idx < 0 {
			return fmt.Errorf("%w: truck %s", ErrNotFound, truckID)
		}
		op.Trucks = append(op.Trucks[:idx:idx], op.Trucks[idx+1:]...)
		return nil
	})
}

func (s *OperationService) ReplaceTrucks(ctx context.Context, id uuid.UUID, inputs []TruckInput) (*model.Operation, error) {
	tickets := make([]model.TruckTicket, 0, len(inputs))
	for _, input := range inputs {
		ticket, err := s.newTicket(input)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return s.mutate(ctx, id, true, func(op *model.Operation) error {
		op.Trucks = tickets
		return nil
	})
}

func (s *OperationService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.contacts != nil {
		count, err := s.contacts.Count(ctx)
		if err != nil {
			return nil, err
		}
		stats.ContactsCount = count
	}
	return stats, nil
}

func (s *OperationService) Subscribe(ctx context.Context) <-chan model.OperationEvent {
	return s.repo.Subscribe(ctx)
}

// mutate loads an operation, applies fn and persists the result. Edits that leave
// the terms alone keep the stored totals.
func (s *OperationService) mutate(ctx context.Context, id uuid.UUID, touchesTerms bool, fn func(op *model.Operation) error) (*model.Operation, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if touchesTerms && current.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: status %s", ErrOperationLocked, current.Status)
	}

	op := *current
	op.Trucks = append([]model.TruckTicket(nil), current.Trucks...)
	if err := fn(&op); err != nil {
		return nil, err
	}
	if !touchesTerms {
		return s.repo.Save(ctx, op)
	}
	return s.recomputeAndSave(ctx, op)
}

func (s *OperationService) recomputeAndSave(ctx context.Context, op model.Operation) (*model.Operation, error) {
	recomputed, err := settlement.Recompute(op, s.policy.Policy(), s.calc)
	s.metrics.ObserveRecompute(err == nil)
	if err != nil {
		s.log.Error().Err(err).Str("operation_id", op.ID.String()).Msg("recompute failed")
		return nil, err
	}
	return s.repo.Save(ctx, recomputed)
}

func (s *OperationService) newTicket(input TruckInput) (model.TruckTicket, error) {
	ticket := model.TruckTicket{
		ID:            uuid.New(),
		LicensePlate:  normalizePlate(input.LicensePlate),
		Waybill:       strings.TrimSpace(input.Waybill),
		GrossWeightKg: input.GrossWeightKg,
		TareWeightKg:  input.TareWeightKg,
		OCRRaw:        input.OCRRaw,
	}
	if err := s.validateTicket(ticket); err != nil {
		return model.TruckTicket{}, err
	}
	return ticket, nil
}

func (s *OperationService) validateTicket(ticket model.TruckTicket) error {
	if ticket.GrossWeightKg < 0 || ticket.TareWeightKg < 0 {
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidInput)
	}
	if s.opts.StrictTickets && settlement.NetWeightOf(ticket).Kg <= 0 {
		return fmt.Errorf("%w: net weight must be greater than zero (gross %.0f kg, tare %.0f kg)",
			ErrInvalidInput, ticket.GrossWeightKg, ticket.TareWeightKg)
	}
	return nil
}

func (s *OperationService) validateTerms(op model.Operation) error {
	if op.Producer == "" {
		return fmt.Errorf("%w: producer is required", ErrInvalidInput)
	}
	if op.Buyer == "" {
		return fmt.Errorf("%w: buyer is required", ErrInvalidInput)
	}
	if !op.Currency.Valid() {
		return fmt.Errorf("%w: currency must be ARS or USD", ErrInvalidInput)
	}
	if op.ExchangeRate < 0 {
		return fmt.Errorf("%w: exchange rate must not be negative", ErrInvalidInput)
	}
	if s.opts.RequireUSDRate && op.Currency == model.CurrencyUSD && op.ExchangeRate <= 0 {
		return fmt.Errorf("%w: exchange rate is required for USD operations", ErrInvalidInput)
	}
	if op.ProducerPriceARS < 0 || op.BuyerPriceARS < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidInput)
	}
	return nil
}

func truckIndex(trucks []model.TruckTicket, id uuid.UUID) int {
	for i, truck := range trucks {
		if truck.ID == id {
			return i
		}
	}
	return -1
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
