// Package settings holds the process-wide company data and commission policy.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rivadavia/grainops/internal/config"
	"github.com/rivadavia/grainops/internal/model"
)

var ErrInvalidSettings = errors.New("invalid settings")

type Repository interface {
	Get(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, settings model.Settings) error
}

type Store struct {
	repo Repository
	log  zerolog.Logger

	mu      sync.RWMutex
	current model.Settings
}

func NewStore(repo Repository, defaults model.Settings, log zerolog.Logger) *Store {
	return &Store{repo: repo, log: log, current: defaults}
}

// Defaults builds the startup settings from configuration.
func Defaults(cfg *config.Config) model.Settings {
	return model.Settings{
		Company: model.Company{
			Name:    cfg.Company.Name,
			CUIT:    cfg.Company.CUIT,
			Address: cfg.Company.Address,
			Phone:   cfg.Company.Phone,
		},
		Commission: model.CommissionPolicy{
			Mode:              model.CommissionMode(cfg.Commission.Mode),
			FixedRatePerTonne: cfg.Commission.FixedRate,
		},
	}
}

// Load replaces the defaults with the persisted settings, if any.
func (s *Store) Load(ctx context.Context) error {
	stored, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Info().Msg("no stored settings, using configuration defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	s.current = *stored
	s.mu.Unlock()

	s.log.Info().Str("commission_mode", string(stored.Commission.Mode)).Msg("settings loaded")
	return nil
}

func (s *Store) Current() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.current)
}

func (s *Store) Policy() model.CommissionPolicy {
	return s.Current().Commission
}

// Update validates and persists settings. The new policy applies to the next
// recompute; totals already stored are not touched.
func (s *Store) Update(ctx context.Context, next model.Settings) (model.Settings, error) {
	next.Company.Name = strings.TrimSpace(next.Company.Name)
	if err := Validate(next); err != nil {
		return model.Settings{}, err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return model.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.current = copySettings(next)
	s.mu.Unlock()

	s.log.Info().
		Str("commission_mode", string(next.Commission.Mode)).
		Float64("fixed_rate", next.Commission.FixedRatePerTonne).
		Msg("settings updated")
	return copySettings(next), nil
}

func Validate(settings model.Settings) error {
	policy := settings.Commission
	if !policy.Mode.Valid() {
		return fmt.Errorf("%w: commission mode must be auto-diff or fixed", ErrInvalidSettings)
	}
	if policy.Mode == model.CommissionModeFixed && policy.FixedValue == nil && policy.FixedRatePerTonne <= 0 {
		return fmt.Errorf("%w: fixed commission needs a positive rate per tonne", ErrInvalidSettings)
	}
	if policy.FixedRatePerTonne < 0 {
		return fmt.Errorf("%w: fixed rate must not be negative", ErrInvalidSettings)
	}
	return nil
}

func copySettings(in model.Settings) model.Settings {
	out := in
	if in.Commission.FixedValue != nil {
		value := *in.Commission.FixedValue
		out.Commission.FixedValue = &value
	}
	return out
}
