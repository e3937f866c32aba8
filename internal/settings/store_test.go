package settings

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivadavia/grainops/internal/config"
	"github.com/rivadavia/grainops/internal/db/dbtest"
	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Commission: config.CommissionConfig{Mode: "auto-diff", FixedRate: 10},
		Company:    config.CompanyConfig{Name: "Cereales Rivadavia S.A."},
	}
}

func TestStoreLoadUsesDefaultsWhenEmpty(t *testing.T) {
	repo := repository.NewSettingsRepository(dbtest.Open(t))
	store := NewStore(repo, Defaults(testConfig()), zerolog.Nop())

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, model.CommissionModeAutoDiff, store.Policy().Mode)
	assert.Equal(t, 10.0, store.Policy().FixedRatePerTonne)
	assert.Equal(t, "Cereales Rivadavia S.A.", store.Current().Company.Name)
}

func TestStoreUpdatePersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSettingsRepository(dbtest.Open(t))
	store := NewStore(repo, Defaults(testConfig()), zerolog.Nop())

	next := store.Current()
	next.Commission = model.CommissionPolicy{Mode: model.CommissionModeFixed, FixedRatePerTonne: 15.5}
	_, err := store.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, model.CommissionModeFixed, store.Policy().Mode)

	reloaded := NewStore(repo, Defaults(testConfig()), zerolog.Nop())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 15.5, reloaded.Policy().FixedRatePerTonne)
}

func TestStoreUpdateRejectsInvalidPolicy(t *testing.T) {
	repo := repository.NewSettingsRepository(dbtest.Open(t))
	store := NewStore(repo, Defaults(testConfig()), zerolog.Nop())

	cases := []model.CommissionPolicy{
		{Mode: "percent"},
		{Mode: model.CommissionModeFixed},
		{Mode: model.CommissionModeAutoDiff, FixedRatePerTonne: -1},
	}
	for _, policy := range cases {
		_, err := store.Update(context.Background(), model.Settings{Commission: policy})
		assert.ErrorIs(t, err, ErrInvalidSettings)
	}
	assert.Equal(t, model.CommissionModeAutoDiff, store.Policy().Mode)
}

func TestStoreCurrentReturnsCopy(t *testing.T) {
	flat := 100.0
	defaults := Defaults(testConfig())
	defaults.Commission = model.CommissionPolicy{Mode: model.CommissionModeFixed, FixedValue: &flat}
	store := NewStore(repository.NewSettingsRepository(dbtest.Open(t)), defaults, zerolog.Nop())

	current := store.Current()
	*current.Commission.FixedValue = 1
	assert.Equal(t, 100.0, *store.Policy().FixedValue)
}
