package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rivadavia/grainops/internal/db/dbtest"
	"github.com/rivadavia/grainops/internal/model"
)

func TestContactRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewContactRepository(dbtest.Open(t))

	created, err := repo.Create(ctx, model.Contact{Name: "Don Pedro", Type: model.ContactTypeProducer, CUIT: "20-11111111-1"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	_, err = repo.Create(ctx, model.Contact{Name: "Acopio Norte", Type: model.ContactTypeBuyer})
	require.NoError(t, err)

	producers, err := repo.List(ctx, model.ContactTypeProducer, "")
	require.NoError(t, err)
	require.Len(t, producers, 1)
	assert.Equal(t, "Don Pedro", producers[0].Name)

	found, err := repo.List(ctx, "", "acopio")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	created.Phone = "02392 45-1234"
	updated, err := repo.Update(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, "02392 45-1234", updated.Phone)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.Update(ctx, model.Contact{ID: uuid.New(), Name: "x", Type: model.ContactTypeBuyer})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(dbtest.Open(t))

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	flat := 250.0
	settings := model.Settings{
		Company:    model.Company{Name: "Cereales Rivadavia S.A.", CUIT: "30-12345678-9"},
		Commission: model.CommissionPolicy{Mode: model.CommissionModeFixed, FixedRatePerTonne: 12, FixedValue: &flat},
	}
	require.NoError(t, repo.Save(ctx, settings))

	settings.Commission = model.CommissionPolicy{Mode: model.CommissionModeAutoDiff, FixedRatePerTonne: 10}
	require.NoError(t, repo.Save(ctx, settings))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "30-12345678-9", got.Company.CUIT)
	assert.Equal(t, model.CommissionModeAutoDiff, got.Commission.Mode)
	assert.Equal(t, 10.0, got.Commission.FixedRatePerTonne)
	assert.Nil(t, got.Commission.FixedValue)
}
