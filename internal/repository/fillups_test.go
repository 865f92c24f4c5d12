package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarulanda/fuelscan/internal/common"
	"github.com/dmarulanda/fuelscan/internal/entity"
	"github.com/dmarulanda/fuelscan/internal/extract"
)

func openTestRepo(t *testing.T) *SQLFillUpRepository {
	t.Helper()

	// A single connection keeps the in-memory database alive for the test.
	db, err := Open(context.Background(), Config{
		Driver:   DriverSQLite,
		DSN:      ":memory:",
		MaxConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewFillUpRepository(db, DriverSQLite, nil)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func sampleFillUp(date time.Time) *entity.FillUp {
	plate := "HGW-523"
	gallons := 10.62
	fuel := "ACPM"
	return entity.NewFillUp("tanqueo.jpg", extract.ReceiptData{
		Plate:      &plate,
		Gallons:    &gallons,
		FuelType:   &fuel,
		FillUpDate: &date,
	}, extract.Confidence{Plate: 0.90, Gallons: 0.90, FuelType: 0.95, FillUpDate: 0.85})
}

func TestFillUpRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rec := sampleFillUp(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "tanqueo.jpg", got.Filename)
	require.NotNil(t, got.Plate)
	assert.Equal(t, "HGW-523", *got.Plate)
	require.NotNil(t, got.Gallons)
	assert.InDelta(t, 10.62, *got.Gallons, 1e-9)
	require.NotNil(t, got.FillUpDate)
	assert.True(t, got.FillUpDate.Equal(*rec.FillUpDate))
	assert.Nil(t, got.StationName)
	assert.Nil(t, got.Odometer)
	assert.InDelta(t, 0.95, got.Confidence.FuelType, 1e-6)
}

func TestFillUpGetByIDNotFound(t *testing.T) {
	repo := openTestRepo(t)

	rec := sampleFillUp(time.Now().UTC())
	_, err := repo.GetByID(context.Background(), rec.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFillUpListDateWindow(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	jan := sampleFillUp(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	feb := sampleFillUp(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	mar := sampleFillUp(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	for _, rec := range []*entity.FillUp{jan, feb, mar} {
		require.NoError(t, repo.Save(ctx, rec))
	}

	all, err := repo.List(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	window, err := repo.List(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, feb.ID, window[0].ID)

	onward, err := repo.List(ctx, &from, nil)
	require.NoError(t, err)
	assert.Len(t, onward, 2)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT $1, $2", rebind(DriverPostgres, "SELECT ?, ?"))
	assert.Equal(t, "SELECT ?, ?", rebind(DriverSQLite, "SELECT ?, ?"))
}
