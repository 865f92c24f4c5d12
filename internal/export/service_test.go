package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dmarulanda/fuelscan/internal/entity"
	"github.com/dmarulanda/fuelscan/internal/extract"
)

type fakeRepo struct {
	recs     []*entity.FillUp
	lastFrom *time.Time
	lastTo   *time.Time
}

func (f *fakeRepo) Save(context.Context, *entity.FillUp) error { return nil }

func (f *fakeRepo) GetByID(context.Context, uuid.UUID) (*entity.FillUp, error) { return nil, nil }

func (f *fakeRepo) List(_ context.Context, from, to *time.Time) ([]*entity.FillUp, error) {
	f.lastFrom, f.lastTo = from, to
	return f.recs, nil
}

func TestExportXLSX(t *testing.T) {
	station := "EDS LA ESTANCIA"
	plate := "HGW-523"
	fuel := "Corriente"
	gallons := 10.62
	total := 98750.0
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	repo := &fakeRepo{recs: []*entity.FillUp{
		entity.NewFillUp("r1.jpg", extract.ReceiptData{
			StationName: &station,
			Plate:       &plate,
			FuelType:    &fuel,
			Gallons:     &gallons,
			Total:       &total,
			FillUpDate:  &date,
		}, extract.Confidence{}),
		entity.NewFillUp("r2.jpg", extract.ReceiptData{}, extract.Confidence{}),
	}}

	svc := NewService(repo, nil)
	out, err := svc.ExportXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	wb, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Tanqueos")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header plus two records

	assert.Equal(t, "Fecha Tanqueo", rows[0][0])
	assert.Equal(t, "2024-03-01", rows[1][0])
	assert.Equal(t, "EDS LA ESTANCIA", rows[1][1])
	assert.Equal(t, "HGW-523", rows[1][3])
	assert.Equal(t, "r2.jpg", rows[2][len(rows[2])-1])
}

func TestExportXLSXNormalizesWindow(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	from := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	_, err := svc.ExportXLSX(context.Background(), &from, nil)
	require.NoError(t, err)

	// From is truncated to midnight and a missing To defaults to today.
	require.NotNil(t, repo.lastFrom)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *repo.lastFrom)
	require.NotNil(t, repo.lastTo)
	assert.Equal(t, 0, repo.lastTo.Hour())
}
