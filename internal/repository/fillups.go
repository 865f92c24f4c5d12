package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmarulanda/fuelscan/internal/common"
	"github.com/dmarulanda/fuelscan/internal/entity"
)

// FillUpRepository stores and queries processed fill-up records.
type FillUpRepository interface {
	Save(ctx context.Context, rec *entity.FillUp) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.FillUp, error)
	List(ctx context.Context, from, to *time.Time) ([]*entity.FillUp, error)
}

type SQLFillUpRepository struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

func NewFillUpRepository(db *sql.DB, driver string, logger *slog.Logger) *SQLFillUpRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLFillUpRepository{db: db, driver: driver, logger: logger}
}

const fillUpSchema = `
CREATE TABLE IF NOT EXISTS fill_ups (
	id             TEXT PRIMARY KEY,
	filename       TEXT NOT NULL,
	station_name   TEXT,
	total          DOUBLE PRECISION,
	plate          TEXT,
	fill_up_date   TEXT,
	gallons        DOUBLE PRECISION,
	odometer       BIGINT,
	voucher_number TEXT,
	tax_id         TEXT,
	fuel_type      TEXT,
	confidence     TEXT NOT NULL,
	processed_at   TEXT NOT NULL
)`

// EnsureSchema creates the fill_ups table when missing. Dates are stored as
// RFC 3339 text so the same statements work on both drivers.
func (r *SQLFillUpRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fillUpSchema); err != nil {
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("ensure schema: %v", err))
	}
	return nil
}

func (r *SQLFillUpRepository) Save(ctx context.Context, rec *entity.FillUp) error {
	confJSON, err := json.Marshal(rec.Confidence)
	if err != nil {
		return fmt.Errorf("marshal confidence: %w", err)
	}

	q := rebind(r.driver, `
INSERT INTO fill_ups (
	id, filename, station_name, total, plate, fill_up_date, gallons,
	odometer, voucher_number, tax_id, fuel_type, confidence, processed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, q,
		rec.ID.String(),
		rec.Filename,
		rec.StationName,
		rec.Total,
		rec.Plate,
		timePtrToText(rec.FillUpDate),
		rec.Gallons,
		odometerToInt64(rec.Odometer),
		rec.VoucherNumber,
		rec.TaxID,
		rec.FuelType,
		string(confJSON),
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("repository.fillups.save_failed", "id", rec.ID.String(), "error", err)
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("insert fill_up: %v", err))
	}
	r.logger.Debug("repository.fillups.saved", "id", rec.ID.String(), "filename", rec.Filename)
	return nil
}

func (r *SQLFillUpRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.FillUp, error) {
	q := rebind(r.driver, selectColumns+` FROM fill_ups WHERE id = ?`)
	rec, err := scanFillUp(r.db.QueryRowContext(ctx, q, id.String()))
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("get fill_up: %v", err))
	}
	return rec, nil
}

// List returns records whose fill-up date falls inside the given window.
// Records without a date are included only when no window is given. Bounds
// are inclusive; either side may be nil.
func (r *SQLFillUpRepository) List(ctx context.Context, from, to *time.Time) ([]*entity.FillUp, error) {
	q := selectColumns + ` FROM fill_ups`
	var args []any
	switch {
	case from != nil && to != nil:
		q += ` WHERE fill_up_date >= ? AND fill_up_date <= ?`
		args = append(args, from.UTC().Format(time.RFC3339Nano), endOfDay(*to))
	case from != nil:
		q += ` WHERE fill_up_date >= ?`
		args = append(args, from.UTC().Format(time.RFC3339Nano))
	case to != nil:
		q += ` WHERE fill_up_date <= ?`
		args = append(args, endOfDay(*to))
	}
	q += ` ORDER BY processed_at DESC`

	rows, err := r.db.QueryContext(ctx, rebind(r.driver, q), args...)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list fill_ups: %v", err))
	}
	defer rows.Close()

	var out []*entity.FillUp
	for rows.Next() {
		rec, err := scanFillUp(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("scan fill_up: %v", err))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list fill_ups: %v", err))
	}
	return out, nil
}

const selectColumns = `
SELECT id, filename, station_name, total, plate, fill_up_date, gallons,
	odometer, voucher_number, tax_id, fuel_type, confidence, processed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFillUp(row rowScanner) (*entity.FillUp, error) {
	var (
		rec       entity.FillUp
		idText    string
		station   sql.NullString
		total     sql.NullFloat64
		plate     sql.NullString
		dateText  sql.NullString
		gallons   sql.NullFloat64
		odometer  sql.NullInt64
		voucher   sql.NullString
		taxID     sql.NullString
		fuelType  sql.NullString
		confJSON  string
		processed string
	)
	err := row.Scan(&idText, &rec.Filename, &station, &total, &plate, &dateText,
		&gallons, &odometer, &voucher, &taxID, &fuelType, &confJSON, &processed)
	if err != nil {
		return nil, err
	}

	rec.ID, err = uuid.Parse(idText)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", idText, err)
	}
	if station.Valid {
		rec.StationName = &station.String
	}
	if total.Valid {
		rec.Total = &total.Float64
	}
	if plate.Valid {
		rec.Plate = &plate.String
	}
	if dateText.Valid && dateText.String != "" {
		d, err := time.Parse(time.RFC3339Nano, dateText.String)
		if err != nil {
			return nil, fmt.Errorf("parse fill_up_date %q: %w", dateText.String, err)
		}
		rec.FillUpDate = &d
	}
	if gallons.Valid {
		rec.Gallons = &gallons.Float64
	}
	if odometer.Valid {
		v := int(odometer.Int64)
		rec.Odometer = &v
	}
	if voucher.Valid {
		rec.VoucherNumber = &voucher.String
	}
	if taxID.Valid {
		rec.TaxID = &taxID.String
	}
	if fuelType.Valid {
		rec.FuelType = &fuelType.String
	}
	if err := json.Unmarshal([]byte(confJSON), &rec.Confidence); err != nil {
		return nil, fmt.Errorf("unmarshal confidence: %w", err)
	}
	rec.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed)
	if err != nil {
		return nil, fmt.Errorf("parse processed_at %q: %w", processed, err)
	}
	return &rec, nil
}

func timePtrToText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func odometerToInt64(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func endOfDay(t time.Time) string {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC).
		Format(time.RFC3339Nano)
}
