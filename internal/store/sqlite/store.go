// Package sqlite stores vehicles and inspections in a local SQLite file
// using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id                         BIGINT PRIMARY KEY,
	door_no                    TEXT NOT NULL DEFAULT '',
	plate_no                   TEXT NOT NULL DEFAULT '',
	division                   TEXT NOT NULL DEFAULT '',
	unit                       TEXT NOT NULL DEFAULT '',
	vehicle_type               TEXT NOT NULL DEFAULT '',
	vehicle_size               TEXT NOT NULL DEFAULT '',
	odometer                   BIGINT NOT NULL DEFAULT 0,
	inspection_sticker_mileage BIGINT NOT NULL DEFAULT 0,
	inspection_sticker_date    TEXT NOT NULL DEFAULT '',
	restricted_area_sticker    TEXT NOT NULL DEFAULT '',
	sticker_expiry_date        TEXT NOT NULL DEFAULT '',
	assigned_to                TEXT NOT NULL DEFAULT '',
	assigned_date              TEXT NOT NULL DEFAULT '',
	status                     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS inspections (
	inspection_id     TEXT PRIMARY KEY,
	vehicle_id        BIGINT NOT NULL,
	door_no           TEXT NOT NULL DEFAULT '',
	plate_no          TEXT NOT NULL DEFAULT '',
	inspection_date   TEXT NOT NULL DEFAULT '',
	inspector_name    TEXT NOT NULL DEFAULT '',
	inspector_id      TEXT NOT NULL DEFAULT '',
	supervisor_name   TEXT NOT NULL DEFAULT '',
	supervisor_id     TEXT NOT NULL DEFAULT '',
	vehicle_condition BLOB,
	safety_equipment  BLOB,
	overall_status    TEXT NOT NULL DEFAULT '',
	issues_found      INTEGER NOT NULL DEFAULT 0,
	action_required   BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS inspections_vehicle_id_idx ON inspections (vehicle_id);
`

// Store implements core.Store on a SQLite database. Rows are listed in rowid
// order, which is insertion order.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps writers serialised and the pragmas in effect.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Empty reports whether the store holds no vehicles and no inspections.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM vehicles) + (SELECT COUNT(*) FROM inspections)`,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count records: %w", err)
	}
	return n == 0, nil
}

// querier is the part of *sql.DB and *sql.Tx the store uses.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	vehicleSelect    = `SELECT ` + strings.Join(store.VehicleColumns, ", ") + ` FROM vehicles`
	inspectionSelect = `SELECT ` + strings.Join(store.InspectionColumns, ", ") + ` FROM inspections ORDER BY rowid`
	vehicleInsert    = insertSQL("vehicles", store.VehicleColumns)
	inspectionInsert = insertSQL("inspections", store.InspectionColumns)
	vehicleUpdate    = `UPDATE vehicles SET ` + strings.Join(store.VehicleColumns[1:], " = ?, ") + ` = ? WHERE id = ?`
)

func insertSQL(table string, cols []string) string {
	params := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), params)
}

func (s *Store) Vehicles(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, vehicleSelect+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []core.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *Store) Inspections(ctx context.Context) ([]core.Inspection, error) {
	rows, err := s.db.QueryContext(ctx, inspectionSelect)
	if err != nil {
		return nil, fmt.Errorf("query inspections: %w", err)
	}
	defer rows.Close()

	inspections := []core.Inspection{}
	for rows.Next() {
		var r store.InspectionRow
		if err := rows.Scan(r.Dest()...); err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		in, err := r.Decode()
		if err != nil {
			return nil, err
		}
		inspections = append(inspections, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read inspections: %w", err)
	}
	return inspections, nil
}

func (s *Store) AddVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if v.ID == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM vehicles`).Scan(&v.ID); err != nil {
			return core.Vehicle{}, fmt.Errorf("next vehicle id: %w", err)
		}
	}
	if err := insertVehicle(ctx, tx, v); err != nil {
		return core.Vehicle{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Vehicle{}, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

func insertVehicle(ctx context.Context, q querier, v core.Vehicle) error {
	if _, err := q.ExecContext(ctx, vehicleInsert, store.VehicleArgs(v)...); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("vehicle %d: %w", v.ID, core.ErrDuplicateVehicleID)
		}
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (s *Store) UpdateVehicle(ctx context.Context, id int64, patch core.VehiclePatch) (core.Vehicle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	v, err := scanVehicle(tx.QueryRowContext(ctx, vehicleSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Vehicle{}, fmt.Errorf("vehicle %d: %w", id, core.ErrVehicleNotFound)
	}
	if err != nil {
		return core.Vehicle{}, err
	}

	patch.Apply(&v)

	args := append(store.VehicleArgs(v)[1:], v.ID)
	if _, err := tx.ExecContext(ctx, vehicleUpdate, args...); err != nil {
		return core.Vehicle{}, fmt.Errorf("update vehicle %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return core.Vehicle{}, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("vehicle %d: %w", id, core.ErrVehicleNotFound)
	}
	return nil
}

func (s *Store) AddInspection(ctx context.Context, in core.Inspection) (core.Inspection, error) {
	if err := insertInspection(ctx, s.db, in); err != nil {
		return core.Inspection{}, err
	}
	return in, nil
}

func insertInspection(ctx context.Context, q querier, in core.Inspection) error {
	args, err := store.InspectionArgs(in)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, inspectionInsert, args...); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("inspection %s: %w", in.InspectionID, core.ErrDuplicateInspection)
		}
		return fmt.Errorf("insert inspection: %w", err)
	}
	return nil
}

// Replace swaps every record for snap in one transaction.
func (s *Store) Replace(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"vehicles", "inspections"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, v := range snap.Vehicles {
		if err := insertVehicle(ctx, tx, v); err != nil {
			return fmt.Errorf("replace: %w", err)
		}
	}
	for _, in := range snap.Inspections {
		if err := insertInspection(ctx, tx, in); err != nil {
			return fmt.Errorf("replace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanVehicle(row interface{ Scan(...any) error }) (core.Vehicle, error) {
	var (
		v    core.Vehicle
		size string
	)
	if err := row.Scan(store.VehicleDest(&v, &size)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Vehicle{}, err
		}
		return core.Vehicle{}, fmt.Errorf("scan vehicle: %w", err)
	}
	v.VehicleSize = core.VehicleSize(size)
	return v, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

var _ core.Store = (*Store)(nil)
