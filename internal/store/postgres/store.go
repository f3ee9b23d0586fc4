// Package postgres stores vehicles and inspections in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/inspections/internal/config"
	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/store"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	seq                        BIGSERIAL,
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
	seq               BIGSERIAL,
	inspection_id     TEXT PRIMARY KEY,
	vehicle_id        BIGINT NOT NULL,
	door_no           TEXT NOT NULL DEFAULT '',
	plate_no          TEXT NOT NULL DEFAULT '',
	inspection_date   TEXT NOT NULL DEFAULT '',
	inspector_name    TEXT NOT NULL DEFAULT '',
	inspector_id      TEXT NOT NULL DEFAULT '',
	supervisor_name   TEXT NOT NULL DEFAULT '',
	supervisor_id     TEXT NOT NULL DEFAULT '',
	vehicle_condition JSONB,
	safety_equipment  JSONB,
	overall_status    TEXT NOT NULL DEFAULT '',
	issues_found      INTEGER NOT NULL DEFAULT 0,
	action_required   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS inspections_vehicle_id_idx ON inspections (vehicle_id);
`

// Connect opens a pool for cfg and checks that the server answers.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("connected to database", "name", poolConfig.ConnConfig.Database)
	return pool, nil
}

// Store implements core.Store on a pgx pool. Listing order is insertion
// order, kept by the seq column.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store using pool. Call Migrate before first use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Empty reports whether the store holds no vehicles and no inspections.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM vehicles) + (SELECT COUNT(*) FROM inspections)`,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count records: %w", err)
	}
	return n == 0, nil
}

var (
	vehicleSelect    = `SELECT ` + strings.Join(store.VehicleColumns, ", ") + ` FROM vehicles`
	inspectionSelect = `SELECT ` + strings.Join(store.InspectionColumns, ", ") + ` FROM inspections ORDER BY seq`
	vehicleInsert    = insertSQL("vehicles", store.VehicleColumns)
	inspectionInsert = insertSQL("inspections", store.InspectionColumns)
)

func insertSQL(table string, cols []string) string {
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(params, ", "))
}

func (s *Store) Vehicles(ctx context.Context) ([]core.Vehicle, error) {
	return queryVehicles(ctx, s.pool)
}

func (s *Store) Inspections(ctx context.Context) ([]core.Inspection, error) {
	return queryInspections(ctx, s.pool)
}

func queryVehicles(ctx context.Context, db DBTX) ([]core.Vehicle, error) {
	rows, err := db.Query(ctx, vehicleSelect+` ORDER BY seq`)
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

func queryInspections(ctx context.Context, db DBTX) ([]core.Inspection, error) {
	rows, err := db.Query(ctx, inspectionSelect)
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
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if v.ID == 0 {
		// Serialise id assignment against other writers.
		if _, err := tx.Exec(ctx, `LOCK TABLE vehicles IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return core.Vehicle{}, fmt.Errorf("lock vehicles: %w", err)
		}
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM vehicles`).Scan(&v.ID); err != nil {
			return core.Vehicle{}, fmt.Errorf("next vehicle id: %w", err)
		}
	}

	if err := insertVehicle(ctx, tx, v); err != nil {
		return core.Vehicle{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return core.Vehicle{}, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

func insertVehicle(ctx context.Context, db DBTX, v core.Vehicle) error {
	if _, err := db.Exec(ctx, vehicleInsert, store.VehicleArgs(v)...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("vehicle %d: %w", v.ID, core.ErrDuplicateVehicleID)
		}
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (s *Store) UpdateVehicle(ctx context.Context, id int64, patch core.VehiclePatch) (core.Vehicle, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	v, err := scanVehicle(tx.QueryRow(ctx, vehicleSelect+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Vehicle{}, fmt.Errorf("vehicle %d: %w", id, core.ErrVehicleNotFound)
	}
	if err != nil {
		return core.Vehicle{}, err
	}

	patch.Apply(&v)

	cols := store.VehicleColumns[1:]
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+2)
	}
	query := `UPDATE vehicles SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	if _, err := tx.Exec(ctx, query, store.VehicleArgs(v)...); err != nil {
		return core.Vehicle{}, fmt.Errorf("update vehicle %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return core.Vehicle{}, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %d: %w", id, core.ErrVehicleNotFound)
	}
	return nil
}

func (s *Store) AddInspection(ctx context.Context, in core.Inspection) (core.Inspection, error) {
	args, err := store.InspectionArgs(in)
	if err != nil {
		return core.Inspection{}, err
	}
	if _, err := s.pool.Exec(ctx, inspectionInsert, args...); err != nil {
		if isUniqueViolation(err) {
			return core.Inspection{}, fmt.Errorf("inspection %s: %w", in.InspectionID, core.ErrDuplicateInspection)
		}
		return core.Inspection{}, fmt.Errorf("insert inspection: %w", err)
	}
	return in, nil
}

// Replace swaps every record for snap in one transaction. Records are
// bulk-loaded with COPY in snapshot order.
func (s *Store) Replace(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE vehicles, inspections RESTART IDENTITY`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	vehicleRows := make([][]any, len(snap.Vehicles))
	for i, v := range snap.Vehicles {
		vehicleRows[i] = store.VehicleArgs(v)
	}
	if err := copyRows(ctx, tx, "vehicles", store.VehicleColumns, vehicleRows); err != nil {
		return err
	}

	inspectionRows := make([][]any, len(snap.Inspections))
	for i, in := range snap.Inspections {
		args, err := store.InspectionArgs(in)
		if err != nil {
			return err
		}
		inspectionRows[i] = args
	}
	if err := copyRows(ctx, tx, "inspections", store.InspectionColumns, inspectionRows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("copy %s: duplicate key in snapshot: %w", table, err)
		}
		return fmt.Errorf("copy %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy %s: wrote %d of %d rows", table, n, len(rows))
	}
	return nil
}

func scanVehicle(row pgx.Row) (core.Vehicle, error) {
	var (
		v    core.Vehicle
		size string
	)
	if err := row.Scan(store.VehicleDest(&v, &size)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Vehicle{}, err
		}
		return core.Vehicle{}, fmt.Errorf("scan vehicle: %w", err)
	}
	v.VehicleSize = core.VehicleSize(size)
	return v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ core.Store = (*Store)(nil)
