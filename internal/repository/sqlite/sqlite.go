package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"switchscan/internal/domain"
	"switchscan/internal/repository"

	_ "modernc.org/sqlite"
)

var _ repository.ReportStore = (*Repository)(nil)

// Repository implements repository.ReportStore using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the report database at dbPath. ":memory:" gives a
// private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		ip TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		mac TEXT NOT NULL,
		vendor TEXT NOT NULL,
		open_ports TEXT NOT NULL,
		snmp_model TEXT NOT NULL,
		type TEXT NOT NULL,
		subnet TEXT,
		ssh_host_key TEXT
	);

	CREATE TABLE IF NOT EXISTS subnets (
		subnet TEXT PRIMARY KEY,
		octet INTEGER NOT NULL,
		discovered INTEGER NOT NULL DEFAULT 0,
		excluded INTEGER NOT NULL DEFAULT 0,
		dropped INTEGER NOT NULL DEFAULT 0,
		reported INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		interrupted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_devices_position ON devices(position);
	CREATE INDEX IF NOT EXISTS idx_devices_type ON devices(type);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveReport replaces the stored report with run, subnets and records
func (r *Repository) SaveReport(ctx context.Context, run domain.ScanRun, subnets []domain.SubnetSummary, records []domain.DeviceRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"devices", "subnets", "metadata"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	deviceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO devices (ip, position, mac, vendor, open_ports, snmp_model, type, subnet, ssh_host_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare device statement: %w", err)
	}
	defer deviceStmt.Close()

	for i, record := range records {
		if _, err := deviceStmt.ExecContext(ctx, deviceInsertArgs(i, record)...); err != nil {
			return fmt.Errorf("failed to insert device %s: %w", record.IP, err)
		}
	}

	subnetStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subnets (subnet, octet, discovered, excluded, dropped, reported, duration_ms, error, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare subnet statement: %w", err)
	}
	defer subnetStmt.Close()

	for _, s := range subnets {
		if _, err := subnetStmt.ExecContext(ctx, subnetInsertArgs(s)...); err != nil {
			return fmt.Errorf("failed to insert subnet %s: %w", s.Subnet, err)
		}
	}

	meta := map[string]string{
		"prefix":      run.Prefix,
		"range":       run.Range,
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at": run.FinishedAt.UTC().Format(time.RFC3339Nano),
		"complete":    boolString(run.Complete),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		`, key, value); err != nil {
			return fmt.Errorf("failed to store metadata %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Run returns the stored run metadata, or nil when no report was saved
func (r *Repository) Run(ctx context.Context) (*domain.ScanRun, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(meta) == 0 {
		return nil, nil
	}

	run := &domain.ScanRun{
		Prefix:   meta["prefix"],
		Range:    meta["range"],
		Complete: meta["complete"] == "true",
	}
	if run.StartedAt, err = parseTime(meta["started_at"]); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(meta["finished_at"]); err != nil {
		return nil, err
	}

	return run, nil
}

// Devices returns the stored records in report order
func (r *Repository) Devices(ctx context.Context) ([]domain.DeviceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ip, mac, vendor, open_ports, snmp_model, type, subnet, ssh_host_key
		FROM devices
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var records []domain.DeviceRecord
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		records = append(records, row.toDomain())
	}

	return records, rows.Err()
}

// Subnets returns the stored subnet summaries by ascending octet
func (r *Repository) Subnets(ctx context.Context) ([]domain.SubnetSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subnet, octet, discovered, excluded, dropped, reported, duration_ms, error, interrupted
		FROM subnets
		ORDER BY octet
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subnets: %w", err)
	}
	defer rows.Close()

	var subnets []domain.SubnetSummary
	for rows.Next() {
		var row subnetRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan subnet: %w", err)
		}
		subnets = append(subnets, row.toDomain())
	}

	return subnets, rows.Err()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

var errBadTimestamp = errors.New("invalid timestamp in metadata")

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errBadTimestamp, s)
	}
	return t, nil
}
