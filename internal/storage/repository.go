package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bills/internal/core"
	"bills/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteRepository)(nil)

// SQLiteRepository stores bills and the bill event audit trail in one SQLite file.
// Dates are stored as Unix nanoseconds and read back in loc.
type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

// AuditEvent is one recorded bill change.
type AuditEvent struct {
	EventID    string
	Kind       string
	BillID     string
	Payload    []byte
	OccurredAt time.Time
}

func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, loc: loc}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const billColumns = "id, place, date_unix, label, price_cents, note"

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM bills ORDER BY date_unix DESC, seq ASC")
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", id)
	b, err := r.scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	return b, err
}

// Append inserts all bills in one transaction.
func (r *SQLiteRepository) Append(ctx context.Context, bills ...core.Bill) error {
	for _, b := range bills {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range bills {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			b.ID, b.Place, b.Date.UnixNano(), string(b.Label), b.Price.Cents, b.Note)
		if err != nil {
			return fmt.Errorf("insert bill %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bills: %w", err)
	}

	slog.DebugContext(ctx, "Bills saved to SQLite", "count", len(bills))
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET place = ?, date_unix = ?, label = ?, price_cents = ?, note = ?,
		        updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?`,
		b.Place, b.Date.UnixNano(), string(b.Label), b.Price.Cents, b.Note, b.ID)
	if err != nil {
		return fmt.Errorf("update bill %s: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bill %s: %w", b.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", b.ID, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) (core.Bill, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Bill{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := r.scanBill(tx.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", id); err != nil {
		return core.Bill{}, fmt.Errorf("delete bill %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Bill{}, fmt.Errorf("commit delete: %w", err)
	}
	return b, nil
}

// Count returns the number of stored bills.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bills").Scan(&n); err != nil {
		return 0, fmt.Errorf("count bills: %w", err)
	}
	return n, nil
}

// SeedIfEmpty appends bills only when the table has no rows yet.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, bills []core.Bill) (bool, error) {
	if len(bills) == 0 {
		return false, nil
	}
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := r.Append(ctx, bills...); err != nil {
		return false, fmt.Errorf("seed bills: %w", err)
	}
	return true, nil
}

// RecordEvent appends e to the audit trail. Redelivered events with a known
// EventID are ignored and reported as not inserted.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, e AuditEvent) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bill_events (event_id, kind, bill_id, payload, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.EventID, e.Kind, e.BillID, string(e.Payload), e.OccurredAt.UnixNano())
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", e.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", e.EventID, err)
	}
	return n > 0, nil
}

// Events returns the audit trail of one bill, oldest first.
func (r *SQLiteRepository) Events(ctx context.Context, billID string) ([]AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, kind, bill_id, payload, occurred_at
		   FROM bill_events WHERE bill_id = ? ORDER BY seq ASC`, billID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []AuditEvent
	for rows.Next() {
		var (
			e        AuditEvent
			payload  string
			occurred int64
		)
		if err := rows.Scan(&e.EventID, &e.Kind, &e.BillID, &payload, &occurred); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = []byte(payload)
		e.OccurredAt = time.Unix(0, occurred).In(r.loc)
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanBill(s scanner) (core.Bill, error) {
	var (
		b     core.Bill
		date  int64
		label string
		cents int64
	)
	if err := s.Scan(&b.ID, &b.Place, &date, &label, &cents, &b.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Bill{}, err
		}
		return core.Bill{}, fmt.Errorf("scan bill: %w", err)
	}
	b.Date = time.Unix(0, date).In(r.loc)
	b.Label = core.Label(label)
	b.Price = core.Money{Cents: cents}
	return b, nil
}
