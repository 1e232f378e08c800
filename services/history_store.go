package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"devicetracker/models"
)

//go:generate mockgen -destination=mock_services.go -package=services devicetracker/services HistoryStore,Geolocator

// HistoryStore is the durable, append-only log of every accepted report.
type HistoryStore interface {
	// Append inserts one row. Failures wrap ErrWriteFailed.
	Append(ctx context.Context, report models.DeviceReport) error
	// QueryAll returns every row, newest first. An empty store yields an
	// empty slice. Unreachable or uninitialised stores return ErrStoreUnavailable.
	QueryAll(ctx context.Context) ([]models.HistoryRow, error)
	Count(ctx context.Context) (int, error)
	Available() bool
	Close() error
}

type sqlHistoryStore struct {
	db SQLExecutor

	insertQuery string
	selectQuery string
	countQuery  string
}

// NewSQLHistoryStore returns a HistoryStore backed by db. The schema must
// already exist (see database.EnsureSchema).
func NewSQLHistoryStore(db SQLExecutor) HistoryStore {
	q := func(name string) string { return quoteIdent(db.Dialect(), name) }
	cols := strings.Join([]string{
		q("deviceId"), q("label"), q("publicIP"), q("clientLat"), q("clientLon"), q("reportedAt"),
	}, ", ")

	return &sqlHistoryStore{
		db:          db,
		insertQuery: "INSERT INTO devices (" + cols + ") VALUES (?, ?, ?, ?, ?, ?)",
		selectQuery: "SELECT id, " + cols + " FROM devices ORDER BY " + q("reportedAt") + " DESC, id DESC",
		countQuery:  "SELECT COUNT(*) FROM devices",
	}
}

func (s *sqlHistoryStore) Append(ctx context.Context, report models.DeviceReport) error {
	var publicIP any
	if report.PublicIP != "" {
		publicIP = report.PublicIP
	}

	_, err := s.db.ExecContext(ctx, s.insertQuery,
		report.DeviceID,
		nullableString(report.Label),
		publicIP,
		nullableFloat(report.ClientLat),
		nullableFloat(report.ClientLon),
		report.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func (s *sqlHistoryStore) QueryAll(ctx context.Context) ([]models.HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx, s.selectQuery)
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	defer rows.Close()

	out := make([]models.HistoryRow, 0)
	for rows.Next() {
		var (
			row       models.HistoryRow
			deviceID  sql.NullString
			label     sql.NullString
			publicIP  sql.NullString
			lat, lon  sql.NullFloat64
			reportedA sql.NullString
		)
		if err := rows.Scan(&row.ID, &deviceID, &label, &publicIP, &lat, &lon, &reportedA); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		row.DeviceID = deviceID.String
		row.Label = stringPtr(label)
		row.PublicIP = stringPtr(publicIP)
		row.ClientLat = floatPtr(lat)
		row.ClientLon = floatPtr(lon)
		row.ReportedAt = reportedA.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(ctx, err)
	}
	return out, nil
}

func (s *sqlHistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.countQuery).Scan(&n); err != nil {
		return 0, s.classify(ctx, err)
	}
	return n, nil
}

func (s *sqlHistoryStore) Available() bool { return true }

func (s *sqlHistoryStore) Close() error { return s.db.Close() }

// classify separates "engine unreachable" from "query rejected" by pinging.
func (s *sqlHistoryStore) classify(ctx context.Context, err error) error {
	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if pingErr := s.db.PingContext(pingCtx); pingErr != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, errors.Join(err, pingErr))
	}
	return fmt.Errorf("%w: %v", ErrQueryFailed, err)
}

// unavailableStore is the degraded-mode HistoryStore used when the engine
// could not be initialised at startup.
type unavailableStore struct {
	cause error
}

// UnavailableHistoryStore returns a HistoryStore whose reads fail with
// ErrStoreUnavailable and whose writes fail with ErrWriteFailed.
func UnavailableHistoryStore(cause error) HistoryStore {
	return &unavailableStore{cause: cause}
}

func (u *unavailableStore) Append(context.Context, models.DeviceReport) error {
	return fmt.Errorf("%w: %w", ErrWriteFailed, u.err())
}

func (u *unavailableStore) QueryAll(context.Context) ([]models.HistoryRow, error) {
	return nil, u.err()
}

func (u *unavailableStore) Count(context.Context) (int, error) {
	return 0, u.err()
}

func (u *unavailableStore) Available() bool { return false }

func (u *unavailableStore) Close() error { return nil }

func (u *unavailableStore) err() error {
	if u.cause == nil {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, u.cause)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}
