package database

import (
	"context"
	"database/sql"
	"fmt"

	"devicetracker/config"
)

// schemaStatements returns the idempotent DDL for the devices table.
// Column names keep the camelCase used on the wire; PostgreSQL needs them quoted.
func schemaStatements(engine string) ([]string, error) {
	switch engine {
	case config.DriverMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS devices (
				id INT AUTO_INCREMENT PRIMARY KEY,
				deviceId VARCHAR(255),
				label VARCHAR(255),
				publicIP VARCHAR(50),
				clientLat DOUBLE,
				clientLon DOUBLE,
				reportedAt VARCHAR(40),
				INDEX idx_devices_reported_at (reportedAt)
			) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`,
		}, nil

	case config.DriverPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS devices (
				id BIGSERIAL PRIMARY KEY,
				"deviceId" TEXT,
				label TEXT,
				"publicIP" TEXT,
				"clientLat" DOUBLE PRECISION,
				"clientLon" DOUBLE PRECISION,
				"reportedAt" TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_devices_reported_at ON devices ("reportedAt")`,
		}, nil

	case config.DriverSQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS devices (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				deviceId TEXT,
				label TEXT,
				publicIP TEXT,
				clientLat REAL,
				clientLon REAL,
				reportedAt TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_devices_reported_at ON devices (reportedAt)`,
		}, nil
	}

	return nil, fmt.Errorf("no schema for driver %q", engine)
}

// EnsureSchema 테이블 생성 (여러 번 호출해도 안전)
func EnsureSchema(ctx context.Context, db *sql.DB, engine string) error {
	stmts, err := schemaStatements(engine)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute SQL: %w", err)
		}
	}
	return nil
}
