package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations executes all database migrations
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			id SERIAL PRIMARY KEY,
			report_id VARCHAR(64) NOT NULL UNIQUE,
			file_name VARCHAR(255) NOT NULL,
			file_path TEXT NOT NULL,
			car_name VARCHAR(100) NOT NULL,
			car_model VARCHAR(100) NOT NULL,
			car_year INTEGER NOT NULL,
			detected_parts JSONB NOT NULL DEFAULT '[]',
			cost_breakdown JSONB NOT NULL DEFAULT '[]',
			total_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
			original_image TEXT,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_reports_created_at
		ON reports(created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create idx_reports_created_at: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_reports_report_id
		ON reports(report_id)
	`)
	if err != nil {
		return fmt.Errorf("failed to create idx_reports_report_id: %w", err)
	}

	return nil
}
