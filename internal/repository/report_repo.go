// Package repository provides Postgres persistence for report records.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autofix-api/internal/model"
)

// ErrNotFound is returned when no report matches the given ID
var ErrNotFound = errors.New("report not found")

// ReportRepository stores report metadata in Postgres
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create persists one report record
func (r *ReportRepository) Create(ctx context.Context, rec *model.ReportRecord) error {
	detectedParts, err := json.Marshal(rec.DetectedParts)
	if err != nil {
		return fmt.Errorf("failed to marshal detected parts: %w", err)
	}
	costBreakdown, err := json.Marshal(rec.CostBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal cost breakdown: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO reports (
			report_id, file_name, file_path,
			car_name, car_model, car_year,
			detected_parts, cost_breakdown, total_cost,
			original_image, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		rec.ReportID, rec.FileName, rec.FilePath,
		rec.CarInfo.Name, rec.CarInfo.Model, rec.CarInfo.Year,
		detectedParts, costBreakdown, rec.TotalCost,
		nullableString(rec.OriginalImage), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// List returns the most recent reports, newest first
func (r *ReportRepository) List(ctx context.Context, limit int) ([]model.ReportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT report_id, file_name, file_path,
		       car_name, car_model, car_year,
		       detected_parts, cost_breakdown, total_cost,
		       COALESCE(original_image, ''), download_count, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []model.ReportRecord
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// GetByID returns one report or ErrNotFound
func (r *ReportRepository) GetByID(ctx context.Context, reportID string) (*model.ReportRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT report_id, file_name, file_path,
		       car_name, car_model, car_year,
		       detected_parts, cost_breakdown, total_cost,
		       COALESCE(original_image, ''), download_count, created_at
		FROM reports
		WHERE report_id = $1
	`, reportID)

	rec, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// IncrementDownload bumps the download counter for a report
func (r *ReportRepository) IncrementDownload(ctx context.Context, reportID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET download_count = download_count + 1
		WHERE report_id = $1
	`, reportID)
	if err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a report record
func (r *ReportRepository) Delete(ctx context.Context, reportID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE report_id = $1`, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanReport reads one row into a record, decoding the JSONB columns
func scanReport(row pgx.Row) (model.ReportRecord, error) {
	var rec model.ReportRecord
	var detectedParts, costBreakdown []byte

	err := row.Scan(
		&rec.ReportID, &rec.FileName, &rec.FilePath,
		&rec.CarInfo.Name, &rec.CarInfo.Model, &rec.CarInfo.Year,
		&detectedParts, &costBreakdown, &rec.TotalCost,
		&rec.OriginalImage, &rec.DownloadCount, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, pgx.ErrNoRows
		}
		return rec, fmt.Errorf("failed to scan report: %w", err)
	}

	if err := json.Unmarshal(detectedParts, &rec.DetectedParts); err != nil {
		return rec, fmt.Errorf("failed to decode detected parts: %w", err)
	}
	if err := json.Unmarshal(costBreakdown, &rec.CostBreakdown); err != nil {
		return rec, fmt.Errorf("failed to decode cost breakdown: %w", err)
	}

	rec.DownloadURL = "/api/history/download/" + rec.ReportID
	return rec, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
