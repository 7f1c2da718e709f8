// Package report renders estimation results into downloadable report files.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autofix-api/internal/model"
)

// FileRenderer writes plain-text reports into a directory. The text format
// keeps reports greppable and lets the retrieval corpus index them directly.
type FileRenderer struct {
	dir    string
	logger *slog.Logger
}

// NewFileRenderer creates the renderer and ensures the reports directory
// exists.
func NewFileRenderer(dir string, logger *slog.Logger) (*FileRenderer, error) {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &FileRenderer{dir: dir, logger: logger}, nil
}

// Dir returns the reports directory
func (r *FileRenderer) Dir() string { return r.dir }

// Render writes the report file and fills the record's FileName, FilePath
// and CreatedAt fields.
func (r *FileRenderer) Render(ctx context.Context, rec *model.ReportRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ReportID == "" {
		return fmt.Errorf("report record has no ID")
	}

	now := time.Now()
	rec.FileName = rec.ReportID + ".txt"
	rec.FilePath = filepath.Join(r.dir, rec.FileName)
	rec.CreatedAt = now

	if err := os.WriteFile(rec.FilePath, []byte(renderText(rec, now)), 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	r.logger.Debug("report rendered", "report_id", rec.ReportID, "file", rec.FileName)
	return nil
}

func renderText(rec *model.ReportRecord, now time.Time) string {
	var b strings.Builder

	b.WriteString("VEHICLE DAMAGE ASSESSMENT REPORT\n")
	b.WriteString("================================\n\n")
	fmt.Fprintf(&b, "Report ID: %s\n", rec.ReportID)
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format(time.RFC1123))

	fmt.Fprintf(&b, "Vehicle: %d %s %s\n\n", rec.CarInfo.Year, rec.CarInfo.Name, rec.CarInfo.Model)

	if len(rec.DetectedParts) > 0 {
		b.WriteString("Detected damage:\n")
		for _, p := range rec.DetectedParts {
			if p.Confidence > 0 {
				fmt.Fprintf(&b, "  - %s (confidence %.0f%%)\n", p.Name, p.Confidence*100)
			} else {
				fmt.Fprintf(&b, "  - %s\n", p.Name)
			}
		}
		b.WriteString("\n")
	}

	if len(rec.CostBreakdown) > 0 {
		b.WriteString("Cost breakdown (INR):\n")
		for _, e := range rec.CostBreakdown {
			fmt.Fprintf(&b, "  %-20s %10.0f\n", e.Part, e.Cost)
		}
		fmt.Fprintf(&b, "  %-20s %10.0f\n\n", "TOTAL", rec.TotalCost)
	}

	if rec.OriginalImage != "" {
		fmt.Fprintf(&b, "Source image: %s\n\n", rec.OriginalImage)
	}

	b.WriteString("This estimate is indicative. Actual costs depend on the workshop,\n")
	b.WriteString("part availability and the final damage inspection.\n")

	return b.String()
}
