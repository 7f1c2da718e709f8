// Package corpus maintains the small document set the chat flow retrieves
// from: a seeded pricing summary plus the text reports written by past
// estimations. Retrieval is plain keyword overlap, good enough to ground a
// model prompt or a local fallback answer.
package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"autofix-api/internal/matching"
	"autofix-api/internal/model"
	"autofix-api/internal/pricing"
)

const maxDocumentBytes = 64 * 1024

// Document is one retrievable text unit
type Document struct {
	ID     string
	Source string
	Text   string
}

// Store holds the in-memory corpus. Reads and reindexing may run
// concurrently.
type Store struct {
	reportsDir string
	logger     *slog.Logger

	mu   sync.RWMutex
	docs map[string]Document

	stop chan struct{}
	done chan struct{}
}

// NewStore creates a corpus over the reports directory, seeded with a
// summary of the baseline pricing table so retrieval always has at least one
// document to draw from.
func NewStore(reportsDir string, table *pricing.Table, logger *slog.Logger) *Store {
	s := &Store{
		reportsDir: reportsDir,
		logger:     logger,
		docs:       make(map[string]Document),
	}
	s.seed(table)
	return s
}

// seed installs the static pricing summary document
func (s *Store) seed(table *pricing.Table) {
	if table == nil {
		return
	}

	names := make([]string, 0, len(table.Parts))
	for name := range table.Parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Baseline repair cost reference, currency %s, version %s.\n", table.Currency, table.Version)
	for _, name := range names {
		rec := table.Parts[name]
		fmt.Fprintf(&b, "Replacing a %s typically costs between %.0f and %.0f, averaging %.0f. ", name, rec.Min, rec.Max, rec.Avg)
		fmt.Fprintf(&b, "Aftermarket %s parts cost around %.0f while OEM parts cost around %.0f.\n", name, rec.Aftermarket, rec.OEM)
	}

	s.docs["baseline-summary"] = Document{
		ID:     "baseline-summary",
		Source: "baseline pricing table",
		Text:   b.String(),
	}
}

// Reindex scans the reports directory and upserts every readable text report.
// It is idempotent: unchanged files simply overwrite themselves.
func (s *Store) Reindex() error {
	if s.reportsDir == "" {
		return nil
	}

	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan reports directory: %w", err)
	}

	indexed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		path := filepath.Join(s.reportsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable report", "file", entry.Name(), "error", err)
			continue
		}
		if len(data) > maxDocumentBytes {
			data = data[:maxDocumentBytes]
		}

		id := strings.TrimSuffix(entry.Name(), ".txt")
		s.mu.Lock()
		s.docs[id] = Document{ID: id, Source: entry.Name(), Text: string(data)}
		s.mu.Unlock()
		indexed++
	}

	s.logger.Debug("corpus reindexed", "reports", indexed, "documents", s.Len())
	return nil
}

// Upsert adds or replaces a single document, used right after a report is
// rendered so chat can see it without waiting for the next reindex.
func (s *Store) Upsert(doc Document) {
	if doc.ID == "" {
		return
	}
	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
}

// Len returns the number of indexed documents
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// TopK returns the documents whose text overlaps the question words the
// most, best first. Documents with no overlap are omitted.
func (s *Store) TopK(question string, k int) []model.RetrievedDoc {
	words := matching.Tokenize(question)
	if len(words) == 0 || k <= 0 {
		return nil
	}

	s.mu.RLock()
	scored := make([]model.RetrievedDoc, 0, len(s.docs))
	for _, doc := range s.docs {
		low := matching.Normalize(doc.Text)
		score := 0
		for _, w := range words {
			if strings.Contains(low, w) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, model.RetrievedDoc{
				ID:     doc.ID,
				Source: doc.Source,
				Text:   doc.Text,
				Score:  score,
			})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// StartReindexer launches the background refresh loop. Call Stop during
// shutdown.
func (s *Store) StartReindexer(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Reindex(); err != nil {
					s.logger.Warn("background reindex failed", "error", err)
				}
			case <-s.stop:
				return
			}
		}
	}()

	s.logger.Info("corpus reindexer started", "interval", interval)
}

// Stop terminates the background refresh loop and waits for it to exit
func (s *Store) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}
