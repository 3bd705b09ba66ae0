// Package history adapts the teacher's async buffered audit writer into
// the redacted query-history log (spec.md §4.10): every executed
// statement, success or failure, appended after passing through the
// Vault's auto_redact.
package history

import (
	"context"
	"encoding/gob"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one entry in the query history.
type Record struct {
	ID           uuid.UUID
	Timestamp    time.Time
	Connection   string
	SQL          string // already passed through auto_redact
	RiskLevel    string
	Success      bool
	Error        string
	RowsAffected int64
	DurationMS   int64
}

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
	flushBatch    = 32
)

// Writer is an async, buffered query-history writer: entries are enqueued
// on a channel and flushed to disk by a background goroutine, exactly the
// shape of the teacher's audit.Writer but appending to a local file
// instead of a multi-tenant database.
type Writer struct {
	path    string
	logger  *slog.Logger
	entries chan Record
	wg      sync.WaitGroup

	mu      sync.Mutex
	records []Record
}

// NewWriter creates a history Writer backed by a gob-encoded file at path.
// Call Start to begin processing entries.
func NewWriter(path string, logger *slog.Logger) *Writer {
	w := &Writer{
		path:    path,
		logger:  logger,
		entries: make(chan Record, bufferSize),
	}
	w.load()
	return w
}

func (w *Writer) load() {
	f, err := os.Open(w.path)
	if err != nil {
		return
	}
	defer f.Close()
	var records []Record
	if err := gob.NewDecoder(f).Decode(&records); err == nil {
		w.records = records
	}
}

// Start begins the background goroutine that flushes history entries to
// disk. It returns once ctx is cancelled and all pending entries are
// flushed.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues a record for async writing. It never blocks the caller; if
// the buffer is full the entry is dropped and a warning is logged.
func (w *Writer) Log(r Record) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	select {
	case w.entries <- r:
	default:
		w.logger.Warn("history buffer full, dropping entry", "connection", r.Connection)
	}
}

// Recent returns the last n records, most recent last.
func (w *Writer) Recent(n int) []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n <= 0 || n > len(w.records) {
		n = len(w.records)
	}
	start := len(w.records) - n
	out := make([]Record, n)
	copy(out, w.records[start:])
	return out
}

func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.appendAndPersist(batch)
		batch = batch[:0]
	}

	for {
		select {
		case r, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, r)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case r, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, r)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *Writer) appendAndPersist(batch []Record) {
	w.mu.Lock()
	w.records = append(w.records, batch...)
	snapshot := append([]Record(nil), w.records...)
	w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o700); err != nil {
		w.logger.Error("creating history directory", "error", err)
		return
	}
	tmp := w.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		w.logger.Error("opening history temp file", "error", err)
		return
	}
	if err := gob.NewEncoder(f).Encode(snapshot); err != nil {
		f.Close()
		w.logger.Error("encoding history", "error", err)
		return
	}
	if err := f.Close(); err != nil {
		w.logger.Error("closing history temp file", "error", err)
		return
	}
	if err := os.Rename(tmp, w.path); err != nil {
		w.logger.Error("renaming history file into place", "error", err)
	}
}
