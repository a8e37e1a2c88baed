// Package store persists the exchange's append-only record stream.
//
// Every session, participant, order, trade, and lifecycle event is appended
// as one JSON line to a per-process log file. Appends are mutex-guarded and
// O_APPEND so a crash can lose at most the line being written. An optional
// Remote sink ships the same records to an HTTP collector.
//
// The engine never blocks on a sink: records are drained from a queue
// outside its critical section, and sinks are opaque to its correctness.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pantry-exchange/pkg/types"
)

// Sink accepts persisted records. Implementations must be safe for use from
// a single drain goroutine.
type Sink interface {
	Append(rec types.Record) error
	Close() error
}

// Log appends records as JSON lines to a file under dir.
type Log struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenLog creates the data directory if needed and opens a fresh log file
// named after the process start time.
func OpenLog(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	name := "records-" + time.Now().UTC().Format("20060102-150405") + ".jsonl"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open record log: %w", err)
	}
	return &Log{f: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one record as a JSON line.
func (l *Log) Append(rec types.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.enc.Encode(rec); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// multi fans one record out to several sinks.
type multi []Sink

// Fan combines sinks; Append delivers to every sink and joins their errors.
func Fan(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Append(rec types.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard swallows all records. Used in tests and when persistence is
// disabled.
type Discard struct{}

func (Discard) Append(types.Record) error { return nil }
func (Discard) Close() error              { return nil }
