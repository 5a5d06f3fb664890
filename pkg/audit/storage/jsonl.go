package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"crucible-hq/crucible/pkg/audit"
)

// JSONLConfig contains configuration for the JSON Lines backend.
type JSONLConfig struct {
	// Path is the log file path.
	Path string

	// FileMode is used when the file is created.
	// Default: 0640
	FileMode os.FileMode
}

// DefaultJSONLConfig returns the default JSON Lines configuration.
func DefaultJSONLConfig() *JSONLConfig {
	return &JSONLConfig{
		Path:     "data/audit.jsonl",
		FileMode: 0o640,
	}
}

// appendFile is the subset of *os.File the store writes through.
type appendFile interface {
	io.Writer
	Sync() error
	Truncate(size int64) error
	Close() error
}

// JSONLStore implements audit.Store as an append-only JSON Lines file.
// Appends are serialized by a process-local mutex.
type JSONLStore struct {
	mu     sync.Mutex
	path   string
	file   appendFile
	size   int64
	nextID int64
	clock  *sequenceClock
	logger *slog.Logger
	closed bool

	// failed is set when a rollback could not restore the file; the store
	// refuses further appends.
	failed error
}

// NewJSONLStore opens (creating if needed) the log at config.Path, recovers
// the last event id and removes an incomplete trailing line left by a crash.
func NewJSONLStore(config *JSONLConfig) (*JSONLStore, error) {
	if config == nil {
		config = DefaultJSONLConfig()
	}
	mode := config.FileMode
	if mode == 0 {
		mode = 0o640
	}

	logger := slog.Default().With("component", "audit.storage.jsonl")

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, audit.NewStorageError("jsonl", "open", err)
		}
	}

	f, err := os.OpenFile(config.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, mode)
	if err != nil {
		return nil, audit.NewStorageError("jsonl", "open", err)
	}

	s := &JSONLStore{
		path:   config.Path,
		file:   f,
		nextID: 1,
		clock:  newSequenceClock(nil),
		logger: logger,
	}

	if err := s.recover(f); err != nil {
		f.Close()
		return nil, err
	}

	logger.Info("JSONL audit store opened",
		"path", config.Path,
		"events", s.nextID-1,
		"size_bytes", s.size,
	)
	return s, nil
}

// recover scans the existing file for the last id and creation time.
func (s *JSONLStore) recover(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return audit.NewStorageError("jsonl", "recover", err)
	}

	r := bufio.NewReader(io.NewSectionReader(f, 0, info.Size()))
	var (
		offset  int64
		lineNum int
	)
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				s.logger.Warn("discarding incomplete trailing record",
					"path", s.path,
					"offset", offset,
					"bytes", len(line),
				)
				if err := f.Truncate(offset); err != nil {
					return audit.NewStorageError("jsonl", "recover", err)
				}
				if err := f.Sync(); err != nil {
					return audit.NewStorageError("jsonl", "recover", err)
				}
			}
			break
		}
		if err != nil {
			return audit.NewStorageError("jsonl", "recover", err)
		}
		lineNum++

		var ev audit.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return audit.NewStorageError("jsonl", "recover",
				fmt.Errorf("corrupt record on line %d: %w", lineNum, err))
		}
		if ev.ID < s.nextID {
			return audit.NewStorageError("jsonl", "recover",
				fmt.Errorf("event id %d on line %d is not increasing", ev.ID, lineNum))
		}

		s.nextID = ev.ID + 1
		s.clock.commit(ev.CreatedAt)
		offset += int64(len(line))
	}

	s.size = offset
	return nil
}

// Append implements audit.Store.
func (s *JSONLStore) Append(ctx context.Context, ev *audit.Event) (int64, error) {
	if err := ev.Validate(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, audit.NewStorageError("jsonl", "append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, audit.NewStorageError("jsonl", "append", errStoreClosed)
	}
	if s.failed != nil {
		return 0, audit.NewStorageError("jsonl", "append", s.failed)
	}

	stored := *ev
	stored.ID = s.nextID
	stored.CreatedAt = s.clock.next()

	line, err := json.Marshal(&stored)
	if err != nil {
		return 0, audit.NewStorageError("jsonl", "encode", err)
	}
	line = append(line, '\n')

	n, err := s.file.Write(line)
	if err == nil && n != len(line) {
		err = errShortWrite
	}
	if err == nil {
		err = s.file.Sync()
	}
	if err != nil {
		s.rollback()
		return 0, audit.NewStorageError("jsonl", "append", err)
	}

	s.size += int64(len(line))
	s.nextID++
	s.clock.commit(stored.CreatedAt)

	ev.ID = stored.ID
	ev.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// rollback cuts the file back to the last complete record.
func (s *JSONLStore) rollback() {
	err := s.file.Truncate(s.size)
	if err == nil {
		err = s.file.Sync()
	}
	if err != nil {
		s.failed = fmt.Errorf("rollback to %d bytes failed: %w", s.size, err)
		s.logger.Error("audit log left in an unknown state",
			"path", s.path,
			"error", err,
		)
		return
	}
	s.logger.Warn("rolled back partial audit record", "path", s.path, "size_bytes", s.size)
}

// List implements audit.Store. The stream covers the events that were
// durable when List was called.
func (s *JSONLStore) List(ctx context.Context, filter *audit.Filter) (<-chan *audit.Event, <-chan error, error) {
	if err := filter.Validate(); err != nil {
		return nil, nil, audit.NewQueryError(filter, err)
	}

	s.mu.Lock()
	closed, size := s.closed, s.size
	s.mu.Unlock()
	if closed {
		return nil, nil, audit.NewStorageError("jsonl", "list", errStoreClosed)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, audit.NewStorageError("jsonl", "list", err)
	}

	eventsCh := make(chan *audit.Event, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(eventsCh)
		defer close(errCh)
		defer f.Close()

		r := bufio.NewReader(io.NewSectionReader(f, 0, size))
		sent := 0
		for {
			line, err := r.ReadBytes('\n')
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- audit.NewStorageError("jsonl", "list", err)
				return
			}

			ev := &audit.Event{}
			if err := json.Unmarshal(bytes.TrimSpace(line), ev); err != nil {
				errCh <- audit.NewStorageError("jsonl", "decode", err)
				return
			}
			if filter != nil && filter.Until != nil && !ev.CreatedAt.Before(*filter.Until) {
				// File order is creation order.
				return
			}
			if !filter.Matches(ev) {
				continue
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case eventsCh <- ev:
			}

			sent++
			if filter != nil && filter.Limit > 0 && sent >= filter.Limit {
				return
			}
		}
	}()

	return eventsCh, errCh, nil
}

// Path returns the log file path.
func (s *JSONLStore) Path() string {
	return s.path
}

// Close closes the log file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		return audit.NewStorageError("jsonl", "close", err)
	}
	s.logger.Info("JSONL audit store closed", "path", s.path)
	return nil
}
