package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crucible-hq/crucible/pkg/audit"
)

// withClock replaces the creation-time source.
func (s *JSONLStore) withClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.clock.last
	s.clock = newSequenceClock(now)
	s.clock.commit(last)
}

// faultyFile writes at most limit bytes per call and fails the next
// syncFailures Sync calls, or every call if syncFailures is negative.
type faultyFile struct {
	*os.File
	limit        int
	syncFailures int
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.limit >= 0 && len(p) > f.limit {
		n, _ := f.File.Write(p[:f.limit])
		return n, errors.New("no space left on device")
	}
	return f.File.Write(p)
}

func (f *faultyFile) Sync() error {
	if f.syncFailures != 0 {
		if f.syncFailures > 0 {
			f.syncFailures--
		}
		return errors.New("input/output error")
	}
	return f.File.Sync()
}

func newTestJSONL(t *testing.T) (*JSONLStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	s, err := NewJSONLStore(&JSONLConfig{Path: path})
	if err != nil {
		t.Fatalf("NewJSONLStore() error = %v", err)
	}
	return s, path
}

// readLines returns the file's lines, failing if any is not a JSON event.
func readLines(t *testing.T, path string) []audit.Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var events []audit.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var ev audit.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not a complete event: %v", len(events)+1, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return events
}

// TestJSONLStore_PartialWriteRolledBack tests that a short write leaves no
// trace in the file.
func TestJSONLStore_PartialWriteRolledBack(t *testing.T) {
	tests := []struct {
		name string
		file func(*os.File) *faultyFile
	}{
		{name: "short write", file: func(f *os.File) *faultyFile { return &faultyFile{File: f, limit: 17} }},
		{name: "sync failure", file: func(f *os.File) *faultyFile { return &faultyFile{File: f, limit: -1, syncFailures: 1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, path := newTestJSONL(t)
			defer s.Close()

			mustAppend(t, s, analysisEvent("S-1", true))
			mustAppend(t, s, analysisEvent("S-2", false))

			good := s.file.(*os.File)
			s.file = tt.file(good)

			ev := analysisEvent("S-3", true)
			_, err := s.Append(context.Background(), ev)
			var serr *audit.StorageError
			if !errors.As(err, &serr) || serr.Backend != "jsonl" || serr.Operation != "append" {
				t.Fatalf("Append() error = %v, want jsonl append StorageError", err)
			}
			if ev.ID != 0 {
				t.Errorf("failed append assigned id %d", ev.ID)
			}

			if got := len(readLines(t, path)); got != 2 {
				t.Fatalf("file holds %d events after failed append, want 2", got)
			}

			s.file = good
			if id := mustAppend(t, s, analysisEvent("S-4", true)); id != 3 {
				t.Errorf("id after rollback = %d, want 3", id)
			}
			lines := readLines(t, path)
			if len(lines) != 3 || lines[2].Analysis.ScenarioID != "S-4" {
				t.Errorf("file after recovery = %+v", lines)
			}
		})
	}
}

// TestJSONLStore_FailedRollbackLatches tests that once a rollback cannot be
// made durable the store refuses every later append.
func TestJSONLStore_FailedRollbackLatches(t *testing.T) {
	s, path := newTestJSONL(t)
	defer s.Close()

	mustAppend(t, s, analysisEvent("S-1", true))

	good := s.file.(*os.File)
	s.file = &faultyFile{File: good, limit: -1, syncFailures: -1}

	var serr *audit.StorageError
	if _, err := s.Append(context.Background(), analysisEvent("S-2", false)); !errors.As(err, &serr) {
		t.Fatalf("Append() error = %v, want StorageError", err)
	}

	s.file = good
	for i := 0; i < 2; i++ {
		_, err := s.Append(context.Background(), analysisEvent("S-3", true))
		if !errors.As(err, &serr) || serr.Operation != "append" {
			t.Fatalf("Append() after failed rollback error = %v, want jsonl append StorageError", err)
		}
		if !strings.Contains(err.Error(), "rollback") {
			t.Errorf("error %q does not name the failed rollback", err)
		}
	}

	if got := len(readLines(t, path)); got != 1 {
		t.Errorf("file holds %d events, want 1", got)
	}
}

// TestJSONLStore_RecoversIncompleteTail tests that reopening drops a torn
// final line and continues the id sequence.
func TestJSONLStore_RecoversIncompleteTail(t *testing.T) {
	s, path := newTestJSONL(t)
	mustAppend(t, s, analysisEvent("S-1", true))
	mustAppend(t, s, validationEvent("sess-1", audit.OutcomePartial))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"event_id":3,"event_type":"anal`); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err = NewJSONLStore(&JSONLConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if got := len(mustCollect(t, s, nil)); got != 2 {
		t.Errorf("listed %d events, want 2", got)
	}
	if id := mustAppend(t, s, analysisEvent("S-2", false)); id != 3 {
		t.Errorf("next id = %d, want 3", id)
	}
	if got := len(readLines(t, path)); got != 3 {
		t.Errorf("file holds %d events, want 3", got)
	}
}

// TestJSONLStore_CorruptRecord tests that a damaged complete line is reported,
// not skipped.
func TestJSONLStore_CorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	content := `{"event_id":1,"event_type":"analysis","created_at":"2026-03-02T09:00:00Z","analysis":{}}` + "\n" +
		"not json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewJSONLStore(&JSONLConfig{Path: path})
	var serr *audit.StorageError
	if !errors.As(err, &serr) || serr.Operation != "recover" {
		t.Fatalf("NewJSONLStore() error = %v, want recover StorageError", err)
	}
}

// TestJSONLStore_ListSnapshot tests that a listing ignores appends made after it started.
func TestJSONLStore_ListSnapshot(t *testing.T) {
	s, _ := newTestJSONL(t)
	defer s.Close()

	mustAppend(t, s, analysisEvent("S-1", true))

	events, errs, err := s.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	mustAppend(t, s, analysisEvent("S-2", true))

	var got []*audit.Event
	for ev := range events {
		got = append(got, ev)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("listed %d events, want 1", len(got))
	}
}

// TestJSONLStore_OpenUnwritable tests that an unusable path fails with a StorageError.
func TestJSONLStore_OpenUnwritable(t *testing.T) {
	dir := t.TempDir()
	_, err := NewJSONLStore(&JSONLConfig{Path: dir})
	var serr *audit.StorageError
	if !errors.As(err, &serr) || serr.Operation != "open" {
		t.Fatalf("NewJSONLStore(directory) error = %v, want open StorageError", err)
	}
}
