package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"crucible-hq/crucible/pkg/audit"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// storeFactory opens a fresh store whose creation times come from now.
type storeFactory func(t *testing.T, now func() time.Time) audit.Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, now func() time.Time) audit.Store {
			return NewMemoryStoreWithClock(now)
		},
		"jsonl": func(t *testing.T, now func() time.Time) audit.Store {
			s, err := NewJSONLStore(&JSONLConfig{Path: filepath.Join(t.TempDir(), "audit.jsonl")})
			if err != nil {
				t.Fatalf("NewJSONLStore() error = %v", err)
			}
			if now != nil {
				s.withClock(now)
			}
			return s
		},
		"sqlite3": func(t *testing.T, now func() time.Time) audit.Store {
			return newTestSQLite(t, DriverMattn, now)
		},
		"sqlite": func(t *testing.T, now func() time.Time) audit.Store {
			return newTestSQLite(t, DriverModernc, now)
		},
	}
}

func newTestSQLite(t *testing.T, driver string, now func() time.Time) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "audit.db"),
		Driver:       driver,
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore(%s) error = %v", driver, err)
	}
	if now != nil {
		s.now = now
	}
	return s
}

// steppingClock returns baseTime, baseTime+step, baseTime+2*step, ...
func steppingClock(step time.Duration) func() time.Time {
	var (
		mu sync.Mutex
		n  int
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := baseTime.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func analysisEvent(scenario string, flagged bool) *audit.Event {
	return &audit.Event{
		Type: audit.EventTypeAnalysis,
		Analysis: &audit.AnalysisPayload{
			ScenarioID:     scenario,
			AnalystID:      "DEMO_ANALYST",
			Rationale:      "Per policy, no further action required.",
			RationaleWords: 6,
			Flagged:        flagged,
			MatchCount:     2,
			RuleNames:      []string{"per policy", "no further action required"},
			Categories:     []string{"policy-deference", "threshold-deference"},
			Matches: []audit.MatchRecord{
				{Rule: "per policy", Category: "policy-deference", Start: 0, End: 10, Context: "Per policy, no further"},
			},
			LibraryVersion: "fp01-v1",
			AnalyzedAt:     baseTime,
		},
	}
}

func validationEvent(session string, outcome audit.Outcome) *audit.Event {
	return &audit.Event{
		Type: audit.EventTypeValidationSession,
		Validation: &audit.ValidationPayload{
			SessionID:         session,
			ValidatorName:     "J. Reviewer",
			ScenariosReviewed: []string{"S-001", "S-002"},
			Answers: map[string]audit.Answer{
				"q1_pattern_accuracy": {Option: "Yes", Notes: "all caught"},
			},
			PositiveCases: 4,
			NegativeCases: 1,
			Outcome:       outcome,
			SubmittedAt:   baseTime,
		},
	}
}

func mustAppend(t *testing.T, s audit.Store, ev *audit.Event) int64 {
	t.Helper()
	id, err := s.Append(context.Background(), ev)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return id
}

func mustCollect(t *testing.T, s audit.Store, f *audit.Filter) []*audit.Event {
	t.Helper()
	events, err := audit.Collect(context.Background(), s, f)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return events
}

func eventIDs(events []*audit.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	return ids
}

// TestStores_AppendAssignsIDsAndTimes tests id and creation time assignment.
func TestStores_AppendAssignsIDsAndTimes(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, steppingClock(time.Second))
			defer s.Close()

			for i := 1; i <= 3; i++ {
				ev := analysisEvent(fmt.Sprintf("S-%03d", i), true)
				id := mustAppend(t, s, ev)
				if id != int64(i) || ev.ID != id {
					t.Errorf("append %d: id = %d, ev.ID = %d", i, id, ev.ID)
				}
				want := baseTime.Add(time.Duration(i-1) * time.Second)
				if !ev.CreatedAt.Equal(want) {
					t.Errorf("append %d: CreatedAt = %v, want %v", i, ev.CreatedAt, want)
				}
			}
		})
	}
}

// TestStores_CreationTimeNeverDecreases tests that a clock going backwards
// does not reorder events.
func TestStores_CreationTimeNeverDecreases(t *testing.T) {
	times := []time.Time{baseTime.Add(time.Minute), baseTime, baseTime.Add(2 * time.Minute)}
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			i := 0
			s := open(t, func() time.Time {
				now := times[i%len(times)]
				i++
				return now
			})
			defer s.Close()

			for range times {
				mustAppend(t, s, analysisEvent("S", false))
			}

			events := mustCollect(t, s, nil)
			if diff := cmp.Diff([]int64{1, 2, 3}, eventIDs(events)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			if !events[1].CreatedAt.Equal(events[0].CreatedAt) {
				t.Errorf("second event CreatedAt = %v, want clamped to %v", events[1].CreatedAt, events[0].CreatedAt)
			}
		})
	}
}

// TestStores_RoundTrip tests that stored events come back unchanged.
func TestStores_RoundTrip(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, steppingClock(time.Millisecond))
			defer s.Close()

			a := analysisEvent("S-001", true)
			a.Analysis.Rationale = "Line one, \"quoted\"\nline two £10,000   done"
			v := validationEvent("6f1c2d3e-0000-4000-8000-000000000001", audit.OutcomePassed)
			mustAppend(t, s, a)
			mustAppend(t, s, v)

			got := mustCollect(t, s, nil)
			if diff := cmp.Diff([]*audit.Event{a, v}, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestStores_ListFilters tests type, time range and limit filtering.
func TestStores_ListFilters(t *testing.T) {
	since := baseTime.Add(1 * time.Second)
	until := baseTime.Add(4 * time.Second)

	tests := []struct {
		name   string
		filter *audit.Filter
		want   []int64
	}{
		{name: "nil", filter: nil, want: []int64{1, 2, 3, 4, 5, 6}},
		{name: "analysis", filter: &audit.Filter{Type: audit.EventTypeAnalysis}, want: []int64{1, 2, 4, 5}},
		{name: "validation", filter: &audit.Filter{Type: audit.EventTypeValidationSession}, want: []int64{3, 6}},
		{name: "since", filter: &audit.Filter{Since: &since}, want: []int64{2, 3, 4, 5, 6}},
		{name: "until", filter: &audit.Filter{Until: &until}, want: []int64{1, 2, 3, 4}},
		{name: "range", filter: &audit.Filter{Since: &since, Until: &until}, want: []int64{2, 3, 4}},
		{name: "limit", filter: &audit.Filter{Limit: 2}, want: []int64{1, 2}},
		{name: "type and limit", filter: &audit.Filter{Type: audit.EventTypeValidationSession, Limit: 1}, want: []int64{3}},
	}

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, steppingClock(time.Second))
			defer s.Close()

			mustAppend(t, s, analysisEvent("S-1", true))
			mustAppend(t, s, analysisEvent("S-2", false))
			mustAppend(t, s, validationEvent("sess-1", audit.OutcomePassed))
			mustAppend(t, s, analysisEvent("S-3", true))
			mustAppend(t, s, analysisEvent("S-4", false))
			mustAppend(t, s, validationEvent("sess-2", audit.OutcomePartial))

			for _, tt := range tests {
				got := eventIDs(mustCollect(t, s, tt.filter))
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("%s: ids mismatch (-want +got):\n%s", tt.name, diff)
				}
			}
		})
	}
}

// TestStores_ListRestartable tests that listing twice yields the same sequence.
func TestStores_ListRestartable(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, nil)
			defer s.Close()

			for i := 0; i < 5; i++ {
				mustAppend(t, s, analysisEvent(fmt.Sprintf("S-%d", i), i%2 == 0))
			}

			first := mustCollect(t, s, nil)
			second := mustCollect(t, s, nil)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("second listing differs (-first +second):\n%s", diff)
			}
		})
	}
}

// TestStores_ConcurrentAppends tests that concurrent appends get distinct,
// gap-free ids and list in id order.
func TestStores_ConcurrentAppends(t *testing.T) {
	const (
		workers   = 8
		perWorker = 25
	)

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, nil)
			defer s.Close()

			var (
				mu  sync.Mutex
				ids = make(map[int64]bool)
			)
			g, ctx := errgroup.WithContext(context.Background())
			for w := 0; w < workers; w++ {
				g.Go(func() error {
					for i := 0; i < perWorker; i++ {
						id, err := s.Append(ctx, analysisEvent(fmt.Sprintf("W%d-%d", w, i), true))
						if err != nil {
							return err
						}
						mu.Lock()
						if ids[id] {
							mu.Unlock()
							return fmt.Errorf("duplicate id %d", id)
						}
						ids[id] = true
						mu.Unlock()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatalf("concurrent append error = %v", err)
			}

			events := mustCollect(t, s, nil)
			if len(events) != workers*perWorker {
				t.Fatalf("listed %d events, want %d", len(events), workers*perWorker)
			}
			for i, ev := range events {
				if ev.ID != int64(i+1) {
					t.Fatalf("events[%d].ID = %d, want %d", i, ev.ID, i+1)
				}
				if i > 0 && ev.CreatedAt.Before(events[i-1].CreatedAt) {
					t.Fatalf("events[%d] created before events[%d]", i, i-1)
				}
			}
		})
	}
}

// TestStores_InvalidEvent tests that malformed events are rejected and not stored.
func TestStores_InvalidEvent(t *testing.T) {
	invalid := []*audit.Event{
		nil,
		{Type: "deleted"},
		{Type: audit.EventTypeAnalysis},
		{Type: audit.EventTypeValidationSession, Validation: &audit.ValidationPayload{}},
		{Type: audit.EventTypeAnalysis, Analysis: &audit.AnalysisPayload{}, Validation: &audit.ValidationPayload{SessionID: "x"}},
	}

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, nil)
			defer s.Close()

			for i, ev := range invalid {
				if _, err := s.Append(context.Background(), ev); !errors.Is(err, audit.ErrInvalidEvent) {
					t.Errorf("invalid[%d]: error = %v, want ErrInvalidEvent", i, err)
				}
			}
			if got := mustCollect(t, s, nil); len(got) != 0 {
				t.Errorf("store holds %d events after rejected appends", len(got))
			}
		})
	}
}

// TestStores_InvalidFilter tests that bad filters fail with a QueryError.
func TestStores_InvalidFilter(t *testing.T) {
	since := baseTime
	until := baseTime.Add(-time.Hour)
	filters := []*audit.Filter{
		{Type: "unknown"},
		{Limit: -1},
		{Since: &since, Until: &until},
	}

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, nil)
			defer s.Close()

			for i, f := range filters {
				_, _, err := s.List(context.Background(), f)
				var qerr *audit.QueryError
				if !errors.As(err, &qerr) {
					t.Errorf("filter[%d]: error = %v, want *audit.QueryError", i, err)
				}
			}
		})
	}
}

// TestStores_ListCancelled tests that cancelling the context stops a listing.
func TestStores_ListCancelled(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, nil)
			defer s.Close()

			for i := 0; i < 300; i++ {
				mustAppend(t, s, analysisEvent("S", false))
			}

			ctx, cancel := context.WithCancel(context.Background())
			events, errs, err := s.List(ctx, nil)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			<-events
			cancel()

			for range events {
			}
			if err := <-errs; !errors.Is(err, context.Canceled) {
				t.Errorf("stream error = %v, want context.Canceled", err)
			}
		})
	}
}

// TestStores_AppendAfterClose tests that a closed store reports a StorageError.
func TestStores_AppendAfterClose(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t, nil)
			if err := s.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			ev := analysisEvent("S", true)
			_, err := s.Append(context.Background(), ev)
			var serr *audit.StorageError
			if !errors.As(err, &serr) {
				t.Fatalf("Append() error = %v, want *audit.StorageError", err)
			}
			if serr.Backend == "" || serr.Operation == "" {
				t.Errorf("StorageError missing details: %+v", serr)
			}
			if ev.ID != 0 || !ev.CreatedAt.IsZero() {
				t.Errorf("failed append modified the event: id=%d created=%v", ev.ID, ev.CreatedAt)
			}
		})
	}
}

// TestStores_NoMutationMethods tests that no backend exposes a way to change
// or remove stored events.
func TestStores_NoMutationMethods(t *testing.T) {
	forbidden := []string{"Update", "Delete", "Remove", "Replace", "Edit", "Truncate", "Clear", "Purge", "Prune"}
	types := []any{&SQLiteStore{}, &JSONLStore{}, &MemoryStore{}, (*audit.Store)(nil)}

	for _, v := range types {
		typ := reflect.TypeOf(v)
		if typ.Elem().Kind() == reflect.Interface {
			typ = typ.Elem()
		}
		for i := 0; i < typ.NumMethod(); i++ {
			name := typ.Method(i).Name
			for _, f := range forbidden {
				if strings.Contains(name, f) {
					t.Errorf("%s exposes mutating method %s", typ, name)
				}
			}
		}
	}
}
