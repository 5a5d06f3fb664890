package audit

import (
	"context"
	"fmt"
)

// Stats summarises the contents of a store.
type Stats struct {
	TotalAnalyses int `json:"total_analyses"`
	TotalFlagged  int `json:"total_flagged"`

	// FlagRatio is TotalFlagged / TotalAnalyses, a fraction in [0, 1] (not a
	// percentage). It is 0 when there are no analyses.
	FlagRatio float64 `json:"flag_ratio"`

	TotalValidations  int `json:"total_validations"`
	ValidationsPassed int `json:"validations_passed"`
}

// Collect drains a List call into a slice.
func Collect(ctx context.Context, store Store, filter *Filter) ([]*Event, error) {
	events, errs, err := store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var out []*Event
	for ev := range events {
		out = append(out, ev)
	}
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}

// ComputeStats scans every event in store.
func ComputeStats(ctx context.Context, store Store) (*Stats, error) {
	events, errs, err := store.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for ev := range events {
		switch ev.Type {
		case EventTypeAnalysis:
			stats.TotalAnalyses++
			if ev.Analysis != nil && ev.Analysis.Flagged {
				stats.TotalFlagged++
			}
		case EventTypeValidationSession:
			stats.TotalValidations++
			if ev.Validation != nil && ev.Validation.Outcome == OutcomePassed {
				stats.ValidationsPassed++
			}
		}
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	if stats.TotalAnalyses > 0 {
		stats.FlagRatio = float64(stats.TotalFlagged) / float64(stats.TotalAnalyses)
	}
	return stats, nil
}

// Recent returns up to limit of the most recent events matching filter,
// newest first. The filter's own Limit is ignored.
func Recent(ctx context.Context, store Store, filter *Filter, limit int) ([]*Event, error) {
	if limit <= 0 {
		return nil, NewQueryError(filter, fmt.Errorf("limit must be positive, got %d", limit))
	}

	var f Filter
	if filter != nil {
		f = *filter
	}
	f.Limit = 0

	events, errs, err := store.List(ctx, &f)
	if err != nil {
		return nil, err
	}

	// Ring buffer of the last limit events.
	ring := make([]*Event, 0, limit)
	next := 0
	for ev := range events {
		if len(ring) < limit {
			ring = append(ring, ev)
			continue
		}
		ring[next] = ev
		next = (next + 1) % limit
	}
	if err := <-errs; err != nil {
		return nil, err
	}

	out := make([]*Event, 0, len(ring))
	for i := len(ring) - 1; i >= 0; i-- {
		out = append(out, ring[(next+i)%len(ring)])
	}
	return out, nil
}
