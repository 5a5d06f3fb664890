package export

import (
	"context"
	"io"

	"crucible-hq/crucible/pkg/audit"
)

// Exporter writes a stream of events in some format.
type Exporter interface {
	// Format names the output format ("csv", "jsonl").
	Format() string

	// ExportStream consumes events until the channel closes and returns the
	// number of events written.
	ExportStream(ctx context.Context, events <-chan *audit.Event, w io.Writer) (int, error)
}

// Snapshot exports every event in store matching filter, in listing order.
func Snapshot(ctx context.Context, store audit.Store, filter *audit.Filter, exporter Exporter, w io.Writer) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, errs, err := store.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	n, err := exporter.ExportStream(ctx, events, w)
	if err != nil {
		return n, err
	}

	if err := <-errs; err != nil {
		return n, audit.NewExportError(exporter.Format(), n, err)
	}
	return n, nil
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (Exporter, bool) {
	switch format {
	case "csv":
		return NewCSVExporter(true), true
	case "jsonl", "json":
		return NewJSONLExporter(), true
	default:
		return nil, false
	}
}
