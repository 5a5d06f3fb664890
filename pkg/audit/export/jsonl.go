package export

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"crucible-hq/crucible/pkg/audit"
)

// JSONLExporter exports audit events as JSON Lines.
type JSONLExporter struct{}

// NewJSONLExporter creates a new JSON Lines exporter.
func NewJSONLExporter() *JSONLExporter {
	return &JSONLExporter{}
}

// Format implements Exporter.
func (e *JSONLExporter) Format() string { return "jsonl" }

// ExportStream writes one JSON object per event.
func (e *JSONLExporter) ExportStream(ctx context.Context, events <-chan *audit.Event, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()

		case ev, ok := <-events:
			if !ok {
				if err := bw.Flush(); err != nil {
					return count, audit.NewExportError("jsonl", count, err)
				}
				return count, nil
			}

			if err := enc.Encode(ev); err != nil {
				return count, audit.NewExportError("jsonl", count, err)
			}
			count++
		}
	}
}
