package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"crucible-hq/crucible/pkg/audit"
)

// Columns is the fixed CSV header.
var Columns = []string{
	"event_id", "event_type", "created_at",
	"scenario_id", "analyst_id", "rationale", "flagged", "match_count",
	"matched_rules", "matched_categories", "library_version",
	"validator_name", "session_id", "scenarios_reviewed", "answers",
	"additional_notes", "positive_cases", "negative_cases", "outcome", "supersedes",
}

// CSVExporter exports audit events to CSV.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Format implements Exporter.
func (e *CSVExporter) Format() string { return "csv" }

// Export writes events to w.
func (e *CSVExporter) Export(ctx context.Context, events []*audit.Event, w io.Writer) error {
	ch := make(chan *audit.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	_, err := e.ExportStream(ctx, ch, w)
	return err
}

// ExportStream writes events from a channel to w, flushing every 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, events <-chan *audit.Event, w io.Writer) (int, error) {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(Columns); err != nil {
			return 0, audit.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()

		case ev, ok := <-events:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return count, audit.NewExportError("csv", count, err)
				}
				return count, nil
			}

			row, err := eventToRow(ev)
			if err != nil {
				return count, audit.NewExportError("csv", count, err)
			}
			if err := writer.Write(row); err != nil {
				return count, audit.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return count, audit.NewExportError("csv", count, err)
				}
			}
		}
	}
}

// eventToRow flattens an event into the Columns layout.
func eventToRow(ev *audit.Event) ([]string, error) {
	row := make([]string, len(Columns))
	row[0] = strconv.FormatInt(ev.ID, 10)
	row[1] = string(ev.Type)
	row[2] = ev.CreatedAt.UTC().Format(time.RFC3339Nano)

	if a := ev.Analysis; a != nil {
		rules, err := jsonArray(a.RuleNames)
		if err != nil {
			return nil, err
		}
		categories, err := jsonArray(a.Categories)
		if err != nil {
			return nil, err
		}
		row[3] = a.ScenarioID
		row[4] = a.AnalystID
		row[5] = a.Rationale
		row[6] = strconv.FormatBool(a.Flagged)
		row[7] = strconv.Itoa(a.MatchCount)
		row[8] = rules
		row[9] = categories
		row[10] = a.LibraryVersion
	}

	if v := ev.Validation; v != nil {
		scenarios, err := jsonArray(v.ScenariosReviewed)
		if err != nil {
			return nil, err
		}
		answers, err := json.Marshal(v.Answers)
		if err != nil {
			return nil, err
		}
		if v.Answers == nil {
			answers = []byte("{}")
		}
		row[11] = v.ValidatorName
		row[12] = v.SessionID
		row[13] = scenarios
		row[14] = string(answers)
		row[15] = v.AdditionalNotes
		row[16] = strconv.Itoa(v.PositiveCases)
		row[17] = strconv.Itoa(v.NegativeCases)
		row[18] = string(v.Outcome)
		row[19] = v.Supersedes
	}

	return row, nil
}

func jsonArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
