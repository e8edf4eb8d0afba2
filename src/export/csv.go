package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mmngreco/ine-go/src/ine"
)

// TimestampLayout keeps the millisecond precision of series timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// WriteSeriesCSV writes one "timestamp,value" row per record, in result order.
func WriteSeriesCSV(w io.Writer, res *ine.SeriesResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "value"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, rec := range res.Records {
		row := []string{
			rec.Timestamp.UTC().Format(TimestampLayout),
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes the table columns as header followed by one row per table row.
// Text cells are sanitized for spreadsheet use.
func WriteTableCSV(w io.Writer, t *ine.Table) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = SanitizeForFormulaInjection(StripUnprintable(c))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(t.Columns))
	for i, r := range t.Rows {
		for j, c := range t.Columns {
			row[j] = formatCell(r[c])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return SanitizeForFormulaInjection(StripUnprintable(x))
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return SanitizeForFormulaInjection(string(b))
	}
}
