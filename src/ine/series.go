package ine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SeriesRecord is one observation of a series.
type SeriesRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SeriesResult holds the observations of a series in the order the service returned them.
type SeriesResult struct {
	Code    string         `json:"code,omitempty"`
	Name    string         `json:"name,omitempty"`
	Records []SeriesRecord `json:"records"`

	// byMillis maps a timestamp in epoch milliseconds to positions in Records.
	byMillis map[int64][]int
}

// NewSeriesResult builds a result and its timestamp index. The slice is kept as is.
func NewSeriesResult(code, name string, records []SeriesRecord) *SeriesResult {
	if records == nil {
		records = []SeriesRecord{}
	}
	idx := make(map[int64][]int, len(records))
	for i, rec := range records {
		ms := rec.Timestamp.UnixMilli()
		idx[ms] = append(idx[ms], i)
	}
	return &SeriesResult{Code: code, Name: name, Records: records, byMillis: idx}
}

// Len returns the number of records.
func (r *SeriesResult) Len() int { return len(r.Records) }

// At returns every record stamped t, in result order. Duplicates are not merged.
func (r *SeriesResult) At(t time.Time) []SeriesRecord {
	ms := t.UnixMilli()
	var out []SeriesRecord
	if r.byMillis == nil {
		for _, rec := range r.Records {
			if rec.Timestamp.UnixMilli() == ms {
				out = append(out, rec)
			}
		}
		return out
	}
	for _, i := range r.byMillis[ms] {
		out = append(out, r.Records[i])
	}
	return out
}

// Timestamps returns the timestamp column.
func (r *SeriesResult) Timestamps() []time.Time {
	out := make([]time.Time, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Timestamp
	}
	return out
}

// Values returns the value column.
func (r *SeriesResult) Values() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Value
	}
	return out
}

const (
	fieldData  = "Data"
	fieldFecha = "Fecha"
	fieldValor = "Valor"
	fieldCode  = "COD"
	fieldName  = "Nombre"
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeSeries projects the Fecha and Valor fields of every Data element of a
// DATOS_SERIE payload. Every other field of the element is ignored.
func DecodeSeries(payload []byte) (*SeriesResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &DecodeError{Err: err}
		}
		return nil, &MalformedResponse{Index: -1, Reason: "payload is not a JSON object", Err: err}
	}

	rawData, ok := top[fieldData]
	if !ok || isNull(rawData) {
		return nil, &MalformedResponse{Index: -1, Field: fieldData, Reason: "missing"}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawData, &elems); err != nil {
		return nil, &MalformedResponse{Index: -1, Field: fieldData, Reason: "not an array", Err: err}
	}

	records := make([]SeriesRecord, 0, len(elems))
	for i, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			return nil, &MalformedResponse{Index: i, Reason: "element is not an object", Err: err}
		}

		rawFecha, ok := fields[fieldFecha]
		if !ok || isNull(rawFecha) {
			return nil, &MalformedResponse{Index: i, Field: fieldFecha, Reason: "missing"}
		}
		ts, err := parseFecha(rawFecha)
		if err != nil {
			return nil, &MalformedResponse{Index: i, Field: fieldFecha, Reason: "not a timestamp", Err: err}
		}

		rawValor, ok := fields[fieldValor]
		if !ok || isNull(rawValor) {
			return nil, &MalformedResponse{Index: i, Field: fieldValor, Reason: "missing"}
		}
		val, err := parseValor(rawValor)
		if err != nil {
			return nil, &MalformedResponse{Index: i, Field: fieldValor, Reason: "not a number", Err: err}
		}

		records = append(records, SeriesRecord{Timestamp: ts, Value: val})
	}

	return NewSeriesResult(stringField(top, fieldCode), stringField(top, fieldName), records), nil
}

// parseFecha accepts epoch milliseconds as a JSON number or numeric string,
// or an ISO-8601 date/time string. The result is UTC, truncated to milliseconds.
func parseFecha(raw json.RawMessage) (time.Time, error) {
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		s = strings.TrimSpace(s)
		if len(s) == len(DateLayout) {
			if t, err := time.Parse(DateLayout, s); err == nil {
				return t, nil
			}
		}
		if ms, err := parseMillis(s); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Truncate(time.Millisecond), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}

	ms, err := parseMillis(string(raw))
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func parseMillis(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not epoch milliseconds: %q", s)
	}
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("not integral epoch milliseconds: %q", s)
	}
	return int64(f), nil
}

func parseValor(raw json.RawMessage) (float64, error) {
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
