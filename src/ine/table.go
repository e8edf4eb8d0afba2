package ine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ColumnKind is the inferred JSON type of a table column.
type ColumnKind int

const (
	KindNull ColumnKind = iota
	KindNumber
	KindString
	KindBool
	KindMixed
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindMixed:
		return "mixed"
	default:
		return "null"
	}
}

// Table is a row-oriented view of a JSON array of objects.
// Columns lists every key seen, in first-seen order. Numbers are json.Number.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the values of one column; rows without the key yield nil.
func (t *Table) Column(name string) []any {
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[name]
	}
	return out
}

// Kind reports the type shared by the non-null values of a column.
func (t *Table) Kind(name string) ColumnKind {
	kind := KindNull
	for _, row := range t.Rows {
		var k ColumnKind
		switch row[name].(type) {
		case nil:
			continue
		case json.Number:
			k = KindNumber
		case string:
			k = KindString
		case bool:
			k = KindBool
		default:
			return KindMixed
		}
		if kind == KindNull {
			kind = k
		} else if kind != k {
			return KindMixed
		}
	}
	return kind
}

// Float64s returns a numeric column. Nulls are not allowed.
func (t *Table) Float64s(name string) ([]float64, error) {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		n, ok := row[name].(json.Number)
		if !ok {
			return nil, &MalformedResponse{Index: i, Field: name, Reason: "not a number"}
		}
		f, err := n.Float64()
		if err != nil {
			return nil, &MalformedResponse{Index: i, Field: name, Reason: "not a number", Err: err}
		}
		out[i] = f
	}
	return out, nil
}

// DecodeTable turns a JSON array of objects into a Table. A single object is
// treated as a one-row table.
func DecodeTable(payload []byte) (*Table, error) {
	trimmed := bytes.TrimSpace(payload)
	if !json.Valid(trimmed) {
		return nil, &DecodeError{Err: syntaxError(trimmed)}
	}

	var elems []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, &DecodeError{Err: err}
		}
	case '{':
		elems = []json.RawMessage{trimmed}
	default:
		return nil, &MalformedResponse{Index: -1, Reason: "payload is neither an array nor an object"}
	}

	t := &Table{Columns: []string{}, Rows: make([]map[string]any, 0, len(elems))}
	seen := make(map[string]bool)
	for i, elem := range elems {
		row, keys, err := decodeRow(elem)
		if err != nil {
			return nil, &MalformedResponse{Index: i, Reason: "element is not an object", Err: err}
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// decodeRow decodes one object and returns its keys in document order.
func decodeRow(raw json.RawMessage) (map[string]any, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("unexpected token %v", tok)
	}

	row := make(map[string]any)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = v
	}
	return row, keys, nil
}
