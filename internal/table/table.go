package table

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Row is a single record: a flat mapping of column name to scalar value.
// Numbers decode as float64, which is the only numeric type the cached
// datasets carry.
type Row map[string]any

// Table is an ordered collection of rows decoded from a records-oriented
// serialized dataset. Row order is the serialized order until a sort is
// applied.
type Table struct {
	rows []Row
}

// New builds a table over the given rows. The slice is owned by the table
// afterwards.
func New(rows []Row) *Table {
	return &Table{rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows exposes the underlying rows in order.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	return t.rows
}

// Row returns row i.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// HasColumn reports whether any row carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, r := range t.rows {
		if _, ok := r[name]; ok {
			return true
		}
	}
	return false
}

// DecodeRecords parses a records-oriented serialized table: a JSON array of
// row objects. The cached option records store the array itself re-encoded
// as a JSON string, so a leading quote is unwrapped first.
func DecodeRecords(raw []byte) (*Table, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty records payload")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("failed to unwrap records string: %w", err)
		}
		raw = []byte(inner)
	}
	var rows []Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return New(rows), nil
}

// EncodeRecords serializes the table back to a JSON array of row objects.
func (t *Table) EncodeRecords() ([]byte, error) {
	if t == nil || t.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.rows)
}

// SortByColumn stable-sorts rows ascending by the named column. Rows missing
// the column sort first. Mixed-type columns compare by their string form.
func (t *Table) SortByColumn(name string) {
	sort.SliceStable(t.rows, func(i, j int) bool {
		a, aok := t.rows[i][name]
		b, bok := t.rows[j][name]
		if !aok || !bok {
			return !aok && bok
		}
		af, aNum := a.(float64)
		bf, bNum := b.(float64)
		if aNum && bNum {
			return af < bf
		}
		return fmt.Sprint(a) < fmt.Sprint(b)
	})
}
