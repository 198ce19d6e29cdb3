package scrub

import (
	"fmt"

	"marketcache/internal/dataset"
	"marketcache/internal/table"
)

// ModeSortByDate orders rows ascending by the dataset's date column.
const ModeSortByDate = "sort-by-date"

// dateColumns are tried in order when sorting; the first one present in the
// table wins.
var dateColumns = []string{"date", "created", "exp_date"}

// Dataset normalizes a decoded table before it is handed back to the caller.
// Unknown scrub modes pass the table through untouched. A nil table is a
// hard fault: the pipeline guarantees decode succeeded before scrubbing, so
// a nil table here means the caller broke that contract.
func Dataset(label, scrubMode string, ds dataset.Type, msgFormat, dsID string, t *table.Table) (*table.Table, error) {
	if t == nil {
		return nil, fmt.Errorf("%s - %s - cannot scrub nil table for %s", label, ds, dsID)
	}

	switch scrubMode {
	case ModeSortByDate:
		for _, col := range dateColumns {
			if t.HasColumn(col) {
				t.SortByColumn(col)
				break
			}
		}
		return t, nil
	default:
		return t, nil
	}
}
