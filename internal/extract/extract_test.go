package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketcache/internal/dataset"
	"marketcache/internal/status"
	"marketcache/internal/store"
	"marketcache/internal/table"
	"marketcache/internal/testutil"
)

// passthroughScrub returns the table untouched.
func passthroughScrub(label, scrubMode string, ds dataset.Type, msgFormat, dsID string, t *table.Table) (*table.Table, error) {
	return t, nil
}

func optionRecord(t *testing.T, fields map[string]any) store.Record {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal option record: %v", err)
	}
	return store.Record{Status: status.Success, Data: data}
}

func TestExtractOptionCalls_Success(t *testing.T) {
	// One call row with strike 100 and bid 1.2, cached under an explicit key.
	st := testutil.NewMockStore(optionRecord(t, map[string]any{
		"exp_date": "2024-01-19",
		"calls":    `[{"strike":100,"bid":1.2}]`,
	}), nil)
	e := New(st, passthroughScrub, testutil.DiscardLogger())

	req := WorkRequest{
		RedisKey:  "opt:AAPL:2024-01-19",
		RedisHost: "h",
		RedisPort: 6379,
	}
	got, tbl, err := e.ExtractOptionCalls(context.Background(), req, "sort-by-date")
	if err != nil {
		t.Fatalf("ExtractOptionCalls() returned unexpected error: %v", err)
	}
	if got != status.Success {
		t.Errorf("status = %s, want SUCCESS", got)
	}
	if tbl.Len() != 1 {
		t.Fatalf("rows = %d, want 1", tbl.Len())
	}
	row := tbl.Row(0)
	if row["strike"] != float64(100) {
		t.Errorf("strike = %v, want 100", row["strike"])
	}
	if row["bid"] != 1.2 {
		t.Errorf("bid = %v, want 1.2", row["bid"])
	}

	keys := st.FetchedKeys()
	if len(keys) != 1 || keys[0] != "opt:AAPL:2024-01-19" {
		t.Errorf("fetched keys = %v, want [opt:AAPL:2024-01-19]", keys)
	}
}

func TestExtractOptionPuts_Success(t *testing.T) {
	st := testutil.NewMockStore(optionRecord(t, map[string]any{
		"exp_date": "2024-01-19",
		"puts":     `[{"strike":95,"ask":0.8},{"strike":90,"ask":0.3}]`,
	}), nil)
	e := New(st, passthroughScrub, testutil.DiscardLogger())

	got, tbl, err := e.ExtractOptionPuts(context.Background(), WorkRequest{RedisKey: "k"}, "sort-by-date")
	if err != nil {
		t.Fatalf("ExtractOptionPuts() returned unexpected error: %v", err)
	}
	if got != status.Success {
		t.Errorf("status = %s, want SUCCESS", got)
	}
	if tbl.Len() != 2 {
		t.Errorf("rows = %d, want 2", tbl.Len())
	}
}

func TestExtractOptionCalls_NonSuccessPassthrough(t *testing.T) {
	tests := []struct {
		name string
		st   status.Status
	}{
		{"not run", status.NotRun},
		{"failed", status.Failed},
		{"missing data", status.MissingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scrubCalled := false
			st := testutil.NewMockStore(store.Record{Status: tt.st}, nil)
			e := New(st, func(label, scrubMode string, ds dataset.Type, msgFormat, dsID string, tbl *table.Table) (*table.Table, error) {
				scrubCalled = true
				return tbl, nil
			}, testutil.DiscardLogger())

			got, tbl, err := e.ExtractOptionCalls(context.Background(), WorkRequest{RedisKey: "k"}, "sort-by-date")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.st {
				t.Errorf("status = %s, want %s", got, tt.st)
			}
			if tbl != nil {
				t.Errorf("table = %v, want nil", tbl)
			}
			if scrubCalled {
				t.Error("scrub was invoked for a non-success fetch")
			}
		})
	}
}

func TestExtractOptionCalls_FetchFaultBecomesErr(t *testing.T) {
	st := testutil.NewMockStore(store.Record{Status: status.Err}, errors.New("connection refused"))
	e := New(st, passthroughScrub, testutil.DiscardLogger())

	got, tbl, err := e.ExtractOptionCalls(context.Background(), WorkRequest{RedisKey: "k"}, "sort-by-date")
	if err != nil {
		t.Fatalf("fetch fault must not surface as an error, got: %v", err)
	}
	if got != status.Err {
		t.Errorf("status = %s, want ERR", got)
	}
	if tbl != nil {
		t.Errorf("table = %v, want nil", tbl)
	}
}

func TestExtractOptionCalls_MalformedRecordBecomesErr(t *testing.T) {
	tests := []struct {
		name string
		rec  store.Record
	}{
		{
			name: "missing calls field",
			rec: optionRecord(t, map[string]any{
				"exp_date": "2024-01-19",
				"puts":     `[]`,
			}),
		},
		{
			name: "missing exp_date field",
			rec: optionRecord(t, map[string]any{
				"calls": `[]`,
			}),
		},
		{
			name: "calls not valid records",
			rec: optionRecord(t, map[string]any{
				"exp_date": "2024-01-19",
				"calls":    `{"strike":100}`,
			}),
		},
		{
			name: "payload not an object",
			rec:  store.Record{Status: status.Success, Data: []byte(`"just a string"`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testutil.NewMockStore(tt.rec, nil)
			e := New(st, passthroughScrub, testutil.DiscardLogger())

			got, tbl, err := e.ExtractOptionCalls(context.Background(), WorkRequest{RedisKey: "k"}, "sort-by-date")
			if err != nil {
				t.Fatalf("decode fault must not surface as an error, got: %v", err)
			}
			if got != status.Err {
				t.Errorf("status = %s, want ERR", got)
			}
			if tbl != nil {
				t.Errorf("table = %v, want nil", tbl)
			}
		})
	}
}

func TestExtractOptionCalls_ScrubFaultPropagates(t *testing.T) {
	scrubErr := errors.New("scrub blew up")
	st := testutil.NewMockStore(optionRecord(t, map[string]any{
		"exp_date": "2024-01-19",
		"calls":    `[{"strike":100}]`,
	}), nil)
	e := New(st, func(label, scrubMode string, ds dataset.Type, msgFormat, dsID string, tbl *table.Table) (*table.Table, error) {
		return nil, scrubErr
	}, testutil.DiscardLogger())

	_, tbl, err := e.ExtractOptionCalls(context.Background(), WorkRequest{RedisKey: "k"}, "sort-by-date")
	if !errors.Is(err, scrubErr) {
		t.Fatalf("err = %v, want the scrub fault", err)
	}
	if tbl != nil {
		t.Errorf("table = %v, want nil on scrub fault", tbl)
	}
}

func TestExtractOptionCalls_SuccessEvenIfScrubReturnsEmpty(t *testing.T) {
	// A scrub that judges the data poor but returns without error still
	// yields SUCCESS.
	st := testutil.NewMockStore(optionRecord(t, map[string]any{
		"exp_date": "2024-01-19",
		"calls":    `[{"strike":100}]`,
	}), nil)
	empty := table.New(nil)
	e := New(st, func(label, scrubMode string, ds dataset.Type, msgFormat, dsID string, tbl *table.Table) (*table.Table, error) {
		return empty, nil
	}, testutil.DiscardLogger())

	got, tbl, err := e.ExtractOptionCalls(context.Background(), WorkRequest{RedisKey: "k"}, "sort-by-date")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != status.Success {
		t.Errorf("status = %s, want SUCCESS", got)
	}
	if tbl != empty {
		t.Error("scrubbed table must replace the decoded table unconditionally")
	}
}

func TestExtractOptionCalls_SentinelKeys(t *testing.T) {
	tests := []struct {
		name    string
		req     WorkRequest
		wantKey string
	}{
		{"no key at all", WorkRequest{Ticker: "SPY"}, MissingRedisKey},
		{"options alias used", WorkRequest{Options: "SPY_options"}, "SPY_options"},
		{"explicit key wins", WorkRequest{RedisKey: "explicit", Options: "alias"}, "explicit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &testutil.MockStore{}
			e := New(st, passthroughScrub, testutil.DiscardLogger())

			got, tbl, err := e.ExtractOptionCalls(context.Background(), tt.req, "sort-by-date")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != status.NotRun {
				t.Errorf("status = %s, want NOT_RUN", got)
			}
			if tbl != nil {
				t.Errorf("table = %v, want nil", tbl)
			}
			keys := st.FetchedKeys()
			if len(keys) != 1 || keys[0] != tt.wantKey {
				t.Errorf("fetched keys = %v, want [%s]", keys, tt.wantKey)
			}
		})
	}
}

func TestExtractPricing_DelegatesToPerform(t *testing.T) {
	var gotDS dataset.Type
	var gotReq WorkRequest
	e := New(&testutil.MockStore{}, passthroughScrub, testutil.DiscardLogger())
	e.perform = func(ctx context.Context, ds dataset.Type, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
		gotDS = ds
		gotReq = req
		return status.Success, table.New(nil), nil
	}

	req := WorkRequest{Pricing: "SPY_pricing", Ticker: "SPY"}
	got, _, err := e.ExtractPricing(context.Background(), req, "sort-by-date")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != status.Success {
		t.Errorf("status = %s, want SUCCESS", got)
	}
	if gotDS != dataset.Pricing {
		t.Errorf("dataset = %s, want pricing", gotDS)
	}
	// The delegate receives the normalized request.
	if gotReq.RedisKey != "SPY_pricing" {
		t.Errorf("delegated RedisKey = %q, want %q", gotReq.RedisKey, "SPY_pricing")
	}
	if gotReq.S3Key != "SPY_pricing" {
		t.Errorf("delegated S3Key = %q, want %q", gotReq.S3Key, "SPY_pricing")
	}
}

func TestExtractNews_DelegatesToPerform(t *testing.T) {
	var gotDS dataset.Type
	e := New(&testutil.MockStore{}, passthroughScrub, testutil.DiscardLogger())
	e.perform = func(ctx context.Context, ds dataset.Type, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
		gotDS = ds
		return status.NotRun, nil, nil
	}

	got, tbl, err := e.ExtractNews(context.Background(), WorkRequest{}, "sort-by-date")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDS != dataset.News {
		t.Errorf("dataset = %s, want news", gotDS)
	}
	if got != status.NotRun || tbl != nil {
		t.Errorf("outcome = (%s, %v), want (NOT_RUN, nil)", got, tbl)
	}
}
