package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"marketcache/internal/dataset"
	"marketcache/internal/status"
	"marketcache/internal/store"
	"marketcache/internal/table"
)

// Store fetches a cached record by key. Key absence must be expressed
// through the record's status, never through an error; errors are reserved
// for connection-level faults.
type Store interface {
	Fetch(ctx context.Context, label, key string) (store.Record, error)
}

// ScrubFunc normalizes a decoded table. The pipeline trusts it: an error
// from the scrub propagates to the caller instead of being downgraded to a
// status code.
type ScrubFunc func(label, scrubMode string, ds dataset.Type, msgFormat, dsID string, t *table.Table) (*table.Table, error)

// PerformFunc is the generic extract-and-scrub routine the pricing and news
// paths delegate to.
type PerformFunc func(ctx context.Context, ds dataset.Type, req WorkRequest, scrubMode string) (status.Status, *table.Table, error)

// Extractor runs the fetch-decode-scrub pipeline for the four cached market
// dataset types. It holds no per-call state; invocations are independent and
// safe to run in parallel.
//
// Error contract: fetch and decode faults are downgraded to StatusErr with a
// nil table and a nil error. Scrub faults are the only source of a non-nil
// error. Once the scrub returns without error the surfaced status is always
// Success, whatever the scrub decided about the data.
type Extractor struct {
	store   Store
	scrub   ScrubFunc
	perform PerformFunc
	log     *logrus.Entry
}

// New builds an extractor over the given store and scrub collaborators. The
// generic pricing/news routine defaults to the built-in implementation.
func New(st Store, scrub ScrubFunc, log *logrus.Entry) *Extractor {
	e := &Extractor{store: st, scrub: scrub, log: log}
	e.perform = e.performExtract
	return e
}

// ExtractPricing fetches the cached pricing dataset for a request.
func (e *Extractor) ExtractPricing(ctx context.Context, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	return e.extract(ctx, dataset.Pricing, req, scrubMode)
}

// ExtractNews fetches the cached news dataset for a request.
func (e *Extractor) ExtractNews(ctx context.Context, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	return e.extract(ctx, dataset.News, req, scrubMode)
}

// ExtractOptionCalls fetches the calls side of the cached option chain.
func (e *Extractor) ExtractOptionCalls(ctx context.Context, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	return e.extract(ctx, dataset.OptionCalls, req, scrubMode)
}

// ExtractOptionPuts fetches the puts side of the cached option chain.
func (e *Extractor) ExtractOptionPuts(ctx context.Context, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	return e.extract(ctx, dataset.OptionPuts, req, scrubMode)
}

// extract is the single parameterized pipeline behind the four entry points.
func (e *Extractor) extract(ctx context.Context, ds dataset.Type, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	if ds.OptionSide() {
		return e.extractOptionSide(ctx, ds, req, scrubMode)
	}

	canonical := Normalize(req, ds)
	e.log.WithFields(logrus.Fields{
		"label":   canonical.label(),
		"dataset": ds.String(),
	}).Info("start")
	return e.perform(ctx, ds, canonical, scrubMode)
}

// extractOptionSide fetches and decodes one side of the cached option chain.
// The record nests an expiration date plus the calls and puts tables, each
// serialized as a records JSON string; only the requested side is decoded.
func (e *Extractor) extractOptionSide(ctx context.Context, ds dataset.Type, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	label := fmt.Sprintf("%s-%s", req.label(), ds.RecordField())
	dsID := req.Ticker

	redisKey := req.RedisKey
	if redisKey == "" {
		redisKey = req.Options
	}
	if redisKey == "" {
		redisKey = MissingRedisKey
	}
	s3Key := req.S3Key
	if s3Key == "" {
		s3Key = req.Options
	}
	if s3Key == "" {
		s3Key = MissingS3Key
	}

	log := e.log.WithFields(logrus.Fields{
		"label":     label,
		"dataset":   ds.String(),
		"redis_key": redisKey,
		"s3_key":    s3Key,
	})
	log.Info("start")

	rec, err := e.store.Fetch(ctx, label, redisKey)
	if err != nil {
		log.WithField("ds_id", dsID).WithError(err).
			Errorf("failed getting option %s from store", ds.RecordField())
		return status.Err, nil, nil
	}

	st := rec.Status
	log.WithField("status", st.String()).Info("store get data")

	if st != status.Success {
		log.WithField("status", st.String()).
			Infof("did not find valid option %s", ds.RecordField())
		return st, nil, nil
	}

	expDate, tbl, err := decodeOptionSide(rec.Data, ds)
	if err != nil {
		log.WithField("ds_id", dsID).WithError(err).
			Errorf("failed decoding option %s record", ds.RecordField())
		return status.Err, nil, nil
	}
	log.WithFields(logrus.Fields{
		"rows":     tbl.Len(),
		"exp_date": expDate,
	}).Info("decoded records")

	log.WithFields(logrus.Fields{"ds_id": dsID, "scrub": scrubMode}).Info("extract scrub")
	scrubbed, err := e.scrub(label, scrubMode, ds, "rows=%d exp_date=%s", dsID, tbl)
	if err != nil {
		return st, nil, err
	}

	return status.Success, scrubbed, nil
}

// decodeOptionSide unpacks the nested option record: exp_date for context
// plus the requested side's serialized table. A missing field or malformed
// payload is an error the pipeline converts to StatusErr.
func decodeOptionSide(raw json.RawMessage, ds dataset.Type) (string, *table.Table, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", nil, fmt.Errorf("malformed option record: %w", err)
	}

	expRaw, ok := payload["exp_date"]
	if !ok {
		return "", nil, fmt.Errorf("option record missing exp_date")
	}
	var expDate string
	if err := json.Unmarshal(expRaw, &expDate); err != nil {
		return "", nil, fmt.Errorf("malformed exp_date: %w", err)
	}

	field := ds.RecordField()
	sideRaw, ok := payload[field]
	if !ok {
		return "", nil, fmt.Errorf("option record missing %s", field)
	}
	tbl, err := table.DecodeRecords(sideRaw)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode %s records: %w", field, err)
	}
	return expDate, tbl, nil
}
