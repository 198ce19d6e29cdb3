package extract

import (
	"context"

	"github.com/sirupsen/logrus"

	"marketcache/internal/dataset"
	"marketcache/internal/status"
	"marketcache/internal/table"
)

// performExtract is the generic extract-and-scrub routine for the dataset
// types whose cached payload is already tabular (pricing, news). It follows
// the same error contract as the option path: fetch and decode faults become
// StatusErr with no error, a scrub fault is returned as the error.
func (e *Extractor) performExtract(ctx context.Context, ds dataset.Type, req WorkRequest, scrubMode string) (status.Status, *table.Table, error) {
	label := req.label()

	redisKey := req.RedisKey
	if redisKey == "" {
		redisKey = MissingRedisKey
	}

	log := e.log.WithFields(logrus.Fields{
		"label":     label,
		"dataset":   ds.String(),
		"redis_key": redisKey,
	})

	rec, err := e.store.Fetch(ctx, label, redisKey)
	if err != nil {
		log.WithField("ticker", req.Ticker).WithError(err).
			Error("failed getting dataset from store")
		return status.Err, nil, nil
	}

	st := rec.Status
	log.WithField("status", st.String()).Info("store get data")
	if st != status.Success {
		return st, nil, nil
	}

	tbl, err := table.DecodeRecords(rec.Data)
	if err != nil {
		log.WithError(err).Error("failed decoding dataset records")
		return status.Err, nil, nil
	}
	log.WithField("rows", tbl.Len()).Info("decoded records")

	scrubbed, err := e.scrub(label, scrubMode, ds, "rows=%d", req.Ticker, tbl)
	if err != nil {
		return st, nil, err
	}

	return status.Success, scrubbed, nil
}
