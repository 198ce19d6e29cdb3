package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"marketcache/internal/source"
)

// Setter is the cache write surface the loader needs.
type Setter interface {
	Set(ctx context.Context, key string, value any, expire ...time.Duration) error
}

// Keys are the cache keys one ticker's datasets are stored under for a given
// snapshot date. Extraction requests address these same keys.
type Keys struct {
	Pricing string
	News    string
	Options string
}

// DatasetKeys derives the per-dataset cache keys for a ticker and date.
func DatasetKeys(ticker string, date time.Time) Keys {
	base := fmt.Sprintf("%s_%s", ticker, date.Format("2006-01-02"))
	return Keys{
		Pricing: base + "_pricing",
		News:    base + "_news",
		Options: base + "_options",
	}
}

// optionRecord is the nested envelope the option chain is cached under. The
// calls and puts tables are re-encoded as JSON strings, which is the form
// the extraction pipeline decodes.
type optionRecord struct {
	ExpDate string `json:"exp_date"`
	Calls   string `json:"calls"`
	Puts    string `json:"puts"`
}

// Loader pulls the three datasets for a ticker from the source API and
// caches them under their snapshot keys.
type Loader struct {
	source *source.Client
	store  Setter
	log    *logrus.Entry
}

// New creates a loader over the given source client and cache.
func New(src *source.Client, st Setter, log *logrus.Entry) *Loader {
	return &Loader{source: src, store: st, log: log}
}

// Load fetches and caches the pricing, news and options datasets for one
// ticker, returning the keys they were stored under. The first failure
// aborts the remaining datasets.
func (l *Loader) Load(ctx context.Context, ticker string, date time.Time) (Keys, error) {
	keys := DatasetKeys(ticker, date)
	log := l.log.WithFields(logrus.Fields{"ticker": ticker, "date": date.Format("2006-01-02")})

	pricing, err := l.source.Pricing(ctx, ticker)
	if err != nil {
		return keys, err
	}
	if err := l.store.Set(ctx, keys.Pricing, pricing); err != nil {
		return keys, fmt.Errorf("failed to cache pricing for %s: %w", ticker, err)
	}
	log.WithFields(logrus.Fields{"key": keys.Pricing, "rows": len(pricing)}).Info("cached pricing")

	news, err := l.source.News(ctx, ticker)
	if err != nil {
		return keys, err
	}
	if err := l.store.Set(ctx, keys.News, news); err != nil {
		return keys, fmt.Errorf("failed to cache news for %s: %w", ticker, err)
	}
	log.WithFields(logrus.Fields{"key": keys.News, "rows": len(news)}).Info("cached news")

	chain, err := l.source.OptionChain(ctx, ticker)
	if err != nil {
		return keys, err
	}
	rec, err := encodeOptionRecord(chain)
	if err != nil {
		return keys, fmt.Errorf("failed to encode option chain for %s: %w", ticker, err)
	}
	if err := l.store.Set(ctx, keys.Options, rec); err != nil {
		return keys, fmt.Errorf("failed to cache option chain for %s: %w", ticker, err)
	}
	log.WithFields(logrus.Fields{
		"key":      keys.Options,
		"exp_date": chain.ExpDate,
		"calls":    len(chain.Calls),
		"puts":     len(chain.Puts),
	}).Info("cached option chain")

	return keys, nil
}

// encodeOptionRecord builds the nested cache envelope for an option chain.
func encodeOptionRecord(chain *source.OptionChainResponse) (optionRecord, error) {
	calls, err := json.Marshal(chain.Calls)
	if err != nil {
		return optionRecord{}, err
	}
	puts, err := json.Marshal(chain.Puts)
	if err != nil {
		return optionRecord{}, err
	}
	return optionRecord{
		ExpDate: chain.ExpDate,
		Calls:   string(calls),
		Puts:    string(puts),
	}, nil
}
