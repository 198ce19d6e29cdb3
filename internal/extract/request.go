package extract

import "marketcache/internal/dataset"

// Sentinel keys substituted when a request carries no usable key. The fetch
// proceeds against the sentinel and reports a missing key naturally instead
// of erroring up front.
const (
	MissingRedisKey = "missing-redis-key"
	MissingS3Key    = "missing-s3-key"
)

const defaultLabel = "extract"

// WorkRequest is a caller-constructed description of one extraction. The
// pipeline operates on value copies and never mutates the caller's request.
//
// Pricing, News and Options are legacy alias fields: older callers supplied
// the cache key under the dataset's own name instead of RedisKey/S3Key.
// Normalize resolves them.
//
// RedisHost, RedisPort, RedisDB and Password are carried for callers that
// route requests across stores; the extractor itself is bound to one store
// client at construction.
type WorkRequest struct {
	Label    string
	Ticker   string
	RedisKey string
	S3Key    string

	RedisHost string
	RedisPort int
	RedisDB   int
	Password  string

	Pricing string
	News    string
	Options string
}

// alias returns the legacy alias key for the given dataset type, if set.
func (r WorkRequest) alias(ds dataset.Type) string {
	switch ds {
	case dataset.Pricing:
		return r.Pricing
	case dataset.News:
		return r.News
	case dataset.OptionCalls, dataset.OptionPuts:
		return r.Options
	default:
		return ""
	}
}

// label returns the request label, defaulting to "extract".
func (r WorkRequest) label() string {
	if r.Label == "" {
		return defaultLabel
	}
	return r.Label
}

// Normalize resolves the legacy alias field into the canonical key pair, on
// a copy of the request. If RedisKey is already set nothing changes; if the
// alias is set it supplies both RedisKey and S3Key. A request with neither
// passes through unchanged and the fetch step handles the missing key.
func Normalize(req WorkRequest, ds dataset.Type) WorkRequest {
	out := req
	if out.RedisKey == "" {
		if alias := req.alias(ds); alias != "" {
			out.RedisKey = alias
			out.S3Key = alias
		}
	}
	return out
}
