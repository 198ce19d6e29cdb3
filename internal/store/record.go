package store

import (
	"encoding/json"

	"marketcache/internal/status"
)

// Record is the discriminated result of a fetch-by-key. Key absence is a
// normal outcome expressed through Status, never through an error; errors are
// reserved for connection-level faults. Data is set only on Success.
type Record struct {
	Status status.Status
	Data   json.RawMessage
}
