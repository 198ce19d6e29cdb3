package status

import "fmt"

// Status is the three-way-plus result code shared between the cache writer
// and the extraction pipeline. The pipeline only decodes a record on Success;
// every other value short-circuits with no table.
type Status int

const (
	// Success indicates the record was found and every step completed
	Success Status = 0
	// Failed indicates the producing job ran but could not build the dataset
	Failed Status = 1
	// Err indicates a transport fault or a malformed cached record
	Err Status = 2
	// Ex indicates the producing job died on an unhandled fault
	Ex Status = 3
	// NotRun is the initial state, and what a missing key resolves to
	NotRun Status = 4
	// MissingData indicates the record exists but carries no usable payload
	MissingData Status = 16
)

var names = map[Status]string{
	Success:     "SUCCESS",
	Failed:      "FAILED",
	Err:         "ERR",
	Ex:          "EX",
	NotRun:      "NOT_RUN",
	MissingData: "MISSING_DATA",
}

// String returns the canonical upper-case name for logging and errors.
func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// Valid reports whether s is one of the recognized status codes.
func (s Status) Valid() bool {
	_, ok := names[s]
	return ok
}
