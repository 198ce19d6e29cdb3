package dataset

// Type identifies which cached market dataset a request concerns.
type Type int

const (
	// Pricing is the daily pricing dataset for a ticker
	Pricing Type = iota
	// News is the headline/news dataset for a ticker
	News
	// OptionCalls is the calls side of the cached option chain
	OptionCalls
	// OptionPuts is the puts side of the cached option chain
	OptionPuts
)

// String returns the display tag used in log lines and error context.
func (t Type) String() string {
	switch t {
	case Pricing:
		return "pricing"
	case News:
		return "news"
	case OptionCalls:
		return "option-calls"
	case OptionPuts:
		return "option-puts"
	default:
		return "unknown"
	}
}

// RecordField returns the nested record field holding this type's serialized
// table, or "" for types whose payload is already tabular at the top level.
func (t Type) RecordField() string {
	switch t {
	case OptionCalls:
		return "calls"
	case OptionPuts:
		return "puts"
	default:
		return ""
	}
}

// OptionSide reports whether t is one of the two option chain sides, which
// decode a nested record locally instead of delegating to the generic path.
func (t Type) OptionSide() bool {
	return t == OptionCalls || t == OptionPuts
}
