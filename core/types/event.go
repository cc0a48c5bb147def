package types

import "sort"

// Event is the flattened form of a ledger event: a dotted type name and
// string attributes, ready for logs and indexers.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Pairs returns the attributes as alternating key/value arguments in key
// order, the shape slog expects.
func (e *Event) Pairs() []any {
	if e == nil || len(e.Attributes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e.Attributes))
	for key := range e.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]any, 0, 2*len(keys))
	for _, key := range keys {
		out = append(out, key, e.Attributes[key])
	}
	return out
}
