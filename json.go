package policycache

import "encoding/json"

// JSONLiteral is the set of scalar JSON value kinds.
type JSONLiteral interface {
	~string | ~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// JSON constrains values exchanged with durable storage to JSON-shaped types:
// literals, objects, arrays, or an already encoded json.RawMessage.
//
// Go constraints cannot recurse, so the elements of objects and arrays are
// typed any; they must themselves be JSON values (nil encodes as null).
type JSON interface {
	JSONLiteral | ~map[string]any | ~[]any | json.RawMessage
}
