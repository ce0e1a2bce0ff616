package policycache

import (
	"encoding/json"
	"fmt"
)

// CanonicalKey derives the cache key for args from its JSON encoding.
// Equal encodings share an entry. Values encoding/json cannot represent
// (channels, functions, cyclic graphs, NaN) are rejected with ErrUnsupportedArgs.
// @group Keys
//
// Example: argument tuple key
//
//	key, _ := policycache.CanonicalKey([]any{"user", 42})
//	fmt.Println(key) // ["user",42]
func CanonicalKey(args any) (string, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedArgs, err)
	}
	return string(body), nil
}

func canonicalKeyOf[A any](args A) (string, error) {
	return CanonicalKey(args)
}
