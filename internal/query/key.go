package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key addresses a cache entry: an ordered tuple of primitive identifiers such as ["meeting", id].
// Keys with equal parts address the same entry.
type Key struct {
	parts []any
	enc   []string
	hash  string
}

// NewKey builds a [Key]. Parts must be strings, booleans or numbers; anything else panics.
func NewKey(parts ...any) Key {
	cp := make([]any, len(parts))
	enc := make([]string, len(parts))
	for i, p := range parts {
		switch p.(type) {
		case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			cp[i] = p
		default:
			panic(fmt.Sprintf("query: key part %d has unsupported type %T", i, p))
		}
		data, err := json.Marshal(p)
		if err != nil {
			panic(fmt.Sprintf("query: cannot encode key part %d: %v", i, err))
		}
		enc[i] = string(data)
	}

	return Key{parts: cp, enc: enc, hash: "[" + strings.Join(enc, ",") + "]"}
}

// Parts returns a copy of the key's parts.
func (k Key) Parts() []any {
	return append([]any(nil), k.parts...)
}

// Len returns the number of parts.
func (k Key) Len() int {
	return len(k.parts)
}

// String renders the key as a JSON array.
func (k Key) String() string {
	if k.hash == "" {
		return "[]"
	}
	return k.hash
}

// Equal reports whether k and other have the same parts.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// HasPrefix reports whether the first parts of k equal prefix, compared in encoded form like [Key.Equal].
// Every key has itself as a prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.enc) > len(k.enc) {
		return false
	}
	for i, p := range prefix.enc {
		if k.enc[i] != p {
			return false
		}
	}
	return true
}
