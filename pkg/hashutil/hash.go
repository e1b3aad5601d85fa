// Package hashutil computes the content hashes the sync pipelines use
// for change detection (spec §4.1). The algorithm and field order are
// frozen: changing either is a schema-breaking migration, never a
// casual refactor.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// sentinel separates fields in the hash input. It cannot appear in any
// semantic field synchronized by this system.
const sentinel = "\x1f"

// Compute returns the hex-encoded SHA-256 digest of fields, joined in
// the order given with sentinel between them. Each field is coerced by
// Canon: nil, nil pointers and zero times become the empty string.
func Compute(fields ...any) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = Canon(f)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, sentinel)))
	return hex.EncodeToString(sum[:])
}

// Canon coerces a field to its canonical string form for hashing. nil,
// nil pointers and zero times coerce to the empty string; zero numbers
// and false keep their formatted value ("0", "false"); any other type
// coerces to the empty string.
func Canon(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case int:
		return strconv.Itoa(t)
	case *int:
		if t == nil {
			return ""
		}
		return strconv.Itoa(*t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case *float64:
		if t == nil {
			return ""
		}
		return strconv.FormatFloat(*t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}
