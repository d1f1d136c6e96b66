// Package rank implements fixed-width decimal rank keys and fractional
// allocation of new keys between existing ones. Keys sort identically as
// strings and as integers, so the database can order rows with a plain
// ORDER BY on the key column.
package rank

import "strconv"

const (
	// Width is the fixed digit count of every encoded key.
	Width = 16
	// Max is the largest value a key can hold (Width nines).
	Max uint64 = 9999999999999999
)

// DefaultKey is the key given to the first item of an empty container.
const DefaultKey = "8888888888888888"

// Encode zero-pads n to Width digits. Values wider than Width keep only the
// least-significant Width digits; inputs inside [0, Max] never hit that path.
func Encode(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) > Width {
		return s[len(s)-Width:]
	}
	if len(s) == Width {
		return s
	}
	pad := make([]byte, Width-len(s))
	for i := range pad {
		pad[i] = '0'
	}
	return string(pad) + s
}

// Decode parses a key back to its numeric value. Empty input decodes to 0.
func Decode(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
