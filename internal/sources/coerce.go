package sources

import (
	"strconv"
	"strings"
)

// flexInt is the one safe-coercion point for upstream numeric fields. The
// Data API returns statistics as quoted strings, the capture process writes
// bare numbers, and either may be absent or garbage; this type swallows all
// of those shapes so a malformed field can never fail a whole payload.
type flexInt struct {
	raw string
}

// UnmarshalJSON accepts numbers, numeric strings and null. It never errors.
func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		s = ""
	}
	f.raw = s
	return nil
}

// Int64 returns the coerced value, or def on anything unparseable or
// negative.
func (f flexInt) Int64(def int64) int64 {
	s := strings.TrimSpace(f.raw)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some upstreams send counts as floats.
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return def
		}
		n = int64(fl)
	}
	if n < 0 {
		return def
	}
	return n
}
