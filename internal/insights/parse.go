package insights

import (
	"math"
	"strings"

	"rms-insight-workers/internal/models"
)

// leadingInt parses the integer prefix of s the way browser parseInt does:
// surrounding space is ignored, an optional sign is honoured, and parsing
// stops at the first non-digit ("120.75" is 120, "89 EUR" is 89).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		if n > (math.MaxInt32-int(c-'0'))/10 {
			return 0, false
		}
		n = n*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// positiveRate returns the rate as a positive integer. Closed cells, blanks
// and anything that does not parse to a value above zero are rejected.
func positiveRate(raw string) (int, bool) {
	if isClosed(raw) {
		return 0, false
	}
	n, ok := leadingInt(raw)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

func isClosed(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), models.ClosedRate)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func roundInt(v float64) int { return int(math.Round(v)) }

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
