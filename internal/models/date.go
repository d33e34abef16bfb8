// internal/models/date.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire layout for check-in dates.
const DayLayout = "2006-01-02"

var dateLayouts = []string{
	DayLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date is a calendar day. Upstream APIs send it either as a plain day or as a
// full timestamp, so decoding accepts both and drops the time of day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses any accepted layout and truncates to the UTC day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognised date %q", s)
}

func (d Date) SameDay(o Date) bool {
	return !d.IsZero() && !o.IsZero() &&
		d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

// Within reports whether d falls inside [from, to], both ends inclusive.
func (d Date) Within(from, to Date) bool {
	if d.IsZero() || from.IsZero() || to.IsZero() {
		return false
	}
	return !d.Before(from.Time) && !d.After(to.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DayLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DayLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*d = Date{}
		return nil
	}
	// unparseable days decode to the zero Date so one bad record cannot fail a whole payload
	parsed, _ := ParseDate(s)
	*d = parsed
	return nil
}
