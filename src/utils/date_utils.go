package utils

import (
	"fmt"
	"time"

	"github.com/mmngreco/ine-go/src/ine"
)

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date in either YYYY-MM-DD or YYYYMMDD form.
func ParseDate(dateStr string) (time.Time, error) {
	for _, layout := range []string{DefaultDateFormat, ine.DateLayout} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD or YYYYMMDD", ine.ErrInvalidQuery, dateStr)
}

// RangeFromBounds builds a date range from optional from/to bounds.
// It returns nil when both are empty.
func RangeFromBounds(from, to string) (ine.DateSpec, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var rng ine.DateRange
	if from != "" {
		t, err := ParseDate(from)
		if err != nil {
			return nil, err
		}
		rng.Start = string(ine.DateOf(t))
	}
	if to != "" {
		t, err := ParseDate(to)
		if err != nil {
			return nil, err
		}
		rng.End = string(ine.DateOf(t))
	}
	if rng.Start != "" && rng.End != "" && rng.Start > rng.End {
		return nil, fmt.Errorf("%w: from %s is after to %s", ine.ErrInvalidQuery, from, to)
	}
	return rng, nil
}
