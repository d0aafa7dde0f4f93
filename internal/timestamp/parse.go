package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// minComponents is year, month, day, hour, minute.
const minComponents = 5

// field bounds, in component order.
var componentRanges = [minComponents]struct {
	name     string
	min, max int
}{
	{"year", 1, 9999},
	{"month", 1, 12},
	{"day", 1, 31},
	{"hour", 0, 23},
	{"minute", 0, 59},
}

// ParseName extracts the capture time from name. The prefix is stripped if
// present, "-" and "_" are treated as "." and the first five dot-separated
// components are read as year, month, day, hour and minute; anything after
// them (seconds, extension) is ignored. Seconds are always zero. The wall
// clock time is interpreted in loc, whose rules decide the DST offset.
func ParseName(name, prefix string, loc *time.Location) (time.Time, error) {
	s := name
	if prefix != "" {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.NewReplacer("-", ".", "_", ".").Replace(s)
	parts := strings.Split(s, ".")
	if len(parts) < minComponents {
		return time.Time{}, &ParseError{Name: name, Reason: "fewer than 5 date components"}
	}

	var v [minComponents]int
	for i, r := range componentRanges {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, &ParseError{Name: name, Reason: r.name + " " + strconv.Quote(parts[i]) + " is not a number"}
		}
		if n < r.min || n > r.max {
			return time.Time{}, &ParseError{Name: name, Reason: r.name + " " + parts[i] + " out of range"}
		}
		v[i] = n
	}

	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], 0, 0, loc)
	if t.Day() != v[2] {
		return time.Time{}, &ParseError{Name: name, Reason: "day " + parts[2] + " does not exist in that month"}
	}
	return t, nil
}
