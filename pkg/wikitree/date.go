package wikitree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// PartialDate is a date that may omit the day and/or the month. WikiTree
// records are frequently incomplete ("1922-05", or just "1895"), so missing
// components are represented explicitly instead of being defaulted. A zero
// component means unknown; the zero value means the whole date is unknown.
type PartialDate struct {
	Year  int
	Month int
	Day   int
}

var partialDatePattern = regexp.MustCompile(`^(\d{4})(?:-(\d{1,2})(?:-(\d{1,2}))?)?$`)

// ParsePartialDate interprets a raw date field. The primary grammar is
// YYYY[-MM[-DD]]; textual dates ("2 Mar 1895") fall back to dateparse. An
// empty string is a valid unknown date.
func ParsePartialDate(raw string) (PartialDate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PartialDate{}, nil
	}

	if m := partialDatePattern.FindStringSubmatch(raw); m != nil {
		date := PartialDate{}
		date.Year, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			date.Month, _ = strconv.Atoi(m[2])
			if date.Month < 1 || date.Month > 12 {
				return PartialDate{}, fmt.Errorf("month %d out of range in %q", date.Month, raw)
			}
		}
		if m[3] != "" {
			date.Day, _ = strconv.Atoi(m[3])
			if date.Day < 1 || date.Day > 31 {
				return PartialDate{}, fmt.Errorf("day %d out of range in %q", date.Day, raw)
			}
		}
		return date, nil
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return PartialDate{}, fmt.Errorf("cannot interpret %q as a date", raw)
	}
	return PartialDate{
		Year:  parsed.Year(),
		Month: int(parsed.Month()),
		Day:   parsed.Day(),
	}, nil
}

// IsZero reports whether the date is fully unknown.
func (d PartialDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the known prefix of the date: "1922-05-07", "1922-05",
// "1922", or "" when nothing is known.
func (d PartialDate) String() string {
	switch {
	case d.Year == 0:
		return ""
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// Time converts a fully known date to a time.Time at midnight UTC. The second
// return is false when any component is unknown.
func (d PartialDate) Time() (time.Time, bool) {
	if d.Year == 0 || d.Month == 0 || d.Day == 0 {
		return time.Time{}, false
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC), true
}
