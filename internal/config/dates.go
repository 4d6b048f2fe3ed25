package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseStartDate reads the start of a report window. Accepted forms: YYYY-MM-DD,
// RFC 3339, "today", and offsets relative to now such as -30d or -4w.
// Every form but RFC 3339 names a whole day and resolves to its first instant.
// An empty string yields the zero time (unset).
func ParseStartDate(s string, now time.Time) (time.Time, error) {
	t, wholeDay, err := parseDate(s, now)
	if err != nil || !wholeDay {
		return t, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
}

// ParseEndDate reads the end of a report window in the same forms as
// ParseStartDate. Whole days resolve to their last instant, so a completion
// at any time on the end day is inside the window.
func ParseEndDate(s string, now time.Time) (time.Time, error) {
	t, wholeDay, err := parseDate(s, now)
	if err != nil || !wholeDay {
		return t, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location()), nil
}

func parseDate(s string, now time.Time) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return time.Time{}, false, nil
	case strings.EqualFold(s, "today"):
		return now, true, nil
	case strings.HasPrefix(s, "-") && len(s) > 2:
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid relative date %q: %w", s, err)
		}
		switch s[len(s)-1] {
		case 'd':
			return now.AddDate(0, 0, -n), true, nil
		case 'w':
			return now.AddDate(0, 0, -7*n), true, nil
		}
		return time.Time{}, false, fmt.Errorf("invalid relative date %q: expected a d or w suffix", s)
	}

	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD, RFC 3339 or -N[d|w]", s)
}
