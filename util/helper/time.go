package helper_util

import (
	"fmt"
	"time"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
)

const dateLayout = "2006-01-02"

// ParseTime accepts RFC 3339 timestamps.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ParseDateBound parses a date filter. A bare date (2006-01-02) is read in
// UTC; as an upper bound it covers the whole day through 23:59:59.999.
func ParseDateBound(s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		if upper {
			t = EndOfDay(t)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable date %q", echo_errors.ErrInvalidSearchCriteria, s)
	}
	return &t, nil
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
