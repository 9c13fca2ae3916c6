package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
)

// TimeRange is a daily window in minutes since midnight, inclusive at both ends.
// Windows that cross midnight (start after end) parse but never match.
type TimeRange struct {
	Start int
	End   int
}

// ParseTimeRange parses "HH:MM-HH:MM".
func ParseTimeRange(s string) (TimeRange, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("%w: %q: expected HH:MM-HH:MM", echo_errors.ErrInvalidTimeRange, s)
	}
	start, err := parseClock(startStr)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q: start: %v", echo_errors.ErrInvalidTimeRange, s, err)
	}
	end, err := parseClock(endStr)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q: end: %v", echo_errors.ErrInvalidTimeRange, s, err)
	}
	return TimeRange{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hStr, mStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("missing ':' in %q", s)
	}
	if len(hStr) == 0 || len(hStr) > 2 || len(mStr) != 2 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	h, err := strconv.Atoi(hStr)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hour out of range in %q", s)
	}
	m, err := strconv.Atoi(mStr)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minute out of range in %q", s)
	}
	return h*60 + m, nil
}

// CrossesMidnight reports a window like 22:00-06:00, which is not supported.
func (tr TimeRange) CrossesMidnight() bool {
	return tr.Start > tr.End
}

// Contains compares the wall clock of t (hours and minutes, seconds ignored).
func (tr TimeRange) Contains(t time.Time) bool {
	current := t.Hour()*60 + t.Minute()
	return tr.Start <= current && current <= tr.End
}

func (tr TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", tr.Start/60, tr.Start%60, tr.End/60, tr.End%60)
}
