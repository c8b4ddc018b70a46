package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeWindow is a bookable start-end clock slot on a visit date. Times
// are local park time, normalized to HH:MM.
type TimeWindow struct {
	Start string
	End   string
}

func (w TimeWindow) String() string {
	return w.Start + "-" + w.End
}

func (w TimeWindow) IsZero() bool {
	return w.Start == "" && w.End == ""
}

func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.Start == other.Start && w.End == other.End
}

// Validate checks both bounds parse and start precedes end.
func (w TimeWindow) Validate() error {
	s, err := clockMinutes(w.Start)
	if err != nil {
		return fmt.Errorf("window start: %w", err)
	}
	e, err := clockMinutes(w.End)
	if err != nil {
		return fmt.Errorf("window end: %w", err)
	}
	if s >= e {
		return fmt.Errorf("window %s: start must precede end", w)
	}
	return nil
}

// StartOn anchors the window's start time on the given date.
func (w TimeWindow) StartOn(date time.Time) time.Time {
	m, err := clockMinutes(w.Start)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), m/60, m%60, 0, 0, date.Location())
}

// ParseWindow accepts "HH:MM-HH:MM".
func ParseWindow(s string) (TimeWindow, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return TimeWindow{}, fmt.Errorf("window %q: want HH:MM-HH:MM", s)
	}
	w := TimeWindow{Start: NormalizeClock(parts[0]), End: NormalizeClock(parts[1])}
	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}

// NormalizeClock trims a clock time to HH:MM, dropping seconds the
// backend sometimes appends.
func NormalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 8 && strings.Count(s, ":") == 2 {
		return s[:5]
	}
	if len(s) == 4 && strings.Count(s, ":") == 1 {
		// H:MM
		return "0" + s
	}
	return s
}

// ContainsWindow reports whether target is a member of the set.
func ContainsWindow(set []TimeWindow, target TimeWindow) bool {
	for _, w := range set {
		if w.Equal(target) {
			return true
		}
	}
	return false
}

func clockMinutes(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	return h*60 + m, nil
}
