package scheduling

import (
	"fmt"
	"time"
)

const (
	DefaultSlotMinutes = 30
	MinSlotMinutes     = 5
	MaxSlotMinutes     = 120
)

// TimeRange is a half-open [Start, End) window of wall-clock "HH:MM" times
// within a single date.
type TimeRange struct {
	Start string
	End   string
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// ParseClock parses an "HH:MM" 24-hour wall-clock time into minutes since
// midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, badRequestf("invalid_time", "invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight back into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a "YYYY-MM-DD" calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, badRequestf("invalid_date", "invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DateOnly strips the time-of-day component, keeping UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GenerateSlots splits [start, end) into consecutive windows of exactly
// durationMin minutes. A trailing remainder shorter than the duration is
// dropped, never emitted as a short slot.
func GenerateSlots(start, end string, durationMin int) ([]TimeRange, error) {
	if durationMin < MinSlotMinutes || durationMin > MaxSlotMinutes {
		return nil, ErrInvalidDuration
	}

	startMin, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return nil, err
	}
	if startMin >= endMin {
		return nil, ErrInvalidRange
	}

	var ranges []TimeRange
	for cur := startMin; cur+durationMin <= endMin; cur += durationMin {
		ranges = append(ranges, TimeRange{
			Start: FormatClock(cur),
			End:   FormatClock(cur + durationMin),
		})
	}
	return ranges, nil
}

// Overlaps reports whether two half-open windows intersect. Windows that
// merely touch ("10:00-11:00" and "11:00-12:00") do not overlap.
//
// "HH:MM" strings compare correctly as strings, no parsing needed here.
func Overlaps(a, b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// FindOverlap returns the first existing window that intersects the
// candidate, in the order given.
func FindOverlap(candidate TimeRange, existing []TimeRange) (TimeRange, bool) {
	for _, r := range existing {
		if Overlaps(candidate, r) {
			return r, true
		}
	}
	return TimeRange{}, false
}
