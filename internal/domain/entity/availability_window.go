package entity

import (
	"iter"
	"time"
)

// DefaultAvailabilityWindowDays is today plus the next six days
const DefaultAvailabilityWindowDays = 7

// DateLayout is the calendar date format used on the wire and in appointment records
const DateLayout = "2006-01-02"

// DayAvailability is one dated projection of the recurring grid
type DayAvailability struct {
	Date           time.Time
	DayName        string
	AvailableTimes []string
}

// Window projects the recurring grid onto the calendar days starting at the date of from.
// Days without any bookable slot are skipped. The returned sequence holds no state
// and can be ranged over any number of times.
func (g AvailabilityGrid) Window(from time.Time, days int) iter.Seq[DayAvailability] {
	start := StartOfDay(from)
	return func(yield func(DayAvailability) bool) {
		for i := 0; i < days; i++ {
			day := start.AddDate(0, 0, i)
			name := WeekdayName(day)
			times := g.BookableSlots(name)
			if len(times) == 0 {
				continue
			}
			if !yield(DayAvailability{Date: day, DayName: name, AvailableTimes: times}) {
				return
			}
		}
	}
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CalendarDate returns the calendar date of t as UTC midnight, the form stored on appointments
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
