package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrSlotNotFound = errors.New("the selected time slot is not available")
	ErrSlotFull     = errors.New("the selected time slot is already full")
	ErrInvalidGrid  = errors.New("invalid availability grid")
)

// SlotMarker is one unit of capacity within a slot
type SlotMarker int

const (
	SlotFree     SlotMarker = 0
	SlotOccupied SlotMarker = 1
)

// OccupancySequence holds the markers of one slot. Its length is the slot capacity.
type OccupancySequence []SlotMarker

// IsBookable reports whether at least one marker is free
func (s OccupancySequence) IsBookable() bool {
	return slices.Contains(s, SlotFree)
}

// Capacity returns the number of parallel consultation units
func (s OccupancySequence) Capacity() int {
	return len(s)
}

// Occupied returns the number of occupied markers
func (s OccupancySequence) Occupied() int {
	n := 0
	for _, m := range s {
		if m == SlotOccupied {
			n++
		}
	}
	return n
}

func (s OccupancySequence) flipFirst(from, to SlotMarker) bool {
	i := slices.Index(s, from)
	if i < 0 {
		return false
	}
	s[i] = to
	return true
}

// DaySlots maps a slot label (e.g. "10:00-10:30") to its markers
type DaySlots map[string]OccupancySequence

// AvailabilityGrid is a doctor's weekly recurring availability: weekday name -> slots.
// Weekday names are the calendar labels produced by time.Weekday.String().
type AvailabilityGrid map[string]DaySlots

// WeekdayName returns the grid key for the weekday of t
func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}

// Sequence returns the markers for a weekday and slot label
func (g AvailabilityGrid) Sequence(day, slot string) (OccupancySequence, error) {
	slots, ok := g[day]
	if !ok {
		return nil, ErrSlotNotFound
	}
	seq, ok := slots[slot]
	if !ok || len(seq) == 0 {
		return nil, ErrSlotNotFound
	}
	return seq, nil
}

// IsBookable reports whether the slot exists and has a free marker
func (g AvailabilityGrid) IsBookable(day, slot string) bool {
	seq, err := g.Sequence(day, slot)
	if err != nil {
		return false
	}
	return seq.IsBookable()
}

// OccupyFirstFree flips the first free marker of the slot to occupied.
// The grid is left untouched when an error is returned.
func (g AvailabilityGrid) OccupyFirstFree(day, slot string) error {
	seq, err := g.Sequence(day, slot)
	if err != nil {
		return err
	}
	if !seq.flipFirst(SlotFree, SlotOccupied) {
		return ErrSlotFull
	}
	return nil
}

// FreeFirstOccupied flips the first occupied marker of the slot back to free.
// It returns false without error when nothing is occupied, so freeing twice is harmless.
func (g AvailabilityGrid) FreeFirstOccupied(day, slot string) (bool, error) {
	seq, err := g.Sequence(day, slot)
	if err != nil {
		return false, err
	}
	return seq.flipFirst(SlotOccupied, SlotFree), nil
}

// BookableSlots returns the slot labels of a weekday that still have capacity,
// ordered by start time.
func (g AvailabilityGrid) BookableSlots(day string) []string {
	slots := g[day]
	labels := make([]string, 0, len(slots))
	for label, seq := range slots {
		if seq.IsBookable() {
			labels = append(labels, label)
		}
	}
	SortSlotLabels(labels)
	return labels
}

// Clone returns a deep copy of the grid
func (g AvailabilityGrid) Clone() AvailabilityGrid {
	if g == nil {
		return nil
	}
	out := make(AvailabilityGrid, len(g))
	for day, slots := range g {
		daySlots := make(DaySlots, len(slots))
		for label, seq := range slots {
			daySlots[label] = slices.Clone(seq)
		}
		out[day] = daySlots
	}
	return out
}

// Validate checks weekday keys, slot labels and marker values
func (g AvailabilityGrid) Validate() error {
	for day, slots := range g {
		if !isWeekdayName(day) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidGrid, day)
		}
		for label, seq := range slots {
			if strings.TrimSpace(label) == "" {
				return fmt.Errorf("%w: empty slot label on %s", ErrInvalidGrid, day)
			}
			if len(seq) == 0 {
				return fmt.Errorf("%w: slot %s on %s has no capacity", ErrInvalidGrid, label, day)
			}
			for _, m := range seq {
				if m != SlotFree && m != SlotOccupied {
					return fmt.Errorf("%w: slot %s on %s has marker %d", ErrInvalidGrid, label, day, m)
				}
			}
		}
	}
	return nil
}

// Value returns json value, implement driver.Valuer interface
func (g AvailabilityGrid) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	return json.Marshal(g)
}

// Scan scan value into AvailabilityGrid, implements sql.Scanner interface
func (g *AvailabilityGrid) Scan(value interface{}) error {
	if value == nil {
		*g = nil
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("failed to unmarshal availability grid: %w", err)
	}

	grid := AvailabilityGrid{}
	if err := json.Unmarshal(raw, &grid); err != nil {
		return err
	}
	*g = grid
	return nil
}

// jsonBytes accepts what database/sql hands a jsonb Scanner
func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb value of type %T", value)
	}
}

var weekdayNames = func() []string {
	names := make([]string, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		names[d] = d.String()
	}
	return names
}()

func isWeekdayName(s string) bool {
	return slices.Contains(weekdayNames, s)
}

// SortSlotLabels orders labels by their parsed start time, falling back to
// lexical order for labels that do not start with a clock time.
func SortSlotLabels(labels []string) {
	slices.SortFunc(labels, CompareSlotLabels)
}

// CompareSlotLabels orders two slot labels the way SortSlotLabels does
func CompareSlotLabels(a, b string) int {
	ta, okA := slotStart(a)
	tb, okB := slotStart(b)
	switch {
	case okA && okB && !ta.Equal(tb):
		return ta.Compare(tb)
	case okA != okB:
		if okA {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

var slotStartLayouts = []string{"15:04", "3:04PM", "3:04 PM", "3:04pm", "3:04 pm"}

func slotStart(label string) (time.Time, bool) {
	start, _, _ := strings.Cut(label, "-")
	start = strings.TrimSpace(start)
	for _, layout := range slotStartLayouts {
		if t, err := time.Parse(layout, start); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
