package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sudorandom/expansion-globe/pkg/geo"
)

// Date is a calendar-naive day. Month and day are not range checked; month
// 13 or day 40 are carried through as given.
type Date struct {
	Year, Month, Day int
}

// ParseDate reads "Y-M-D". Missing month or day default to 1; any part that
// is present must be an integer.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 3 {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	d := Date{Month: 1, Day: 1}
	dst := []*int{&d.Year, &d.Month, &d.Day}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		*dst[i] = v
	}
	return d, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// Event is one scheduled visit.
type Event struct {
	ID          string
	Name        string
	Start       Date
	End         *Date
	Description string
	Coordinates *geo.LngLat
	Visited     bool
}

// NewEvent returns an unvisited event with a fresh identifier.
func NewEvent(name string, start Date) Event {
	return Event{ID: uuid.NewString(), Name: name, Start: start}
}
