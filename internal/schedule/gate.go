// Package schedule decides whether a digest is due on a given day.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays accepts short or long English day names in any case
// ("fri", "Friday"). The ranges "weekdays" and "everyday" are also understood.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)

	add := func(d time.Weekday) {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "weekdays":
			for d := time.Monday; d <= time.Friday; d++ {
				add(d)
			}
			continue
		case "everyday", "daily":
			for d := time.Sunday; d <= time.Saturday; d++ {
				add(d)
			}
			continue
		}

		if len(name) < 3 {
			return nil, fmt.Errorf("unknown weekday %q", raw)
		}
		d, ok := weekdayNames[name[:3]]
		if !ok || !strings.HasPrefix(strings.ToLower(d.String()), name) {
			return nil, fmt.Errorf("unknown weekday %q", raw)
		}
		add(d)
	}

	return days, nil
}

// Gate allows runs on a fixed set of weekdays. A gate without days allows
// every day.
type Gate struct {
	Days     []time.Weekday
	Location *time.Location
}

func NewGate(names []string, loc *time.Location) (*Gate, error) {
	days, err := ParseWeekdays(names)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &Gate{Days: days, Location: loc}, nil
}

func (g *Gate) Allows(t time.Time) bool {
	if len(g.Days) == 0 {
		return true
	}
	if g.Location != nil {
		t = t.In(g.Location)
	}
	for _, d := range g.Days {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}

// String lists the allowed days, e.g. "Monday, Friday".
func (g *Gate) String() string {
	if len(g.Days) == 0 {
		return "every day"
	}
	names := make([]string, len(g.Days))
	for i, d := range g.Days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}
