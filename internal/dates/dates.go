// Package dates resolves the human date expressions accepted on the
// command line, like "yesterday" or "last friday", into concrete days
// and day ranges.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DayFormat is the wire format for record dates.
const DayFormat = "2006-01-02"

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Range is an inclusive span of days. From and To are midnight in the
// location of the reference time.
type Range struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the wire-format date day falls inside the
// range, bounds included. Unparseable dates are outside every range.
func (r Range) Contains(day string) bool {
	t, err := time.ParseInLocation(DayFormat, day, r.From.Location())
	if err != nil {
		return false
	}
	return !t.Before(r.From) && !t.After(r.To)
}

// String renders the range for headers, collapsing single days.
func (r Range) String() string {
	if r.From.Equal(r.To) {
		return r.From.Format(DayFormat)
	}
	return r.From.Format(DayFormat) + " to " + r.To.Format(DayFormat)
}

// ParseDay resolves one day expression relative to now. Wire-format
// dates pass through untouched; anything else goes to the natural
// language parser.
func ParseDay(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if t, err := time.ParseInLocation(DayFormat, expr, now.Location()); err == nil {
		return t, nil
	}

	r, err := parser.Parse(expr, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", expr, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand date %q", expr)
	}
	return startOfDay(r.Time), nil
}

// ParseRange resolves a range expression relative to now. Accepted
// forms, besides anything ParseDay takes for a single day:
//
//	""               today
//	"week"           the last 7 days ending today
//	"month"          the last 30 days ending today
//	"<from>..<to>"   two day expressions
func ParseRange(expr string, now time.Time) (Range, error) {
	expr = strings.TrimSpace(expr)
	today := startOfDay(now)

	switch strings.ToLower(expr) {
	case "", "today":
		return Range{From: today, To: today}, nil
	case "week":
		return Range{From: today.AddDate(0, 0, -6), To: today}, nil
	case "month":
		return Range{From: today.AddDate(0, 0, -29), To: today}, nil
	}

	if from, to, ok := strings.Cut(expr, ".."); ok {
		f, err := ParseDay(from, now)
		if err != nil {
			return Range{}, err
		}
		t, err := ParseDay(to, now)
		if err != nil {
			return Range{}, err
		}
		if t.Before(f) {
			f, t = t, f
		}
		return Range{From: f, To: t}, nil
	}

	d, err := ParseDay(expr, now)
	if err != nil {
		return Range{}, err
	}
	return Range{From: d, To: d}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
