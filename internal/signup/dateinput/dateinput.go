// Package dateinput implements the three-segment (month / day / year) birth
// date entry used by the first wizard step.
package dateinput

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Segment string

const (
	Month Segment = "month"
	Day   Segment = "day"
	Year  Segment = "year"
)

// ParseSegment maps an API segment name to a Segment.
func ParseSegment(s string) (Segment, error) {
	switch Segment(s) {
	case Month, Day, Year:
		return Segment(s), nil
	}
	return "", fmt.Errorf("unknown date segment %q", s)
}

type segmentRule struct {
	width    int
	padAbove int
	min, max int
	next     Segment
	prev     Segment
}

var segmentRules = map[Segment]segmentRule{
	Month: {width: 2, padAbove: 1, min: 1, max: 12, next: Day},
	Day:   {width: 2, padAbove: 3, min: 1, max: 31, next: Year, prev: Month},
	Year:  {width: 4, prev: Day},
}

// Segments is the visible widget state.
type Segments struct {
	Month string  `json:"month"`
	Day   string  `json:"day"`
	Year  string  `json:"year"`
	Focus Segment `json:"focus"`
}

// Widget holds the segment text and the focused segment. Every accepted
// change calls OnChange with the composed date, or nil when incomplete.
// Widget is not safe for concurrent use; the wizard controller serialises
// access.
type Widget struct {
	seg      Segments
	OnChange func(*time.Time)
}

func New(onChange func(*time.Time)) *Widget {
	return &Widget{seg: Segments{Focus: Month}, OnChange: onChange}
}

func (w *Widget) Segments() Segments { return w.seg }

func (w *Widget) Focus() Segment { return w.seg.Focus }

// SetFocus moves focus, as a click on a segment would.
func (w *Widget) SetFocus(s Segment) { w.seg.Focus = s }

func (w *Widget) text(s Segment) *string {
	switch s {
	case Month:
		return &w.seg.Month
	case Day:
		return &w.seg.Day
	default:
		return &w.seg.Year
	}
}

// Input applies the new raw text of a segment, the way a change event on the
// underlying text box would. Non-digits are stripped and the text is cut to
// the segment width.
func (w *Widget) Input(s Segment, raw string) {
	rule := segmentRules[s]
	val := digitsOnly(raw, rule.width)
	w.seg.Focus = s

	if rule.padAbove > 0 && len(val) == 1 && atoi(val) > rule.padAbove {
		*w.text(s) = "0" + val
		w.seg.Focus = rule.next
		w.notify()
		return
	}

	if rule.max > 0 && len(val) == rule.width {
		if n := atoi(val); n < rule.min || n > rule.max {
			return
		}
	}

	*w.text(s) = val
	if rule.next != "" && len(val) == rule.width {
		w.seg.Focus = rule.next
	}
	w.notify()
}

// Type appends one character to the focused segment.
func (w *Widget) Type(r rune) {
	s := w.seg.Focus
	w.Input(s, *w.text(s)+string(r))
}

// Backspace handles the key on segment s. On an empty day or year segment
// focus moves to the previous segment; on an empty month nothing happens.
// Otherwise the last digit is removed.
func (w *Widget) Backspace(s Segment) {
	cur := *w.text(s)
	if cur == "" {
		if prev := segmentRules[s].prev; prev != "" {
			w.seg.Focus = prev
		} else {
			w.seg.Focus = s
		}
		return
	}
	w.Input(s, cur[:len(cur)-1])
}

// SetValue initialises the segments from an existing date, or clears them.
func (w *Widget) SetValue(d *time.Time) {
	if d == nil {
		w.seg = Segments{Focus: Month}
	} else {
		w.seg.Month = fmt.Sprintf("%02d", int(d.Month()))
		w.seg.Day = fmt.Sprintf("%02d", d.Day())
		w.seg.Year = fmt.Sprintf("%04d", d.Year())
	}
	w.notify()
}

// Value returns the composed date or nil.
func (w *Widget) Value() *time.Time {
	return Compose(w.seg.Month, w.seg.Day, w.seg.Year)
}

func (w *Widget) notify() {
	if w.OnChange != nil {
		w.OnChange(w.Value())
	}
}

// Compose returns the date for fully populated segments. The day is only
// checked against [1,31], so Feb 30 normalises to early March.
func Compose(month, day, year string) *time.Time {
	if len(month) != 2 || len(day) != 2 || len(year) != 4 {
		return nil
	}
	m, d, y := atoi(month), atoi(day), atoi(year)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func digitsOnly(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == max {
				break
			}
		}
	}
	return b.String()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
