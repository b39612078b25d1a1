// Package interval implements half-open minute-of-day interval arithmetic.
// Every function is pure; malformed input is dropped and logged, never panics.
package interval

import (
	"sort"

	"go.uber.org/zap"
)

// DayMinutes is the upper bound of a minute offset.
const DayMinutes = 1440

// Interval is [Start, End) in minutes since midnight.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func New(start, end int) Interval { return Interval{Start: start, End: end} }

// Valid reports 0 <= start < end <= 1440.
func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.Start < iv.End && iv.End <= DayMinutes
}

func (iv Interval) Len() int { return iv.End - iv.Start }

// Contains reports whether o lies entirely inside iv.
func (iv Interval) Contains(o Interval) bool {
	return o.Start >= iv.Start && o.End <= iv.End
}

// Overlaps is the half-open overlap test; touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

func (iv Interval) Overlaps(o Interval) bool {
	return Overlaps(iv.Start, iv.End, o.Start, o.End)
}

// Clamp intersects iv with [min, max). ok is false when the result is empty or inverted.
func Clamp(iv Interval, min, max int) (Interval, bool) {
	s, e := iv.Start, iv.End
	if s < min {
		s = min
	}
	if e > max {
		e = max
	}
	if s >= e {
		return Interval{}, false
	}
	return Interval{Start: s, End: e}, true
}

// Sanitize drops malformed intervals, logging each one.
func Sanitize(in []Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Valid() {
			zap.L().Warn("dropping malformed interval", zap.Int("start", iv.Start), zap.Int("end", iv.End))
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Merge sorts by start and coalesces any pair where next.Start <= cur.End,
// returning the minimal disjoint set. The input slice is not modified.
func Merge(in []Interval) []Interval {
	valid := Sanitize(in)
	if len(valid) == 0 {
		return []Interval{}
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End < valid[j].End
	})

	out := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		cur := &out[len(out)-1]
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Subtract returns the parts of base not covered by busy. busy must already be merged.
func Subtract(base Interval, busy []Interval) []Interval {
	if !base.Valid() {
		zap.L().Warn("dropping malformed base interval", zap.Int("start", base.Start), zap.Int("end", base.End))
		return []Interval{}
	}
	free := []Interval{}
	cursor := base.Start
	for _, b := range busy {
		if b.End <= cursor {
			continue
		}
		if b.Start >= base.End {
			break
		}
		if b.Start > cursor {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
		if cursor >= base.End {
			break
		}
	}
	if cursor < base.End {
		free = append(free, Interval{Start: cursor, End: base.End})
	}
	return free
}

// Total is the summed length of a disjoint set.
func Total(in []Interval) int {
	n := 0
	for _, iv := range in {
		n += iv.Len()
	}
	return n
}
