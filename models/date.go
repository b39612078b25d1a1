package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const dateLayout = "2006-01-02"

// DateKey is a local calendar date. Day lookups compare keys, never timestamps.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDateKey normalises overflowing values (e.g. day 32) the same way time.Date does.
func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKeyOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateKeyOf returns the calendar date of t in t's own location.
func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// DateKeyIn returns the calendar date of t as seen in loc.
func DateKeyIn(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.Local
	}
	return DateKeyOf(t.In(loc))
}

func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKeyOf(t), nil
}

func (d DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d DateKey) IsZero() bool { return d == DateKey{} }

// Time returns local midnight of the date in loc.
func (d DateKey) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d DateKey) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d DateKey) AddDays(n int) DateKey {
	return NewDateKey(d.Year, d.Month, d.Day+n)
}

func (d DateKey) MonthKey() MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

// Compare returns -1, 0 or 1.
func (d DateKey) Compare(o DateKey) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d DateKey) Before(o DateKey) bool { return d.Compare(o) < 0 }
func (d DateKey) After(o DateKey) bool  { return d.Compare(o) > 0 }

func (d DateKey) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DateKey) UnmarshalText(b []byte) error {
	k, err := ParseDateKey(string(b))
	if err != nil {
		return err
	}
	*d = k
	return nil
}

// MarshalBSONValue stores the key as its YYYY-MM-DD string so range filters stay lexical.
func (d DateKey) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

func (d *DateKey) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("date: expected string, got %s", t)
	}
	return d.UnmarshalText([]byte(s))
}

// MonthKey identifies one calendar document.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthKey) AddMonths(n int) MonthKey {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

func (m MonthKey) FirstDay() DateKey {
	return DateKey{Year: m.Year, Month: m.Month, Day: 1}
}

func (m MonthKey) LastDay() DateKey {
	return m.AddMonths(1).FirstDay().AddDays(-1)
}

func (m MonthKey) Compare(o MonthKey) int {
	if m.Year != o.Year {
		return cmpInt(m.Year, o.Year)
	}
	return cmpInt(int(m.Month), int(o.Month))
}

func (m MonthKey) Before(o MonthKey) bool { return m.Compare(o) < 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
