package calendar

import (
	"strings"

	"caredesk/models"
)

// HolidaySet flags dates on which no template-derived working hours are offered.
type HolidaySet map[models.DateKey]bool

// ParseHolidays reads YYYY-MM-DD entries, ignoring blanks.
func ParseHolidays(values []string) (HolidaySet, error) {
	set := make(HolidaySet, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		d, err := models.ParseDateKey(v)
		if err != nil {
			return nil, &models.ValidationError{Field: "CALENDAR_HOLIDAYS", Reason: err.Error()}
		}
		set[d] = true
	}
	return set, nil
}

func (h HolidaySet) IsHoliday(d models.DateKey) bool {
	return h[d]
}
