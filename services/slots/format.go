package slots

import "fmt"

// FormatMinutes renders a minute offset as HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func FormatRange(start, end int) string {
	return FormatMinutes(start) + " - " + FormatMinutes(end)
}

// ParseClock parses HH:MM into a minute offset; "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}
