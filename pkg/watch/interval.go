package watch

import (
	"fmt"
	"time"
)

// FormatInterval formats a duration for display, using a day unit for long intervals
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if mins := int(d.Minutes()) % 60; mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	if hours := int(d.Hours()) % 24; hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string, additionally accepting a leading day count ("1d12h")
func ParseInterval(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	var days int
	var remaining string
	if n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining); n >= 1 {
		d := time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30s, 5m, 1h, 1d)", s)
}
