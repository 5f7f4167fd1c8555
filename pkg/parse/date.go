package parse

import (
	"fmt"
	"strings"
	"time"
)

var isoFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date parses publication dates in the formats which are used by RSS (RFC 822 and its numerous deviations) and
// Atom (RFC 3339) feeds.
func Date(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("invalid date: %q", value)
	}

	for _, tz := range []string{"MST", "-0700"} {
		for _, year := range []string{"2006", "06"} {
			for _, day := range []string{"02", "2"} {
				for _, dayOfWeek := range []string{"Mon, ", "Monday, ", ""} {
					for _, seconds := range []string{":05", ""} {
						format := fmt.Sprintf("%s%s Jan %s 15:04%s %s", dayOfWeek, day, year, seconds, tz)
						if date, err := time.Parse(format, value); err == nil {
							return date, nil
						}
					}
				}
			}
		}
	}

	for _, format := range isoFormats {
		if date, err := time.Parse(format, value); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date: %q", value)
}
