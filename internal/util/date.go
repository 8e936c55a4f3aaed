package util

import (
	"fmt"
	"strings"
	"time"
)

// Day-first layouts come before ISO ones: the work-order sheets are
// UK-formatted, so 04/05/2026 is the 4th of May.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// ParseDayFirst parses the spreadsheet date formats seen in work-order
// exports, preferring day-first readings of ambiguous values.
func ParseDayFirst(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}
