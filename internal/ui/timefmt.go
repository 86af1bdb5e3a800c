package ui

import (
	"fmt"
	"time"
)

// formatAgoWithNow formats a past time relative to now.
func formatAgoWithNow(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}

	yesterday := now.AddDate(0, 0, -1)
	if t.Day() == yesterday.Day() && t.Month() == yesterday.Month() && t.Year() == yesterday.Year() {
		return "yesterday"
	}
	if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2 '06")
}

// FormatAgo formats t relative to the current time.
func FormatAgo(t time.Time) string {
	return formatAgoWithNow(t, time.Now())
}
