package printer

import (
	"fmt"
	"time"
)

// TimeAgo returns a compact relative time, e.g. "42s ago", "3m ago", "5h ago" or "2d ago".
func TimeAgo(t time.Time) string {
	return timeAgo(time.Now(), t)
}

func timeAgo(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	switch {
	case diff < 0:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}

// FormatTimestamp returns a formatted timestamp string in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
