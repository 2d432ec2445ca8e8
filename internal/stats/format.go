package stats

import "fmt"

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int64) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatShort renders seconds as "7h 5m", or "5m" below one hour.
func FormatShort(seconds int64) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatSigned renders a balance with an explicit sign, e.g. "+43h 0m".
func FormatSigned(seconds int64) string {
	if seconds < 0 {
		return "-" + FormatShort(-seconds)
	}
	return "+" + FormatShort(seconds)
}
