package display

import "github.com/smokyabdulrahman/salahclock/internal/prayer"

// Status styles text for a schedule entry: past entries are gray, current
// ones green and bold, upcoming ones plain.
func Status(s prayer.Status, text string) string {
	switch s {
	case prayer.StatusPast:
		return Gray(text)
	case prayer.StatusCurrent:
		return Bold(Green(text))
	default:
		return text
	}
}

// StatusLabel is a short marker for a status, used in plain output.
func StatusLabel(s prayer.Status) string {
	switch s {
	case prayer.StatusPast:
		return "done"
	case prayer.StatusCurrent:
		return "now"
	default:
		return ""
	}
}
