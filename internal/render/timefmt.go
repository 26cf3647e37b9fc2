package render

import (
	"fmt"
	"time"
)

// ShortTime formats the clock part of t.
//
//	24h: "9:05", "14:30"
//	12h: "9.05am", "12pm", "2.30pm"
func ShortTime(t time.Time, is24Hour bool) string {
	h, m := t.Hour(), t.Minute()
	if is24Hour {
		return fmt.Sprintf("%d:%02d", h, m)
	}

	minutes := ""
	if m > 0 {
		minutes = fmt.Sprintf(".%02d", m)
	}
	switch {
	case h == 0:
		return "12" + minutes + "am"
	case h == 12:
		return "12" + minutes + "pm"
	case h > 12:
		return fmt.Sprintf("%d%spm", h-12, minutes)
	default:
		return fmt.Sprintf("%d%sam", h, minutes)
	}
}
