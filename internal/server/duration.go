package server

import (
	"fmt"
	"time"
)

// FormatDuration renders d in the largest unit that is at least one, with
// three decimals truncated: "1.500s", "250.000ms", "40.000µs", "900ns".
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fixed(d, time.Second, "s")
	case d >= time.Millisecond:
		return fixed(d, time.Millisecond, "ms")
	case d >= time.Microsecond:
		return fixed(d, time.Microsecond, "µs")
	default:
		return fmt.Sprintf("%dns", int64(d))
	}
}

func fixed(d, unit time.Duration, suffix string) string {
	whole := d / unit
	frac := (d % unit) * 1000 / unit
	return fmt.Sprintf("%d.%03d%s", int64(whole), int64(frac), suffix)
}
