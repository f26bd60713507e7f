package reservation

import (
	"fmt"
	"time"
)

// SecondsUntil returns the whole seconds left before deadline, never negative.
func SecondsUntil(deadline, now time.Time) int64 {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// FormatRemaining renders seconds as M:SS with unbounded minutes.
func FormatRemaining(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
