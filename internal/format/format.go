// Package format renders durations, sizes and costs for terminal output.
package format

import (
	"fmt"
	"time"
)

// Duration formats d as MM:SS, or HH:MM:SS from one hour up.
func Duration(d time.Duration) string {
	total := int64(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Size formats a byte count in whole MB, whole KB or bytes, whichever is
// the largest unit not exceeding it.
func Size(bytes int64) string {
	const (
		kib = 1 << 10
		mib = 1 << 20
	)
	switch {
	case bytes >= mib:
		return fmt.Sprintf("%d MB", bytes/mib)
	case bytes >= kib:
		return fmt.Sprintf("%d KB", bytes/kib)
	case bytes == 1:
		return "1 byte"
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// USD formats an amount in US dollars with six decimals,
// enough to show the cost of a single short request.
func USD(amount float64) string {
	return fmt.Sprintf("$%.6f", amount)
}
