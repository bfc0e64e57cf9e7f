package uplink

import "time"

// backoffCap is the multiplier ceiling for reconnect delays.
const backoffCap = 3

// ReconnectDelay returns base × min(attempt, 3). Attempts below 1 count as 1.
func ReconnectDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > backoffCap {
		attempt = backoffCap
	}
	return base * time.Duration(attempt)
}
