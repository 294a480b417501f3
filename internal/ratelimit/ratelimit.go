package ratelimit

import (
	"sync"
	"time"
)

// ClientLimiter enforces per-client request limits on the public write
// endpoints (inquiry submission, admin login). Each client key holds sliding
// minute and hour windows.
type ClientLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	clients map[string]*clientWindows
	mu      sync.Mutex
}

type clientWindows struct {
	minuteWindow []time.Time
	hourWindow   []time.Time
}

// NewClientLimiter creates a new per-client rate limiter with the given limits
func NewClientLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *ClientLimiter {
	return &ClientLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		clients:           make(map[string]*clientWindows),
	}
}

// AllowRequest checks if a request from the given client key is allowed.
// Returns true if allowed, false if rate limit exceeded
func (rl *ClientLimiter) AllowRequest(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	cw, ok := rl.clients[key]
	if !ok {
		cw = &clientWindows{}
		rl.clients[key] = cw
	}

	// Clean up old entries
	cw.cleanup(now)

	// Check limits
	if rl.requestsPerMinute > 0 && len(cw.minuteWindow) >= rl.requestsPerMinute {
		return false
	}
	if rl.requestsPerHour > 0 && len(cw.hourWindow) >= rl.requestsPerHour {
		return false
	}

	// Record the request
	cw.minuteWindow = append(cw.minuteWindow, now)
	cw.hourWindow = append(cw.hourWindow, now)

	return true
}

// cleanup removes expired entries from the time windows
func (cw *clientWindows) cleanup(now time.Time) {
	minuteAgo := now.Add(-1 * time.Minute)
	cw.minuteWindow = filterTimes(cw.minuteWindow, minuteAgo)

	hourAgo := now.Add(-1 * time.Hour)
	cw.hourWindow = filterTimes(cw.hourWindow, hourAgo)
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := make([]time.Time, 0, len(times))
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// GetStats returns current counts for a client key
func (rl *ClientLimiter) GetStats(key string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[key]
	if !ok {
		return Stats{
			Enabled:             true,
			LimitPerMinute:      rl.requestsPerMinute,
			LimitPerHour:        rl.requestsPerHour,
			RemainingThisMinute: rl.requestsPerMinute,
			RemainingThisHour:   rl.requestsPerHour,
		}
	}
	cw.cleanup(now)

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(cw.minuteWindow),
		RequestsLastHour:    len(cw.hourWindow),
		LimitPerMinute:      rl.requestsPerMinute,
		LimitPerHour:        rl.requestsPerHour,
		RemainingThisMinute: max(0, rl.requestsPerMinute-len(cw.minuteWindow)),
		RemainingThisHour:   max(0, rl.requestsPerHour-len(cw.hourWindow)),
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
}

// Reset clears all tracked requests (useful for testing)
func (rl *ClientLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients = make(map[string]*clientWindows)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
