package pubsite

import (
	"sync"
	"time"
)

// LoginLimiter counts failed admin logins per client IP inside a sliding
// window. Check gates an attempt, Record books a failure and Forget clears
// the history after a successful login.
type LoginLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewLoginLimiter allows max failures per IP within window. Call Stop to
// end the background sweep.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

// sweep drops IPs whose failures have all aged out.
func (l *LoginLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		l.mu.Lock()
		for ip := range l.failures {
			l.recentLocked(ip)
		}
		l.mu.Unlock()
	}
}

// recentLocked trims ip's failures to the current window and returns how
// many remain. l.mu must be held.
func (l *LoginLimiter) recentLocked(ip string) int {
	cutoff := l.now().Add(-l.window)
	hits := l.failures[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, ip)
		return 0
	}
	l.failures[ip] = kept
	return len(kept)
}

// Check reports whether ip may try to log in. It records nothing.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recentLocked(ip) < l.max
}

// Record books a failed login for ip.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.failures[ip] = append(l.failures[ip], l.now())
	l.mu.Unlock()
}

// Forget clears the failures of ip.
func (l *LoginLimiter) Forget(ip string) {
	l.mu.Lock()
	delete(l.failures, ip)
	l.mu.Unlock()
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
