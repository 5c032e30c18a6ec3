package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Buckets beyond this count trigger a sweep of idle, fully refilled buckets.
const maxBuckets = 10000

type RateLimitConfig struct {
	IPPerMinute    int
	IPBurst        int
	LoginPerMinute int
	LoginBurst     int
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed. Requests from any other peer are keyed on the peer.
	TrustedProxies []string
}

// RateLimiter throttles every request per client IP and, additionally, token
// issuance per email.
type RateLimiter struct {
	ipLimiter    *tokenLimiter
	loginLimiter *tokenLimiter
	proxies      []netip.Prefix
}

func NewRateLimiter(cfg RateLimitConfig) (*RateLimiter, error) {
	proxies, err := parseProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		ipLimiter:    newTokenLimiter(cfg.IPPerMinute, cfg.IPBurst),
		loginLimiter: newTokenLimiter(cfg.LoginPerMinute, cfg.LoginBurst),
		proxies:      proxies,
	}, nil
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		if ip != "" && !l.ipLimiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}

		if email, ok := loginEmail(r); ok && !l.loginLimiter.allow(email) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type tokenLimiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	bucket map[string]*bucket
	now    func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newTokenLimiter(perMinute, burst int) *tokenLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 20
	}
	return &tokenLimiter{
		rate:   float64(perMinute) / 60.0,
		burst:  float64(burst),
		bucket: make(map[string]*bucket),
		now:    time.Now,
	}
}

func (l *tokenLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.bucket[key]
	if !ok {
		if len(l.bucket) >= maxBuckets {
			l.sweep(now)
		}
		l.bucket[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = minFloat(l.burst, b.tokens+elapsed*l.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens -= 1
	return true
}

// sweep drops buckets that would be full again by now; forgetting them is
// indistinguishable from keeping them. Caller holds mu.
func (l *tokenLimiter) sweep(now time.Time) {
	for key, b := range l.bucket {
		if b.tokens+now.Sub(b.last).Seconds()*l.rate >= l.burst {
			delete(l.bucket, key)
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// clientIP walks X-Forwarded-For from the right while the hops are trusted
// proxies. The header is ignored unless the peer itself is trusted.
func (l *RateLimiter) clientIP(r *http.Request) string {
	client := remoteHost(r.RemoteAddr)
	if !l.trusted(client) {
		return client
	}
	var hops []string
	for _, value := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(value, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		client = hop
		if !l.trusted(hop) {
			break
		}
	}
	return client
}

func (l *RateLimiter) trusted(ip string) bool {
	if len(l.proxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range l.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func parseProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// loginEmail reports the limiter key for a PUT /user/{email} login request:
// the email as handleLogin will store it, lowercased.
func loginEmail(r *http.Request) (string, bool) {
	if r.Method != http.MethodPut {
		return "", false
	}
	rest, ok := strings.CutPrefix(r.URL.EscapedPath(), "/user/")
	if !ok || strings.Contains(rest, "/") {
		return "", false
	}
	segment, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	email := strings.ToLower(normalizeEmail(segment))
	if email == "" {
		return "", false
	}
	return email, true
}
