package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"example.com/identity/internal/logger"
)

const visitorTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// FloodGate is a coarse per-client token bucket in front of the
// per-operation quota limiter. It protects the process from a single
// misbehaving client, not from distributed abuse.
type FloodGate struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	logger   *logger.Logger
}

// NewFloodGate creates a FloodGate admitting perSecond sustained requests
// per client with the given burst. A janitor goroutine drops idle clients.
func NewFloodGate(perSecond, burst int, logger *logger.Logger) *FloodGate {
	g := &FloodGate{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		logger:   logger,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			g.prune()
		}
	}()

	return g
}

// Handle rejects clients exceeding their bucket with 429.
func (g *FloodGate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !g.limiter(ip).Allow() {
			g.logger.Debug("HTTP flood gate rejection",
				"client_ip", ip,
				"path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *FloodGate) limiter(ip string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(g.rate, g.burst)}
		g.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (g *FloodGate) prune() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := time.Now().Add(-visitorTTL)
	for ip, v := range g.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(g.visitors, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
