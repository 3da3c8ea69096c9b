package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RateLimit is a per-client token bucket. A zero RPS disables limiting.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Enabled reports whether limiting is on.
func (rl RateLimit) Enabled() bool { return rl.RPS > 0 }

func (h *Handler) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				h.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimit gives every remote IP its own limiter. Entries idle for three
// minutes are evicted on the next request.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	var (
		mu        sync.Mutex
		clients   = make(map[string]*client)
		lastSweep = time.Now()
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RealIP may have replaced RemoteAddr with a bare address
			ip = r.RemoteAddr
		}

		mu.Lock()
		now := time.Now()
		if now.Sub(lastSweep) > time.Minute {
			for k, c := range clients {
				if now.Sub(c.lastSeen) > 3*time.Minute {
					delete(clients, k)
				}
			}
			lastSweep = now
		}
		c, found := clients[ip]
		if !found {
			burst := h.limits.Burst
			if burst < 1 {
				burst = 1
			}
			c = &client{limiter: rate.NewLimiter(rate.Limit(h.limits.RPS), burst)}
			clients[ip] = c
		}
		c.lastSeen = now
		allowed := c.limiter.Allow()
		mu.Unlock()

		if !allowed {
			h.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
