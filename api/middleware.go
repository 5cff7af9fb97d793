package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/config"
	"github.com/linesmerrill/uptime-api/models"
)

// Recover turns a panic in a handler into a logged 500
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				config.ErrorStatus("internal error", http.StatusInternalServerError, w,
					fmt.Errorf("panic serving %s (request %s): %v", r.URL.Path, RequestIDFromContext(r.Context()), rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticate runs a single go-guardian strategy over h. Every call gets its own
// cache so tokens and passwords are always checked against the store.
func authenticate(ctx context.Context, h http.Header, key auth.StrategyKey, strategy func(store.Cache) auth.Strategy) (auth.Info, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	r.Header = h

	authenticator := auth.New()
	authenticator.EnableStrategy(key, strategy(store.NewFIFO(ctx, time.Minute)))
	return authenticator.Authenticate(r)
}

// BasicLogin passes HTTP Basic phone:password credentials to login through the
// go-guardian basic strategy. It reports false when h carries no credentials.
func BasicLogin(ctx context.Context, h http.Header, login func(ctx context.Context, phone, password string) error) (bool, error) {
	var called bool
	var loginErr error
	_, err := authenticate(ctx, h, basic.StrategyKey, func(c store.Cache) auth.Strategy {
		return basic.New(func(ctx context.Context, r *http.Request, phone, password string) (auth.Info, error) {
			called = true
			if loginErr = login(ctx, phone, password); loginErr != nil {
				return nil, loginErr
			}
			return auth.NewDefaultUser(phone, phone, nil, nil), nil
		}, c)
	})
	switch {
	case !called:
		return false, nil
	case loginErr != nil:
		return true, loginErr
	default:
		return true, err
	}
}

// bearerToken extracts the token of an Authorization: Bearer header
func bearerToken(h http.Header) string {
	var token string
	_, _ = authenticate(context.Background(), h, bearer.CachedStrategyKey, func(c store.Cache) auth.Strategy {
		return bearer.New(func(ctx context.Context, r *http.Request, tkn string) (auth.Info, error) {
			token = strings.TrimSpace(tkn)
			return auth.NewDefaultUser(token, token, nil, nil), nil
		}, c)
	})
	return token
}

// Counter is the subset of the redis client the rate limiter needs
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window request counter kept in redis. It shares its
// counts across every instance of the service and fails open when redis is down.
type RateLimiter struct {
	Counter Counter
	Limit   int
	Window  time.Duration
	Prefix  string
	now     func() time.Time
}

// NewRateLimiter allows limit requests per window and client
func NewRateLimiter(counter Counter, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{
		Counter: counter,
		Limit:   limit,
		Window:  window,
		Prefix:  "ratelimit",
		now:     time.Now,
	}
}

// NewRedisClient connects to addr, returning nil when addr is empty
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Allow counts one request for key and reports whether it is within the limit
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.Counter == nil || l.Limit <= 0 {
		return true
	}
	window := l.now().Unix() / int64(l.Window/time.Second)
	k := fmt.Sprintf("%s:%s:%d", l.Prefix, key, window)

	n, err := l.Counter.Incr(ctx, k).Result()
	if err != nil {
		zap.S().Warnw("rate limiter unavailable, allowing request", "error", err)
		return true
	}
	if n == 1 {
		if err := l.Counter.Expire(ctx, k, l.Window).Err(); err != nil {
			zap.S().Warnw("could not set rate limit expiry", "key", k, "error", err)
		}
	}
	return n <= int64(l.Limit)
}

// Middleware limits POST requests per client address
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || l.Allow(r.Context(), clientAddr(r)) {
			next.ServeHTTP(w, r)
			return
		}
		zap.S().Warnw("rate limit exceeded",
			"client", clientAddr(r),
			"path", r.URL.Path,
			"requestId", RequestIDFromContext(r.Context()))
		WriteResponse(w, models.Response{
			Status: http.StatusTooManyRequests,
			Body:   models.ErrorMessageResponse{Error: "too many requests, try again later"},
		})
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
