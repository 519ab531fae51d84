package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=rate_limiting_mocks_test.go -package=middleware_test

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RejectFunc writes the response for a request denied by the rate limiter.
type RejectFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// RateLimit allows allowedPerMin requests per minute for routerName, shared
// by all clients. Limiter errors let the request through. Denied requests
// get a 429.
func RateLimit(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return RateLimitWithReject(rateLimiter, routerName, allowedPerMin, metricsManager, TooManyRequests)
}

// RateLimitWithReject is RateLimit with the denied response written by reject.
func RateLimitWithReject(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
	reject RejectFunc,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := rateLimiter.Allow(
				r.Context(),
				"fittrack:rate:"+routerName,
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				log.Errorf("rate limit [%s]: %s", routerName, err)
				next.ServeHTTP(w, r)
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+1)))
			reject(w, r, res.RetryAfter)
		})
	}
}

func TooManyRequests(w http.ResponseWriter, _ *http.Request, retryAfter time.Duration) {
	http.Error(
		w,
		fmt.Sprintf("retry after %f seconds", retryAfter.Seconds()),
		http.StatusTooManyRequests,
	)
}
