package middleware

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimit caps requests per client address over a sliding window, counted
// in redis so the limit holds across service replicas.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "rate_limit:" + r.RemoteAddr

			current, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// redis down must not take request handling with it
				next.ServeHTTP(w, r)
				return
			}

			if current == 1 {
				rdb.Expire(ctx, key, window)
			}

			if current > int64(limit) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"erro":"Muitas requisições. Tente novamente em instantes."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
