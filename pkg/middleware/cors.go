package middleware

import (
	"net/http"
	"strconv"
)

// origens do painel local; as demais vêm de CORS_ORIGINS
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:4001",
}

const corsMaxAge = 24 * 60 * 60

func Cors(extraOrigins ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(defaultOrigins)+len(extraOrigins))
	for _, origin := range append(defaultOrigins, extraOrigins...) {
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := w.Header()
			header.Add("Vary", "Origin")

			if origin := r.Header.Get("Origin"); allowed[origin] {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
