package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
)

const defaultAllowedOrigin = "http://localhost:3000"

// ParseOrigins splits a comma separated ALLOWED_ORIGINS value
func ParseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// NewSecureUpgrader creates a WebSocket upgrader that only accepts the given
// origins. Requests without an Origin header are same-origin and allowed.
func NewSecureUpgrader(allowedOrigins []string, security *logger.SecurityLogger) websocket.Upgrader {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{defaultAllowedOrigin}
	}
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}

			for _, allowed := range allowedOrigins {
				if allowed == origin {
					return true
				}
			}

			if security != nil {
				security.InvalidOrigin(r.RemoteAddr, origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
