package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"clientvault/internal/middleware"
	"clientvault/internal/model"
	"clientvault/internal/service"
)

// recordAudit never blocks the response path; a broken audit log is
// reported through the server log instead.
func recordAudit(audit *service.AuditService, action string, actor model.AuditActor, client string, resource string, opErr error) {
	if audit == nil {
		return
	}

	if err := audit.Record(action, actor, client, resource, opErr); err != nil {
		slog.Error("audit write failed", "action", action, "error", err.Error())
	}
}

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: clientIP(r)}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = claims.UserID
	actor.Email = claims.Email
	actor.Role = claims.Role

	return actor
}

func clientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	xri := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}

	return strings.TrimSpace(r.RemoteAddr)
}
