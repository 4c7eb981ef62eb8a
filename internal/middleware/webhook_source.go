package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
)

// WebhookSourceMiddleware gates bank webhook endpoints on origin IP.
//
// Forwarding headers are only honored when the direct peer is a trusted
// proxy; otherwise a spoofed X-Forwarded-For would let anyone impersonate
// the bank. The resolved IP must then appear in the allow-list. An empty
// allow-list disables the gate entirely (local development).
func WebhookSourceMiddleware(allowedIPs, trustedProxies []string, auditSvc portssvc.AuditSvcFacade) gin.HandlerFunc {
	allowed := toSet(allowedIPs)
	proxies := toSet(trustedProxies)

	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		clientIP := resolveClientIP(c.Request, proxies)
		ctx := context.WithValue(c.Request.Context(), clientIPKey, clientIP)
		c.Request = c.Request.WithContext(ctx)

		if len(allowed) == 0 {
			c.Next()
			return
		}

		if _, ok := allowed[clientIP]; !ok {
			logger.Warn("Webhook from unauthorized source", slog.String("ip", clientIP), slog.String("path", c.Request.URL.Path))
			auditSvc.RecordSecurityEvent(c.Request.Context(), domain.SecurityEvent{
				EventID:    uuid.NewString(),
				Action:     "webhook_source_rejected",
				Severity:   domain.SeverityCritical,
				Actor:      "webhook",
				OriginIP:   clientIP,
				Detail:     "origin IP not in webhook allow-list",
				Metadata:   map[string]string{"path": c.Request.URL.Path},
				OccurredAt: time.Now().UTC(),
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Next()
	}
}

// resolveClientIP picks the caller's IP. Forwarding headers count only when
// the TCP peer is a trusted proxy, and X-Forwarded-For is walked right to
// left: the rightmost hops were appended by our own proxies while the
// leftmost ones arrived from the client and can carry anything. The first
// hop that is not itself a trusted proxy is the real client.
func resolveClientIP(r *http.Request, trustedProxies map[string]struct{}) string {
	peer := remoteIP(r)

	if _, trusted := trustedProxies[peer]; !trusted {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if _, trusted := trustedProxies[hop]; trusted {
				continue
			}
			return hop
		}
		// Every hop is one of our proxies; fall through to the peer.
		return peer
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	return peer
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
