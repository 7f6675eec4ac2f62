package monitoring

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware records every request in metrics and the log
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		// route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(c.Request.Method, path, statusCode, duration)
		logger.RequestLogger(c.GetString("request_id"), c.Request.Method, c.Request.URL.Path, c.ClientIP(), statusCode, duration)

		if duration > 5*time.Second {
			logger.Warn("Slow request", "path", path, "duration_ms", duration.Milliseconds())
		}
	}
}

// GitHubObserver logs and counts GitHub calls. It satisfies the adapter's
// RequestObserver.
type GitHubObserver struct {
	Metrics *Metrics
	Logger  *Logger
}

// ObserveGitHubRequest implements adapters.RequestObserver
func (o GitHubObserver) ObserveGitHubRequest(endpoint, outcome string, duration time.Duration) {
	if o.Metrics != nil {
		o.Metrics.ObserveGitHubRequest(endpoint, outcome, duration)
	}
	if o.Logger != nil {
		o.Logger.ExternalAPILogger("GitHub", endpoint, outcome, duration)
	}
}

// SecurityMonitoringMiddleware logs requests from known scanners
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")

		if containsSuspiciousUserAgent(userAgent) {
			logger.SecurityLogger("suspicious_user_agent", c.ClientIP(), userAgent, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}

		if c.Request.Method == "POST" && c.Request.ContentLength > 10000 {
			logger.SecurityLogger("large_request_body", c.ClientIP(), userAgent, map[string]interface{}{
				"size_bytes": c.Request.ContentLength,
			})
		}

		c.Next()
	}
}

var suspiciousAgents = []string{
	"sqlmap",
	"nmap",
	"masscan",
	"zmap",
	"dirbuster",
	"gobuster",
	"nikto",
	"acunetix",
	"nessus",
}

func containsSuspiciousUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}
