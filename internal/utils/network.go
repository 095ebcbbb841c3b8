package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealIP extracts the client IP, preferring proxy-set headers over the
// socket address: X-Real-IP first, then the first public entry in
// X-Forwarded-For, then gin's ClientIP fallback.
func GetRealIP(c *gin.Context) string {
	realIP := strings.TrimSpace(c.Request.Header.Get("X-Real-IP"))
	if realIP != "" && isValidIP(realIP) && !isPrivateIP(net.ParseIP(realIP)) {
		return realIP
	}

	// X-Forwarded-For: client, proxy1, proxy2
	forwarded := c.Request.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		for _, ipStr := range ips {
			clientIP := strings.TrimSpace(ipStr)
			if isValidIP(clientIP) && !isPrivateIP(net.ParseIP(clientIP)) {
				return clientIP
			}
		}
		// All hops private: report the nearest one
		if first := strings.TrimSpace(ips[0]); isValidIP(first) {
			return first
		}
	}

	return c.ClientIP()
}

// GetUserAgent extracts the User-Agent header from the request
func GetUserAgent(c *gin.Context) string {
	ua := c.Request.UserAgent()
	if ua == "" {
		return "Unknown"
	}
	return ua
}

func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
