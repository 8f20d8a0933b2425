// Package geo resolves client IP addresses to two-letter region codes.
package geo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"clicker/internal/domain"

	"go.uber.org/zap"
)

const lookupTimeout = 2 * time.Second

// Resolver maps an IP address to a region code
type Resolver interface {
	Country(ctx context.Context, ip string) string
}

// HTTPResolver queries a plain-text lookup service such as ipapi.co
type HTTPResolver struct {
	urlTemplate string
	client      *http.Client
	logger      *zap.Logger
}

// NewHTTPResolver creates a resolver; urlTemplate holds one %s for the IP
func NewHTTPResolver(urlTemplate string, logger *zap.Logger) *HTTPResolver {
	return &HTTPResolver{
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: lookupTimeout},
		logger:      logger,
	}
}

// Country returns the upper-case region code or domain.UnknownCountry.
// It never fails.
func (r *HTTPResolver) Country(ctx context.Context, ip string) string {
	addr := net.ParseIP(ip)
	if addr == nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return domain.UnknownCountry
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(r.urlTemplate, addr.String()), nil)
	if err != nil {
		r.logger.Warn("Failed to build geo lookup request", zap.Error(err))
		return domain.UnknownCountry
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("Geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return domain.UnknownCountry
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("Geo lookup rejected", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return domain.UnknownCountry
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return domain.UnknownCountry
	}

	code := strings.TrimSpace(string(body))
	if len(code) != 2 || !isLetters(code) {
		return domain.UnknownCountry
	}
	return strings.ToUpper(code)
}

func isLetters(s string) bool {
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
