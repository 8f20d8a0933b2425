package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clicker/internal/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHTTPResolver_Country(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		status   int
		body     string
		expected string
	}{
		{name: "public address", ip: "8.8.8.8", status: http.StatusOK, body: "us\n", expected: "US"},
		{name: "ipv6 address", ip: "2001:4860:4860::8888", status: http.StatusOK, body: "US", expected: "US"},
		{name: "loopback", ip: "127.0.0.1", expected: domain.UnknownCountry},
		{name: "private", ip: "192.168.1.10", expected: domain.UnknownCountry},
		{name: "garbage ip", ip: "not-an-ip", expected: domain.UnknownCountry},
		{name: "service error", ip: "8.8.8.8", status: http.StatusTooManyRequests, body: "slow down", expected: domain.UnknownCountry},
		{name: "undefined answer", ip: "8.8.8.8", status: http.StatusOK, body: "Undefined", expected: domain.UnknownCountry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				assert.Equal(t, "/"+tt.ip+"/country/", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resolver := NewHTTPResolver(srv.URL+"/%s/country/", zap.NewNop())

			assert.Equal(t, tt.expected, resolver.Country(context.Background(), tt.ip))
			if tt.status == 0 {
				assert.Zero(t, hits)
			}
		})
	}
}

func TestHTTPResolver_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	resolver := NewHTTPResolver(url+"/%s", zap.NewNop())

	assert.Equal(t, domain.UnknownCountry, resolver.Country(context.Background(), "1.1.1.1"))
}

func TestHTTPResolver_Slow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		fmt.Fprint(w, "US")
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL+"/%s", zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Equal(t, domain.UnknownCountry, resolver.Country(ctx, "1.1.1.1"))
}
