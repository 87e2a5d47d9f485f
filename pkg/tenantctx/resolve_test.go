package tenantctx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveViewingTenant(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"absent header", "", ""},
		{"plain value", "t1", "t1"},
		{"whitespace only", "   ", ""},
		{"trimmed", "  t2  ", "t2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(ViewingTenantHeader, tt.header)
			}
			assert.Equal(t, tt.expected, ResolveViewingTenant(r))
		})
	}
}

func TestResolveViewingTenantCaseInsensitiveHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("x-viewing-tenant", "t3")
	assert.Equal(t, "t3", ResolveViewingTenant(r))
}

func TestResolveViewingTenantIsRepeatable(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(ViewingTenantHeader, "t1")
	first := ResolveViewingTenant(r)
	second := ResolveViewingTenant(r)
	assert.Equal(t, first, second)
}

func TestExtractTenantFromHost(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"subdomain", "tenant1.app.com", "tenant1"},
		{"subdomain with port", "tenant1.app.com:8080", "tenant1"},
		{"bare domain", "app.com", "app"},
		{"localhost", "localhost", ""},
		{"localhost with port", "localhost:3000", ""},
		{"ipv4", "10.0.0.1", ""},
		{"single label", "intranet", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTenantFromHost(tt.host))
		})
	}
}

func TestResolveSiteTenantHeaderWinsOverHost(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Host = "tenant1.app.com"
	r.Header.Set(SiteTenantHeader, "tenant9")
	assert.Equal(t, "tenant9", ResolveSiteTenant(r))
}

func TestResolveSiteTenantFallsBackToHost(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Host = "tenant1.app.com"
	assert.Equal(t, "tenant1", ResolveSiteTenant(r))
}

func TestBothSignalsIndependent(t *testing.T) {
	// Site identity and admin override serve different purposes and may
	// coexist on one request.
	r := httptest.NewRequest("GET", "/", nil)
	r.Host = "tenant1.app.com"
	r.Header.Set(ViewingTenantHeader, "t7")

	assert.Equal(t, "tenant1", ResolveSiteTenant(r))
	assert.Equal(t, "t7", ResolveViewingTenant(r))
}
