package api

import (
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded []string
		proxies   []netip.Prefix
		want      string
	}{
		{name: "no proxies ignores header", remote: "198.51.100.4:5000", forwarded: []string{"203.0.113.1"}, want: "198.51.100.4"},
		{name: "untrusted peer ignores header", remote: "198.51.100.4:5000", forwarded: []string{"203.0.113.1"}, proxies: proxies, want: "198.51.100.4"},
		{name: "trusted peer uses header", remote: "192.0.2.1:1234", forwarded: []string{"203.0.113.1"}, proxies: proxies, want: "203.0.113.1"},
		{name: "skips trusted hops from the right", remote: "10.1.1.1:80", forwarded: []string{"6.6.6.6, 203.0.113.1, 10.2.2.2"}, proxies: proxies, want: "203.0.113.1"},
		{name: "repeated headers are joined", remote: "10.1.1.1:80", forwarded: []string{"6.6.6.6", "203.0.113.9"}, proxies: proxies, want: "203.0.113.9"},
		{name: "all hops trusted falls back to peer", remote: "10.1.1.1:80", forwarded: []string{"10.3.3.3"}, proxies: proxies, want: "10.1.1.1"},
		{name: "malformed hop falls back to peer", remote: "10.1.1.1:80", forwarded: []string{"not-an-ip"}, proxies: proxies, want: "10.1.1.1"},
		{name: "trusted peer without header", remote: "10.1.1.1:80", proxies: proxies, want: "10.1.1.1"},
		{name: "remote without port", remote: "198.51.100.4", want: "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				r.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.proxies))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{"10.1.2.3/8", " 127.0.0.1 ", "", "::1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.1/32"),
		netip.MustParsePrefix("::1/128"),
	}, got)

	_, err = ParseTrustedProxies([]string{"gateway"})
	assert.ErrorContains(t, err, `invalid trusted proxy "gateway"`)

	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	clock := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = clock

	assert.True(t, rl.Allow("203.0.113.1"))
	assert.False(t, rl.Allow("203.0.113.1"))
	for i := range 20 {
		rl.Allow(netip.AddrFrom4([4]byte{198, 51, 100, byte(i)}).String())
	}
	assert.Equal(t, 21, rl.Len())

	clock = clock.Add(minLimiterTTL / 2)
	assert.True(t, rl.Allow("203.0.113.2"))
	assert.Equal(t, 22, rl.Len())

	clock = clock.Add(minLimiterTTL)
	assert.True(t, rl.Allow("203.0.113.3"))
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_TTLCoversRefill(t *testing.T) {
	rl := NewRateLimiter(1, 60)
	assert.Equal(t, time.Hour, rl.ttl)

	rl = NewRateLimiter(10, 5)
	assert.Equal(t, minLimiterTTL, rl.ttl)
}
