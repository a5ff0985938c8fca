package http

import (
	"net/http/httptest"
	"testing"
)

func TestClientAddrDirectPeer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:9999"

	if got := clientAddr(r); got != "203.0.113.7" {
		t.Fatalf("got %q", got)
	}
}

func TestClientAddrTrustedProxyForwarding(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.5")

	if got := clientAddr(r); got != "198.51.100.4" {
		t.Fatalf("got %q", got)
	}
}

func TestClientAddrIgnoresForwardingFromUntrustedPeer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:9999"
	r.Header.Set("X-Forwarded-For", "198.51.100.4")
	r.Header.Set("X-Real-IP", "198.51.100.4")

	if got := clientAddr(r); got != "203.0.113.7" {
		t.Fatalf("spoofed header honored: %q", got)
	}
}

func TestClientAddrRejectsGarbageForwardedValue(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:1"
	r.Header.Set("X-Forwarded-For", "not-an-ip")

	if got := clientAddr(r); got != "127.0.0.1" {
		t.Fatalf("got %q", got)
	}
}

func TestRateLimiterAllowsBudgetThenBlocks(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerMinute; i++ {
		if !rl.allow("192.0.2.1") {
			t.Fatalf("request %d blocked within budget", i+1)
		}
	}
	if rl.allow("192.0.2.1") {
		t.Fatalf("request over budget allowed")
	}

	// other clients have their own budget
	if !rl.allow("192.0.2.2") {
		t.Fatalf("independent client blocked")
	}
}
