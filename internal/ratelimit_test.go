package internal

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	l := &limiter{
		buckets: make(map[string]*bucket),
		rps:     1,
		burst:   1,
	}

	if !l.allow("client") {
		t.Fatalf("expected first request to be allowed")
	}
	if l.allow("client") {
		t.Fatalf("expected second request to be rate limited")
	}

	time.Sleep(1100 * time.Millisecond)

	if !l.allow("client") {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestLimiterPrunesStaleBuckets(t *testing.T) {
	l := &limiter{
		buckets:   make(map[string]*bucket),
		rps:       10,
		burst:     10,
		ttl:       10 * time.Millisecond,
		lastPrune: time.Now().Add(-time.Minute),
	}
	l.buckets["stale"] = &bucket{tokens: 1, last: time.Now().Add(-time.Minute)}

	if !l.allow("fresh") {
		t.Fatalf("expected fresh client to be allowed")
	}
	if _, ok := l.buckets["stale"]; ok {
		t.Fatalf("expected stale bucket to be pruned")
	}
}
