package authcore

import (
	"context"
	"encoding/hex"
	"testing"
)

func TestNewCSRFToken(t *testing.T) {
	a, err := NewCSRFToken()
	if err != nil {
		t.Fatalf("NewCSRFToken: %v", err)
	}
	raw, err := hex.DecodeString(a)
	if err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
	if len(raw) != CSRFTokenBytes {
		t.Fatalf("expected %d bytes, got %d", CSRFTokenBytes, len(raw))
	}

	b, err := NewCSRFToken()
	if err != nil {
		t.Fatalf("NewCSRFToken: %v", err)
	}
	if a == b {
		t.Fatal("two tokens are equal")
	}
}

func TestClientIPContext(t *testing.T) {
	if got := ClientIPFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty ip, got %q", got)
	}
	ctx := WithClientIP(context.Background(), "203.0.113.1")
	if got := ClientIPFromContext(ctx); got != "203.0.113.1" {
		t.Fatalf("got %q", got)
	}
}
