package logging

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID(empty) = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want req-1", got)
	}
}

func TestUserID(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetUserID(ctx); ok {
		t.Error("GetUserID(empty) reported a value")
	}

	ctx = WithUserID(ctx, 9)
	if id, ok := GetUserID(ctx); !ok || id != 9 {
		t.Errorf("GetUserID() = %d, %v; want 9, true", id, ok)
	}
}
