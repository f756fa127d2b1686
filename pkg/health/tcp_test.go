package health

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestTCPChecker_Reachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}
	defer listener.Close()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	checker := NewTCPChecker(listener.Addr().String())
	result := checker.Check(context.Background())

	if !result.Healthy {
		t.Errorf("expected healthy, got unhealthy: %s", result.Message)
	}
	if result.Duration <= 0 {
		t.Error("expected positive duration")
	}
	if checker.Type() != CheckTypeTCP {
		t.Errorf("expected type %q, got %q", CheckTypeTCP, checker.Type())
	}
}

func TestTCPChecker_Unreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close() // nothing listening now

	checker := NewTCPChecker(addr).WithTimeout(500 * time.Millisecond)
	result := checker.Check(context.Background())

	if result.Healthy {
		t.Error("expected unhealthy for a closed port")
	}
}

func TestTCPChecker_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewTCPChecker("10.255.255.1:22")
	result := checker.Check(ctx)

	if result.Healthy {
		t.Error("expected unhealthy when context is already cancelled")
	}
}
