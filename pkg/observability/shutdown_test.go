package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "with custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
		{
			name:            "with zero timeout uses default",
			timeout:         0,
			expectedTimeout: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(InfoLevel, &bytes.Buffer{})
			server := &http.Server{}

			sm := NewShutdownManager(logger, server, tt.timeout)
			if sm == nil {
				t.Fatal("Expected non-nil shutdown manager")
			}
			if sm.logger != logger {
				t.Error("Logger not set correctly")
			}
			if sm.server != server {
				t.Error("Server not set correctly")
			}
			if sm.shutdownTimeout != tt.expectedTimeout {
				t.Errorf("Expected timeout %v, got %v", tt.expectedTimeout, sm.shutdownTimeout)
			}
		})
	}
}

func TestRegisterShutdownFunc(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, time.Second)

	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	}

	sm.mu.Lock()
	count := len(sm.shutdownFuncs)
	sm.mu.Unlock()

	if count != 3 {
		t.Errorf("Expected 3 registered shutdown functions, got %d", count)
	}
}

// runShutdown starts WaitForShutdown in a goroutine, delivers SIGTERM to the
// test process, and returns the result.
func runShutdown(t *testing.T, sm *ShutdownManager) error {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		done <- sm.WaitForShutdown()
	}()

	// Give WaitForShutdown a moment to install its signal handler.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to signal test process: %v", err)
	}

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not return")
		return nil
	}
}

func TestWaitForShutdown_RunsFuncsInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, time.Second)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	if err := runShutdown(t, sm); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}

	want := []string{"third", "second", "first"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("Expected %d shutdown calls, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Shutdown order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestWaitForShutdown_DrainsHTTPServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	listener := httptest.NewUnstartedServer(handler)
	server := &http.Server{Handler: handler}
	go server.Serve(listener.Listener)

	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), server, time.Second)

	if err := runShutdown(t, sm); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}

	// A drained server refuses further Serve calls.
	if err := server.Serve(listener.Listener); !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed after shutdown, got %v", err)
	}
}

func TestWaitForShutdown_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, time.Second)

	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return errors.New("redis close failed")
	})

	err := runShutdown(t, sm)
	if err == nil {
		t.Fatal("Expected error when a shutdown function fails")
	}
	if !strings.Contains(err.Error(), "1 errors") {
		t.Errorf("Expected error count in message, got %v", err)
	}
}

func TestWaitForShutdown_TimeoutAbandonsRemaining(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, 100*time.Millisecond)

	var mu sync.Mutex
	var ran []string

	// Registered first, so it runs last; the timeout should stop it from
	// running at all.
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		mu.Lock()
		ran = append(ran, "abandoned")
		mu.Unlock()
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		mu.Lock()
		ran = append(ran, "slow")
		mu.Unlock()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return nil
	})

	err := runShutdown(t, sm)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("Expected timeout in error, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "slow" {
		t.Errorf("Expected only the slow function to run, got %v", ran)
	}
}

func TestWaitForShutdown_Trigger(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, time.Second)

	var mu sync.Mutex
	ran := false
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		mu.Lock()
		ran = true
		mu.Unlock()
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- sm.WaitForShutdown()
	}()

	time.Sleep(50 * time.Millisecond)
	sm.Trigger()
	sm.Trigger()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if !ran {
		t.Error("Expected shutdown function to run")
	}
}
