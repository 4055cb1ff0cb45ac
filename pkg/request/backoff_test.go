package request

import (
	"context"
	"testing"
	"time"
)

func TestHostBackoff_ExponentialDelay(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		baseDelay time.Duration
		maxDelay  time.Duration
		wantMinMs int64
		wantMaxMs int64
	}{
		{"First failure", 1, 1 * time.Second, 60 * time.Second, 950, 1200},
		{"Second failure", 2, 1 * time.Second, 60 * time.Second, 1950, 2400},
		{"Third failure", 3, 1 * time.Second, 60 * time.Second, 3950, 4800},
		{"Max cap hit", 10, 1 * time.Second, 60 * time.Second, 59950, 66000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewHostBackoff(tt.baseDelay, tt.maxDelay)

			for i := 0; i < tt.failures; i++ {
				b.RecordFailure("data.example.org")
			}

			fc, nextAllowed := b.State("data.example.org")
			if fc != tt.failures {
				t.Errorf("failureCount = %d, want %d", fc, tt.failures)
			}

			delayMs := time.Until(nextAllowed).Milliseconds()
			if delayMs < tt.wantMinMs || delayMs > tt.wantMaxMs {
				t.Errorf("delay = %dms, want between %dms and %dms", delayMs, tt.wantMinMs, tt.wantMaxMs)
			}
		})
	}
}

func TestHostBackoff_GradualRecovery(t *testing.T) {
	b := NewHostBackoff(1*time.Second, 60*time.Second)

	b.RecordFailure("host")
	b.RecordFailure("host")
	b.RecordFailure("host")

	b.RecordSuccess("host")
	if fc, _ := b.State("host"); fc != 2 {
		t.Errorf("after 1 success, count = %d, want 2", fc)
	}

	b.RecordSuccess("host")
	b.RecordSuccess("host")
	fc, next := b.State("host")
	if fc != 0 || !next.IsZero() {
		t.Errorf("after full recovery, count = %d next = %v", fc, next)
	}
}

func TestHostBackoff_IsolatedHosts(t *testing.T) {
	b := NewHostBackoff(1*time.Second, 60*time.Second)

	b.RecordFailure("a.example.org")
	b.RecordFailure("a.example.org")

	fc1, _ := b.State("a.example.org")
	fc2, _ := b.State("b.example.org")
	if fc1 != 2 || fc2 != 0 {
		t.Errorf("failures a=%d b=%d, want 2 and 0", fc1, fc2)
	}

	// Unknown hosts never wait.
	if err := b.Wait(context.Background(), "b.example.org"); err != nil {
		t.Errorf("Wait = %v", err)
	}
}
