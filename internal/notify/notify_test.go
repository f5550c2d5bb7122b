package notify

import (
	"testing"
	"time"
)

func TestActivePrunesExpired(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCenter()
	c.now = func() time.Time { return current }

	c.Push(SeverityInfo, "signed in")
	c.Push(SeverityError, "draft not found")

	if got := len(c.Active()); got != 2 {
		t.Fatalf("expected 2 active notifications, got %d", got)
	}

	// Info dismisses after 4s, error survives until 8s.
	current = current.Add(5 * time.Second)
	active := c.Active()
	if len(active) != 1 {
		t.Fatalf("expected 1 active notification, got %d", len(active))
	}
	if active[0].Severity != SeverityError {
		t.Errorf("expected error notification to remain, got %s", active[0].Severity)
	}

	current = current.Add(4 * time.Second)
	if got := len(c.Active()); got != 0 {
		t.Fatalf("expected all notifications dismissed, got %d", got)
	}
}

func TestDismissTimings(t *testing.T) {
	tests := []struct {
		sev  Severity
		want time.Duration
	}{
		{SeveritySuccess, 4 * time.Second},
		{SeverityInfo, 4 * time.Second},
		{SeverityWarn, 6 * time.Second},
		{SeverityError, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := dismissAfter(tt.sev); got != tt.want {
			t.Errorf("dismissAfter(%s) = %v, want %v", tt.sev, got, tt.want)
		}
	}
}
