package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	originalSleep := sleep
	defer func() { sleep = originalSleep }()

	t.Run("completes the wait", func(t *testing.T) {
		var slept time.Duration
		sleep = func(d time.Duration) { slept = d }

		if err := WaitFor(context.Background(), 5*time.Second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if slept != 5*time.Second {
			t.Fatalf("expected a 5s sleep, got %v", slept)
		}
	})

	t.Run("zero duration returns immediately", func(t *testing.T) {
		sleep = func(time.Duration) { t.Fatal("sleep must not be called") }

		if err := WaitFor(context.Background(), 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		sleep = func(d time.Duration) { time.Sleep(d) }

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := WaitFor(ctx, time.Hour)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestTruncateForLog(t *testing.T) {
	cases := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 5, "hello..."},
		{"surrounding whitespace trimmed", "  hello  ", 10, "hello"},
		{"multibyte runes kept whole", "héllo wörld", 7, "héllo w..."},
		{"zero limit", "hello", 0, ""},
		{"negative limit", "hello", -1, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateForLog(tc.input, tc.limit); got != tc.want {
				t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tc.input, tc.limit, got, tc.want)
			}
		})
	}
}
