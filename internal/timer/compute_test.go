package timer

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestComputeRemainingSecondsRounding(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) time.Time { return start.Add(d) }
	ptr := func(v time.Time) *time.Time { return &v }

	tests := []struct {
		name     string
		paused   float64
		running  bool
		pausedAt *time.Time
		now      time.Time
		want     int
	}{
		{name: "fresh", running: true, now: start, want: 60},
		{name: "running rounds up", running: true, now: at(500 * time.Millisecond), want: 60},
		{name: "paused rounds to nearest", running: false, pausedAt: ptr(at(600 * time.Millisecond)), now: at(time.Hour), want: 59},
		{name: "paused anchor ignores now", running: false, pausedAt: ptr(at(10 * time.Second)), now: at(50 * time.Second), want: 50},
		{name: "paused seconds extend", paused: 30, running: true, now: at(80 * time.Second), want: 10},
		{name: "exact zero", running: true, now: at(time.Minute), want: 0},
		{name: "overtime rounds down", running: true, now: at(time.Minute + 500*time.Millisecond), want: -1},
		{name: "negative paused total ignored", paused: -100, running: true, now: at(30 * time.Second), want: 30},
		{name: "nan paused total ignored", paused: math.NaN(), running: true, now: at(30 * time.Second), want: 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeRemainingSeconds(start, 1, tc.paused, tc.running, tc.pausedAt, tc.now)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestComputeRemainingSecondsWithoutPauseAnchor(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	// Not running but no pause instant: now is used.
	got := ComputeRemainingSeconds(start, 1, 0, false, nil, start.Add(20*time.Second))
	if got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
}

func TestSanitizePausedSeconds(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{name: "float", value: 12.5, want: 12.5},
		{name: "int", value: 3, want: 3},
		{name: "number", value: json.Number("7"), want: 7},
		{name: "bad number", value: json.Number("x"), want: 0},
		{name: "negative", value: -4.0, want: 0},
		{name: "nan", value: math.NaN(), want: 0},
		{name: "inf", value: math.Inf(1), want: 0},
		{name: "string", value: "12", want: 0},
		{name: "nil", value: nil, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizePausedSeconds(tc.value); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAccumulatePause(t *testing.T) {
	pausedAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	if got := AccumulatePause(10, pausedAt, pausedAt.Add(2500*time.Millisecond)); got != 13 {
		t.Fatalf("expected gap rounded up to 3 seconds, got total %v", got)
	}
	if got := AccumulatePause(10, pausedAt, pausedAt.Add(-time.Minute)); got != 10 {
		t.Fatalf("expected backwards clock to add nothing, got %v", got)
	}
	if got := AccumulatePause(math.NaN(), pausedAt, pausedAt.Add(time.Second)); got != 1 {
		t.Fatalf("expected corrupt total to reset, got %v", got)
	}
}

func TestOvertimeSeconds(t *testing.T) {
	if OvertimeSeconds(5) != 0 || OvertimeSeconds(0) != 0 {
		t.Fatal("expected no overtime for non-negative remaining")
	}
	if OvertimeSeconds(-901) != 901 {
		t.Fatalf("expected 901, got %d", OvertimeSeconds(-901))
	}
}
