package llmclient

import "testing"

func TestDelayForAttemptExponentialGrowthNoJitter(t *testing.T) {
	cfg := BackoffConfig{InitialDelayMS: 200, BackoffFactor: 2.0, MaxDelayMS: 60_000, Jitter: false}
	d1 := DelayForAttempt(1, cfg, "seed")
	d2 := DelayForAttempt(2, cfg, "seed")
	d3 := DelayForAttempt(3, cfg, "seed")
	if d1.Milliseconds() != 200 || d2.Milliseconds() != 400 || d3.Milliseconds() != 800 {
		t.Fatalf("got %v/%v/%v, want 200/400/800ms", d1, d2, d3)
	}
}

func TestDelayForAttemptCapsAtMaxDelay(t *testing.T) {
	cfg := BackoffConfig{InitialDelayMS: 200, BackoffFactor: 2.0, MaxDelayMS: 500, Jitter: false}
	d := DelayForAttempt(10, cfg, "seed")
	if d.Milliseconds() != 500 {
		t.Fatalf("got %v, want capped at 500ms", d)
	}
}

func TestDelayForAttemptDeterministicJitter(t *testing.T) {
	cfg := BackoffConfig{InitialDelayMS: 200, BackoffFactor: 2.0, MaxDelayMS: 60_000, Jitter: true}
	a := DelayForAttempt(2, cfg, "run-1:2")
	b := DelayForAttempt(2, cfg, "run-1:2")
	if a != b {
		t.Fatalf("same seed must yield same delay, got %v and %v", a, b)
	}
	c := DelayForAttempt(2, cfg, "run-2:2")
	if a == c {
		t.Error("different seeds should (almost always) yield different delays")
	}
}
