package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	factory := func(string) (*Pipeline, error) { return New(), nil }

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory)
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("concurrency = %d, want %d", bp.concurrency, DefaultConcurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory, WithConcurrency(7))
		if bp.concurrency != 7 {
			t.Errorf("concurrency = %d, want 7", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("concurrency = %d, want %d", bp.concurrency, DefaultConcurrency)
		}
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		sources := []string{"a", "b", "c", "d", "e"}
		delays := map[string]time.Duration{"a": 30 * time.Millisecond, "c": 10 * time.Millisecond}

		factory := func(source string) (*Pipeline, error) {
			p := New()
			p.AddStep(&mockStep{
				name: "sleep",
				doFunc: func(context.Context, *Audit) error {
					time.Sleep(delays[source])
					return nil
				},
			})
			return p, nil
		}

		audits, err := NewBatchProcessor(factory, WithConcurrency(3)).ProcessBatch(context.Background(), sources)
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if len(audits) != len(sources) {
			t.Fatalf("len(audits) = %d, want %d", len(audits), len(sources))
		}
		for i, audit := range audits {
			if audit.Source != sources[i] {
				t.Errorf("audits[%d].Source = %q, want %q", i, audit.Source, sources[i])
			}
		}
	})

	t.Run("failures stay in their audit", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("unreachable")
		factory := func(source string) (*Pipeline, error) {
			p := New()
			if source == "bad" {
				p.AddStep(failingStep("fetch", Halt(stepErr)))
			}
			return p, nil
		}

		audits, err := NewBatchProcessor(factory).ProcessBatch(context.Background(), []string{"good", "bad"})
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if audits[0].Failed() {
			t.Errorf("good audit failed: %v", audits[0].Err)
		}
		if !errors.Is(audits[1].Err, stepErr) {
			t.Errorf("bad audit Err = %v, want %v", audits[1].Err, stepErr)
		}
	})

	t.Run("factory error is recorded", func(t *testing.T) {
		t.Parallel()

		factoryErr := errors.New("bad proxy")
		factory := func(string) (*Pipeline, error) { return nil, factoryErr }

		audits, err := NewBatchProcessor(factory).ProcessBatch(context.Background(), []string{"x"})
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if !errors.Is(audits[0].Err, factoryErr) {
			t.Errorf("Err = %v, want %v", audits[0].Err, factoryErr)
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func(string) (*Pipeline, error) {
			p := New()
			p.AddStep(&mockStep{
				name: "track",
				doFunc: func(context.Context, *Audit) error {
					n := running.Add(1)
					for {
						old := peak.Load()
						if n <= old || peak.CompareAndSwap(old, n) {
							break
						}
					}
					time.Sleep(10 * time.Millisecond)
					running.Add(-1)
					return nil
				},
			})
			return p, nil
		}

		sources := make([]string, 10)
		for i := range sources {
			sources[i] = "s"
		}
		if _, err := NewBatchProcessor(factory, WithConcurrency(2)).ProcessBatch(context.Background(), sources); err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		factory := func(string) (*Pipeline, error) { return New(), nil }
		audits, err := NewBatchProcessor(factory).ProcessBatch(ctx, []string{"a", "b"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("ProcessBatch() error = %v, want context.Canceled", err)
		}
		for i, audit := range audits {
			if audit == nil || !errors.Is(audit.Err, context.Canceled) {
				t.Errorf("audits[%d] = %+v, want cancelled audit", i, audit)
			}
		}
	})
}

func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	factory := func(string) (*Pipeline, error) { return New(), nil }
	sources := []string{"a", "b", "c"}

	var (
		mu   sync.Mutex
		seen = make(map[int]string)
	)
	err := NewBatchProcessor(factory).ProcessBatchWithCallback(context.Background(), sources, func(audit *Audit, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = audit.Source
	})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback() error = %v", err)
	}
	if len(seen) != len(sources) {
		t.Fatalf("callbacks = %d, want %d", len(seen), len(sources))
	}
	for i, source := range sources {
		if seen[i] != source {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], source)
		}
	}
}
