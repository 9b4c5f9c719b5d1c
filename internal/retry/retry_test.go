package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordedSleeps struct {
	waits []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func testPolicy(rec *recordedSleeps) Policy {
	p := New(3, 0.75, zerolog.Nop())
	p.Sleep = rec.sleep
	return p
}

func TestDo_AlwaysFailingRunsMaxAttempts(t *testing.T) {
	rec := &recordedSleeps{}
	p := testPolicy(rec)

	wantErr := errors.New("connection refused")
	calls := 0
	_, err := Do(context.Background(), p, "list", func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})

	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if err != wantErr {
		t.Fatalf("expected the last error unchanged, got %v", err)
	}
	if len(rec.waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(rec.waits))
	}
}

func TestDo_ReturnsLastErrorNotFirst(t *testing.T) {
	rec := &recordedSleeps{}
	p := testPolicy(rec)

	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	calls := 0
	_, err := Do(context.Background(), p, "list", func(ctx context.Context) (string, error) {
		e := errs[calls]
		calls++
		return "", e
	})
	if err != errs[2] {
		t.Fatalf("expected third error, got %v", err)
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	for k := 0; k < 3; k++ {
		rec := &recordedSleeps{}
		p := testPolicy(rec)

		calls := 0
		got, err := Do(context.Background(), p, "detail", func(ctx context.Context) (string, error) {
			calls++
			if calls <= k {
				return "", errors.New("503 Service Unavailable")
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if got != "ok" {
			t.Fatalf("k=%d: expected ok, got %q", k, got)
		}
		if calls != k+1 {
			t.Fatalf("k=%d: expected %d attempts, got %d", k, k+1, calls)
		}
		if len(rec.waits) != k {
			t.Fatalf("k=%d: expected %d waits, got %d", k, k, len(rec.waits))
		}
	}
}

func TestDo_BackoffShape(t *testing.T) {
	rec := &recordedSleeps{}
	p := testPolicy(rec)

	_, _ = Do(context.Background(), p, "list", func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	want := []time.Duration{time.Second, 750 * time.Millisecond}
	if len(rec.waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), rec.waits)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait %d: expected %v, got %v", i, want[i], rec.waits[i])
		}
	}
}

func TestBackoff(t *testing.T) {
	p := New(5, 0.75, zerolog.Nop())
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 750 * time.Millisecond},
		{2, 562500 * time.Microsecond},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(0, 0, zerolog.Nop())
	if p.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected MaxAttempts %d, got %d", DefaultMaxAttempts, p.MaxAttempts)
	}
	if p.BackoffBase != DefaultBackoffBase {
		t.Errorf("expected BackoffBase %v, got %v", DefaultBackoffBase, p.BackoffBase)
	}
}

func TestDo_StopsWhenContextCancelledDuringWait(t *testing.T) {
	p := New(3, 0.75, zerolog.Nop())
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	wantErr := errors.New("timeout")
	calls := 0
	_, err := Do(context.Background(), p, "list", func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
	if err != wantErr {
		t.Fatalf("expected attempt error, got %v", err)
	}
}

func TestDo_LogsEachFailedAttempt(t *testing.T) {
	var buf strings.Builder
	rec := &recordedSleeps{}
	p := New(3, 0.75, zerolog.New(&buf))
	p.Sleep = rec.sleep

	_, _ = Do(context.Background(), p, "getBidPblancListInfoCnstwkPPSSrch", func(ctx context.Context) (int, error) {
		return 0, errors.New(strings.Repeat("x", 500))
	})

	out := buf.String()
	if got := strings.Count(out, `"level":"warn"`); got != 2 {
		t.Errorf("expected 2 warn lines, got %d: %s", got, out)
	}
	if got := strings.Count(out, `"level":"error"`); got != 1 {
		t.Errorf("expected 1 error line, got %d", got)
	}
	if !strings.Contains(out, "getBidPblancListInfoCnstwkPPSSrch") {
		t.Error("expected target in log output")
	}
	if strings.Contains(out, strings.Repeat("x", 300)) {
		t.Error("expected error message to be truncated")
	}
}
