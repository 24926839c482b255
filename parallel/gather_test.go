package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/agentops/faults"
)

func after[T any](d time.Duration, v T, err error) Func[T] {
	return func(ctx context.Context) (T, error) {
		select {
		case <-time.After(d):
			return v, err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

func TestGatherWithTimeout_CollectsOutcomes(t *testing.T) {
	errMember := errors.New("member failed")
	outcomes, err := GatherWithTimeout(context.Background(), time.Second,
		after(10*time.Millisecond, "a", nil),
		after(1*time.Millisecond, "", errMember),
		after(5*time.Millisecond, "c", nil),
	)
	if err != nil {
		t.Fatalf("GatherWithTimeout() error = %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	if outcomes[0].Value != "a" || outcomes[2].Value != "c" {
		t.Errorf("outcomes = %+v, want values indexed like inputs", outcomes)
	}
	if !errors.Is(outcomes[1].Err, errMember) {
		t.Errorf("outcomes[1].Err = %v, want member error", outcomes[1].Err)
	}
}

func TestGatherWithTimeout_Timeout(t *testing.T) {
	var canceled atomic.Bool
	slow := func(ctx context.Context) (int, error) {
		<-ctx.Done()
		canceled.Store(true)
		return 0, ctx.Err()
	}

	_, err := GatherWithTimeout(context.Background(), 20*time.Millisecond,
		after(time.Millisecond, 1, nil),
		slow,
	)
	if !errors.Is(err, ErrGatherTimeout) {
		t.Fatalf("error = %v, want ErrGatherTimeout", err)
	}
	if got := faults.CategoryOf(err); got != faults.CategoryTimeoutError {
		t.Errorf("category = %q, want %q", got, faults.CategoryTimeoutError)
	}

	deadline := time.Now().Add(time.Second)
	for !canceled.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !canceled.Load() {
		t.Error("member context was not canceled after timeout")
	}
}

func TestGatherWithTimeout_NoTimeout(t *testing.T) {
	outcomes, err := GatherWithTimeout(context.Background(), 0,
		after(5*time.Millisecond, 1, nil),
		after(5*time.Millisecond, 2, nil),
	)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if outcomes[0].Value != 1 || outcomes[1].Value != 2 {
		t.Errorf("outcomes = %+v", outcomes)
	}
}

func TestGatherWithTimeout_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GatherWithTimeout(ctx, time.Second, after(time.Second, 1, nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRace_FirstWins(t *testing.T) {
	value, pending, err := Race(context.Background(),
		after(200*time.Millisecond, "slow", nil),
		after(time.Millisecond, "fast", nil),
		after(300*time.Millisecond, "slower", nil),
	)
	if err != nil {
		t.Fatalf("Race() error = %v", err)
	}
	if value != "fast" {
		t.Errorf("value = %q, want fast", value)
	}
	if pending.Len() != 2 {
		t.Errorf("pending.Len() = %d, want 2", pending.Len())
	}

	start := time.Now()
	pending.Cancel()
	pending.Wait()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("losers took %v to stop after Cancel", elapsed)
	}
}

func TestRace_FirstErrorWins(t *testing.T) {
	errFast := errors.New("fast failure")
	_, pending, err := Race(context.Background(),
		after(time.Millisecond, 0, errFast),
		after(200*time.Millisecond, 1, nil),
	)
	defer pending.Cancel()

	if !errors.Is(err, errFast) {
		t.Errorf("error = %v, want first finisher's error", err)
	}
}

func TestRace_NoFunctions(t *testing.T) {
	_, pending, err := Race[int](context.Background())
	if !errors.Is(err, ErrNoFunctions) {
		t.Errorf("error = %v, want ErrNoFunctions", err)
	}
	if pending != nil {
		t.Error("pending should be nil without functions")
	}
}

func TestRace_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, pending, err := Race(ctx, after(time.Second, 1, nil), after(time.Second, 2, nil))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if pending.Len() != 2 {
		t.Errorf("pending.Len() = %d, want 2", pending.Len())
	}
	pending.Wait()
}
