package handler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchAll_AllSucceed(t *testing.T) {
	var ran int32
	task := func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}

	if err := fetchAll(context.Background(), task, task, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran != 3 {
		t.Errorf("ran = %d, want 3", ran)
	}
}

func TestFetchAll_FirstFailureCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	var cancelled int32

	fail := func(ctx context.Context) error { return boom }
	slow := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			atomic.AddInt32(&cancelled, 1)
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	}

	err := fetchAll(context.Background(), fail, slow)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the first failure", err)
	}
	if atomic.LoadInt32(&cancelled) != 1 {
		t.Error("sibling task was not cancelled")
	}
}

func TestFetchSettled_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	var survived int32

	errs := fetchSettled(context.Background(),
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			// A slight delay proves the failure above did not cancel us.
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			atomic.AddInt32(&survived, 1)
			return nil
		},
	)

	if len(errs) != 2 {
		t.Fatalf("len(errs) = %d, want 2", len(errs))
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("errs[0] = %v, want boom", errs[0])
	}
	if errs[1] != nil {
		t.Errorf("errs[1] = %v, want nil", errs[1])
	}
	if survived != 1 {
		t.Error("sibling did not run to completion")
	}
}

func TestFetchSettled_Empty(t *testing.T) {
	if errs := fetchSettled(context.Background()); len(errs) != 0 {
		t.Errorf("errs = %v, want empty", errs)
	}
}
