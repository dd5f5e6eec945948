package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"
)

func TestFillWatcher_Filled(t *testing.T) {
	gw := newFakeGateway()
	gw.activeFn = func(n int) (domain.OrderListResponse, error) {
		if n < 3 {
			return listing(restingRecord("o1")), nil
		}
		return listing(), nil
	}
	gw.historicFn = func(int) (domain.OrderListResponse, error) {
		return listing(filledRecord("o1", "99.98")), nil
	}
	clock := newFakeClock()
	w := NewFillWatcher(gw, testConfig(), clock, discardLogger())

	start := clock.Now()
	filled, err := w.WaitForFill(context.Background(), "o1", 2*time.Second)
	if err != nil || !filled {
		t.Fatalf("got filled=%v err=%v, want filled", filled, err)
	}
	if gw.count("active") != 3 {
		t.Errorf("active polls = %d, want 3", gw.count("active"))
	}
	if got := clock.elapsed(start); got != time.Second {
		t.Errorf("elapsed %v, want 1s", got)
	}
}

func TestFillWatcher_CancelledOnExchange(t *testing.T) {
	gw := newFakeGateway()
	gw.historicFn = func(int) (domain.OrderListResponse, error) {
		return listing(domain.OrderRecord{OrderID: "o1", Status: domain.OrderStatusCancelled}), nil
	}
	w := NewFillWatcher(gw, testConfig(), newFakeClock(), discardLogger())

	filled, err := w.WaitForFill(context.Background(), "o1", 2*time.Second)
	if err != nil || filled {
		t.Errorf("got filled=%v err=%v, want not filled", filled, err)
	}
	if gw.count("active") != 1 {
		t.Errorf("terminal status should stop polling, got %d polls", gw.count("active"))
	}
}

func TestFillWatcher_Timeout(t *testing.T) {
	gw := newFakeGateway()
	gw.activeFn = func(int) (domain.OrderListResponse, error) {
		return listing(restingRecord("o1")), nil
	}
	clock := newFakeClock()
	w := NewFillWatcher(gw, testConfig(), clock, discardLogger())

	start := clock.Now()
	filled, err := w.WaitForFill(context.Background(), "o1", 1200*time.Millisecond)
	if err != nil || filled {
		t.Fatalf("got filled=%v err=%v, want timeout", filled, err)
	}
	// Checks at 0, 500ms, 1s, 1.2s; the last sleep is clipped to the deadline.
	if gw.count("active") != 4 {
		t.Errorf("active polls = %d, want 4", gw.count("active"))
	}
	if got := clock.elapsed(start); got != 1200*time.Millisecond {
		t.Errorf("elapsed %v, want 1.2s", got)
	}
}

func TestFillWatcher_ZeroTimeoutStillChecks(t *testing.T) {
	gw := newFakeGateway()
	gw.historicFn = func(int) (domain.OrderListResponse, error) {
		return listing(filledRecord("o1", "100")), nil
	}
	w := NewFillWatcher(gw, testConfig(), newFakeClock(), discardLogger())

	filled, err := w.WaitForFill(context.Background(), "o1", 0)
	if err != nil || !filled {
		t.Errorf("got filled=%v err=%v, want filled from the single check", filled, err)
	}
}

func TestFillWatcher_PollErrorsKeepWaiting(t *testing.T) {
	gw := newFakeGateway()
	gw.activeFn = func(n int) (domain.OrderListResponse, error) {
		switch n {
		case 1:
			return domain.OrderListResponse{}, domain.NewNetworkError("active_orders", errors.New("EOF"))
		case 2:
			return domain.OrderListResponse{RetCode: 10006, RetMsg: "too many visits"}, nil
		default:
			return listing(), nil
		}
	}
	gw.historicFn = func(n int) (domain.OrderListResponse, error) {
		if n == 1 {
			return domain.OrderListResponse{}, domain.NewNetworkError("historic_orders", errors.New("EOF"))
		}
		return listing(filledRecord("o1", "100")), nil
	}
	w := NewFillWatcher(gw, testConfig(), newFakeClock(), discardLogger())

	filled, err := w.WaitForFill(context.Background(), "o1", 5*time.Second)
	if err != nil || !filled {
		t.Fatalf("got filled=%v err=%v, want filled", filled, err)
	}
	if gw.count("active") != 4 {
		t.Errorf("active polls = %d, want 4", gw.count("active"))
	}
}

func TestFillWatcher_MissingEverywhereKeepsWaiting(t *testing.T) {
	gw := newFakeGateway()
	w := NewFillWatcher(gw, testConfig(), newFakeClock(), discardLogger())

	filled, err := w.WaitForFill(context.Background(), "ghost", time.Second)
	if err != nil || filled {
		t.Errorf("got filled=%v err=%v, want timeout", filled, err)
	}
	if gw.count("historic") != 3 {
		t.Errorf("historic polls = %d, want 3", gw.count("historic"))
	}
}

func TestFillWatcher_ContextCancelled(t *testing.T) {
	gw := newFakeGateway()
	gw.activeFn = func(int) (domain.OrderListResponse, error) {
		return listing(restingRecord("o1")), nil
	}
	clock := newFakeClock()
	clock.hold = true
	w := NewFillWatcher(gw, testConfig(), clock, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.WaitForFill(ctx, "o1", time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFillWatcher_HungPollIsBounded(t *testing.T) {
	gw := newFakeGateway()
	var unbounded int
	gw.activeCtxFn = func(ctx context.Context, _ int) (domain.OrderListResponse, error) {
		if _, ok := ctx.Deadline(); !ok {
			unbounded++
			return domain.OrderListResponse{}, errors.New("poll without deadline")
		}
		<-ctx.Done()
		return domain.OrderListResponse{}, domain.NewNetworkError("active_orders", ctx.Err())
	}
	cfg := testConfig()
	cfg.PollInterval = 10 * time.Millisecond
	w := NewFillWatcher(gw, cfg, newFakeClock(), discardLogger())

	type outcome struct {
		filled bool
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		filled, err := w.WaitForFill(context.Background(), "o1", 30*time.Millisecond)
		done <- outcome{filled, err}
	}()

	select {
	case got := <-done:
		if got.err != nil || got.filled {
			t.Errorf("got filled=%v err=%v, want timeout", got.filled, got.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("hung listing held the wait far past its timeout")
	}
	if unbounded != 0 {
		t.Errorf("%d polls ran without a deadline", unbounded)
	}
	// Checks at 0, 10ms, 20ms, 30ms.
	if gw.count("active") != 4 {
		t.Errorf("active polls = %d, want 4", gw.count("active"))
	}
}

func TestOrderCanceller_Cancel(t *testing.T) {
	tests := []struct {
		name string
		resp domain.CancelOrderResponse
		err  error
		want CancelOutcome
	}{
		{"confirmed", domain.CancelOrderResponse{}, nil, CancelConfirmed},
		{"derivatives not exists", domain.CancelOrderResponse{RetCode: 110001, RetMsg: "order not exists or too late to cancel"}, nil, CancelAlreadyGone},
		{"spot not exists", domain.CancelOrderResponse{RetCode: 170213, RetMsg: "Order does not exist."}, nil, CancelAlreadyGone},
		{"message only", domain.CancelOrderResponse{RetCode: 99999, RetMsg: "Too late to cancel"}, nil, CancelAlreadyGone},
		{"other rejection", domain.CancelOrderResponse{RetCode: 10001, RetMsg: "params error"}, nil, CancelFailed},
		{"transport failure", domain.CancelOrderResponse{}, domain.NewNetworkError("cancel_order", errors.New("EOF")), CancelFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.cancelFn = func(int, string) (domain.CancelOrderResponse, error) {
				return tt.resp, tt.err
			}
			metrics := &infra.Metrics{}
			c := NewOrderCanceller(gw, testConfig(), metrics, discardLogger())

			got := c.Cancel(context.Background(), "o1")
			if got != tt.want {
				t.Errorf("outcome = %s, want %s", got, tt.want)
			}
			if got.Cancelled() != (tt.want == CancelConfirmed) {
				t.Errorf("Cancelled() = %v for %s", got.Cancelled(), got)
			}

			snap := metrics.Snapshot()
			if snap.CancelsOK+snap.CancelRaces+snap.CancelFailures != 1 {
				t.Errorf("expected exactly one cancel metric, got %+v", snap)
			}
		})
	}
}
