package execution

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"crypto_exec/internal/domain"

	"github.com/shopspring/decimal"
)

// fakeGateway is a scripted domain.ExchangeGateway. Each hook receives the
// 1-based call number of that method; nil hooks use a benign default.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []string
	counts map[string]int

	submits   []domain.SubmitOrderRequest
	positions []domain.PositionRequest

	submitFn   func(n int, req domain.SubmitOrderRequest) (domain.SubmitOrderResponse, error)
	activeFn   func(n int) (domain.OrderListResponse, error)
	historicFn func(n int) (domain.OrderListResponse, error)
	cancelFn   func(n int, orderID string) (domain.CancelOrderResponse, error)
	openFn     func(n int, req domain.PositionRequest) (string, error)

	// activeCtxFn takes precedence over activeFn and sees the call's context.
	activeCtxFn func(ctx context.Context, n int) (domain.OrderListResponse, error)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{counts: make(map[string]int)}
}

func (g *fakeGateway) record(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
	g.counts[name]++
	return g.counts[name]
}

func (g *fakeGateway) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[name]
}

// index returns the position of the first call to name, or -1.
func (g *fakeGateway) index(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, c := range g.calls {
		if c == name {
			return i
		}
	}
	return -1
}

func (g *fakeGateway) SubmitOrder(_ context.Context, req domain.SubmitOrderRequest) (domain.SubmitOrderResponse, error) {
	n := g.record("submit")
	g.mu.Lock()
	g.submits = append(g.submits, req)
	g.mu.Unlock()
	if g.submitFn != nil {
		return g.submitFn(n, req)
	}
	return domain.SubmitOrderResponse{OrderID: "limit-1"}, nil
}

func (g *fakeGateway) GetActiveOrders(ctx context.Context, _ string) (domain.OrderListResponse, error) {
	n := g.record("active")
	if g.activeCtxFn != nil {
		return g.activeCtxFn(ctx, n)
	}
	if g.activeFn != nil {
		return g.activeFn(n)
	}
	return domain.OrderListResponse{}, nil
}

func (g *fakeGateway) GetHistoricOrders(_ context.Context, _ string) (domain.OrderListResponse, error) {
	n := g.record("historic")
	if g.historicFn != nil {
		return g.historicFn(n)
	}
	return domain.OrderListResponse{}, nil
}

func (g *fakeGateway) CancelOrder(_ context.Context, _ string, orderID string) (domain.CancelOrderResponse, error) {
	n := g.record("cancel")
	if g.cancelFn != nil {
		return g.cancelFn(n, orderID)
	}
	return domain.CancelOrderResponse{}, nil
}

func (g *fakeGateway) OpenPosition(_ context.Context, req domain.PositionRequest) (string, error) {
	n := g.record("open_position")
	g.mu.Lock()
	g.positions = append(g.positions, req)
	g.mu.Unlock()
	if g.openFn != nil {
		return g.openFn(n, req)
	}
	return "market-1", nil
}

func listing(records ...domain.OrderRecord) domain.OrderListResponse {
	return domain.OrderListResponse{List: records}
}

func filledRecord(id, avg string) domain.OrderRecord {
	return domain.OrderRecord{OrderID: id, Status: domain.OrderStatusFilled, AvgPrice: decimal.RequireFromString(avg)}
}

func restingRecord(id string) domain.OrderRecord {
	return domain.OrderRecord{OrderID: id, Status: domain.OrderStatusNew, AvgPrice: decimal.Zero}
}

// fakeClock advances Now by d on every After(d) and fires at once.
// With hold set, After never fires.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	hold  bool
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	if c.hold {
		return ch
	}
	c.now = c.now.Add(d)
	ch <- c.now
	return ch
}

func (c *fakeClock) elapsed(since time.Time) time.Duration {
	return c.Now().Sub(since)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() domain.ExecutionConfig {
	cfg := domain.DefaultExecutionConfig()
	cfg.Timeout = 2 * time.Second
	cfg.PollInterval = 500 * time.Millisecond
	cfg.MaxRetries = 1
	return cfg
}
