package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/renance-monitor/internal/api"
	"github.com/rickgao/renance-monitor/internal/model"
)

// mockFetcher returns a fixed order set and records the tokens it was called with.
type mockFetcher struct {
	mu     sync.Mutex
	tokens []string
	calls  atomic.Int32
	orders []model.Order
	err    error
	delay  time.Duration
}

func (m *mockFetcher) GetOpenOrders(ctx context.Context, token string, opts api.GetOrdersOptions) ([]model.Order, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.tokens = append(m.tokens, token)
	err := m.err
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return m.orders, nil
}

func TestPoller_ImmediateFetchThenInterval(t *testing.T) {
	f := &mockFetcher{orders: []model.Order{{ID: "o1", Status: "open"}}}
	p := New(Config{Interval: 200 * time.Millisecond, Limit: 50}, f, nil)

	p.SetToken(context.Background(), "tok")
	defer p.Stop(context.Background())

	time.Sleep(100 * time.Millisecond)
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("calls after 100ms = %d, want 1", got)
	}
	if len(p.Orders()) != 1 || p.LastFetchedAt().IsZero() {
		t.Errorf("orders = %v, fetchedAt = %v", p.Orders(), p.LastFetchedAt())
	}

	time.Sleep(200 * time.Millisecond)
	if got := f.calls.Load(); got != 2 {
		t.Errorf("calls after 300ms = %d, want 2", got)
	}
}

func TestPoller_ClearTokenStopsPolling(t *testing.T) {
	f := &mockFetcher{}
	p := New(Config{Interval: 50 * time.Millisecond}, f, nil)

	p.SetToken(context.Background(), "tok")
	time.Sleep(120 * time.Millisecond)
	p.ClearToken()

	after := f.calls.Load()
	time.Sleep(200 * time.Millisecond)
	if got := f.calls.Load(); got != after {
		t.Errorf("calls grew from %d to %d after ClearToken", after, got)
	}
	if p.HasToken() {
		t.Error("HasToken should be false")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestPoller_DiscardsResultsOfClearedToken(t *testing.T) {
	f := &mockFetcher{orders: []model.Order{{ID: "late"}}, delay: 500 * time.Millisecond}
	p := New(Config{Interval: time.Hour}, f, nil)

	p.SetToken(context.Background(), "tok")
	defer p.Stop(context.Background())

	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- p.Refresh(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	p.ClearToken()

	if err := <-done; err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("Refresh took %v, want it cancelled by ClearToken", elapsed)
	}
	if got := p.Orders(); len(got) != 0 {
		t.Errorf("orders = %v, want none", got)
	}
}

func TestPoller_RefreshAfterStop(t *testing.T) {
	f := &mockFetcher{}
	p := New(Config{Interval: time.Hour}, f, nil)

	p.SetToken(context.Background(), "tok")
	deadline := time.Now().Add(time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	before := f.calls.Load()
	if err := p.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh after Stop failed: %v", err)
	}
	if got := f.calls.Load(); got != before {
		t.Errorf("calls = %d, want %d (no fetch after Stop)", got, before)
	}
	if !p.HasToken() {
		t.Error("Stop should keep the token")
	}

	// SetToken resumes polling.
	p.SetToken(context.Background(), "tok")
	defer p.Stop(context.Background())
	deadline = time.Now().Add(time.Second)
	for f.calls.Load() == before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.calls.Load() == before {
		t.Error("SetToken after Stop did not resume polling")
	}
}

func TestPoller_FailureKeepsOrders(t *testing.T) {
	f := &mockFetcher{orders: []model.Order{{ID: "o1"}}}
	p := New(Config{Interval: time.Hour}, f, nil)

	p.SetToken(context.Background(), "tok")
	defer p.Stop(context.Background())

	deadline := time.Now().Add(time.Second)
	for len(p.Orders()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	f.mu.Lock()
	f.err = errors.New("unauthorized")
	f.mu.Unlock()

	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := p.Orders(); len(got) != 1 || got[0].ID != "o1" {
		t.Errorf("orders = %v, want unchanged", got)
	}
	if p.LastError() == nil {
		t.Error("LastError should be set")
	}
}

func TestPoller_RefreshWithoutToken(t *testing.T) {
	f := &mockFetcher{}
	p := New(DefaultConfig(), f, nil)

	if err := p.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh failed: %v", err)
	}
	if f.calls.Load() != 0 {
		t.Error("Refresh without token should not fetch")
	}
}

func TestPoller_RefreshKeepsPhase(t *testing.T) {
	f := &mockFetcher{}
	p := New(Config{Interval: 200 * time.Millisecond}, f, nil)

	p.SetToken(context.Background(), "tok")
	defer p.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	// immediate + refresh
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}

	// The tick still lands ~200ms after start, not 200ms after the refresh.
	time.Sleep(200 * time.Millisecond)
	if got := f.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestPoller_WithAPIClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer session-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id":"o1","symbol":"BTCUSDT","side":"sell","type":"limit","price":"101","size":"0.5","status":"open"}]`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, api.WithRetries(0, 0))
	p := New(Config{Interval: time.Hour, Limit: 50}, client, nil)

	p.SetToken(context.Background(), "session-1")
	defer p.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for p.LastFetchedAt().IsZero() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	orders := p.Orders()
	if len(orders) != 1 || orders[0].Side != model.SideSell || orders[0].Symbol != "BTCUSDT" {
		t.Errorf("orders = %+v", orders)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
