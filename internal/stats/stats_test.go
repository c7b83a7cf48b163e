package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rickgao/renance-monitor/internal/api"
	"github.com/rickgao/renance-monitor/internal/model"
)

type stubSource struct {
	stats *model.VolumeStats
	err   error
	start time.Time
	end   time.Time
}

func (s *stubSource) GetVolume(ctx context.Context, start, end time.Time) (*model.VolumeStats, error) {
	s.start, s.end = start, end
	return s.stats, s.err
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999.4, "$999"},
		{1234567.89, "$1,234,568"},
		{1000, "$1,000"},
		{-2500.2, "-$2,500"},
	}

	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount = %q", got)
	}
}

func TestFetchDaily(t *testing.T) {
	src := &stubSource{stats: &model.VolumeStats{Summary: model.VolumeSummary{TotalVolumeUSD: 10, TradeCount: 2}}}
	f := NewFetcher(src, nil)

	day := time.Date(2024, 3, 5, 17, 30, 0, 0, time.UTC)
	got, err := f.FetchDaily(context.Background(), day)
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}
	if got.Summary.TradeCount != 2 {
		t.Errorf("TradeCount = %d", got.Summary.TradeCount)
	}

	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !src.start.Equal(want) || !src.end.Equal(want) {
		t.Errorf("range = %v..%v, want %v", src.start, src.end, want)
	}

	last, lastDay := f.Last()
	if last != got || !lastDay.Equal(want) {
		t.Errorf("Last() = %v, %v", last, lastDay)
	}
}

func TestFetchDaily_FailureKeepsLast(t *testing.T) {
	good := &model.VolumeStats{Summary: model.VolumeSummary{TradeCount: 7}}
	src := &stubSource{stats: good}
	f := NewFetcher(src, nil)

	if _, err := f.FetchDaily(context.Background(), time.Now()); err != nil {
		t.Fatal(err)
	}

	src.stats, src.err = nil, errors.New("upstream down")
	if _, err := f.FetchDaily(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error")
	}

	if last, _ := f.Last(); last != good {
		t.Errorf("Last() = %v, want previous result", last)
	}
}

func TestFetchDaily_ThroughClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volume" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("start_date") != "2024-03-05" {
			t.Errorf("start_date = %q", r.URL.Query().Get("start_date"))
		}
		w.Write([]byte(`{"summary":{"total_volume_usd":1500000,"trade_count":1200,"total_fees":300},"by_symbol":[{"symbol":"ETHUSDT","volume_usd":500000},{"symbol":"BTCUSDT","volume_usd":1000000}],"by_time":[]}`))
	}))
	defer server.Close()

	f := NewFetcher(api.NewClient(server.URL, api.WithRetries(0, 0)), nil)
	stats, err := f.FetchDaily(context.Background(), time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}

	if got := FormatUSD(stats.Summary.TotalVolumeUSD); got != "$1,500,000" {
		t.Errorf("volume = %q", got)
	}
	top := TopSymbols(stats, 1)
	if len(top) != 1 || top[0].Symbol != "BTCUSDT" {
		t.Errorf("TopSymbols = %+v", top)
	}
}

func TestFetchDaily_CancelledIsReturned(t *testing.T) {
	src := &stubSource{err: context.Canceled}
	f := NewFetcher(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.FetchDaily(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
