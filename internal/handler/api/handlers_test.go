package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/c-johnson06/optionSentinel/internal/cache"
	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	xhttp "github.com/c-johnson06/optionSentinel/pkg/http"
	"github.com/c-johnson06/optionSentinel/pkg/util"
)

type fakeMarket struct {
	quotes       map[string]*models.Quote
	expirations  map[string][]string
	chains       map[string][]models.Contract
	securities   []models.Security
	bars         []models.HistoryBar
	historyStart time.Time
	err          error
}

func (f *fakeMarket) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes[symbol], nil
}

func (f *fakeMarket) GetExpirations(_ context.Context, symbol string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.expirations[symbol], nil
}

func (f *fakeMarket) GetChain(_ context.Context, symbol, expiration string) ([]models.Contract, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chains[symbol+"/"+expiration], nil
}

func (f *fakeMarket) Search(_ context.Context, _ string) ([]models.Security, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.securities, nil
}

func (f *fakeMarket) GetHistory(_ context.Context, _ string, start time.Time) ([]models.HistoryBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.historyStart = start
	return f.bars, nil
}

type fakeScanner struct {
	got     []string
	signals []models.ScoredSignal
}

func (f *fakeScanner) ScanAll(_ context.Context, tickers []string) []models.ScoredSignal {
	f.got = tickers
	return f.signals
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func newTestHandler(market *fakeMarket, scanner *fakeScanner) (*Handler, *cache.TTLCache) {
	c := cache.NewTTLCache(fixedClock{now: testNow})
	return NewHandler(nil, market, scanner, c, []string{"SPY", "QQQ"}, fixedClock{now: testNow}), c
}

func doRequest(h echo.HandlerFunc, target string, params ...string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) >= 2 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, h(c)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) xhttp.APIResponse {
	t.Helper()
	var resp xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestQuoteKnownSymbol(t *testing.T) {
	market := &fakeMarket{quotes: map[string]*models.Quote{
		"TSLA": {Symbol: "TSLA", Last: 242.5},
	}}
	h, _ := newTestHandler(market, &fakeScanner{})

	rec, err := doRequest(h.Quote, "/quote/tsla", "ticker", "tsla")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	if !strings.Contains(rec.Body.String(), `"TSLA"`) {
		t.Errorf("body missing symbol: %s", rec.Body.String())
	}
}

func TestQuoteUnknownSymbolIs404(t *testing.T) {
	h, _ := newTestHandler(&fakeMarket{}, &fakeScanner{})

	rec, err := doRequest(h.Quote, "/quote/ZZZZ", "ticker", "ZZZZ")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Status)
	}
}

func TestQuoteUpstreamFailureIs5xx(t *testing.T) {
	h, _ := newTestHandler(&fakeMarket{err: errors.New("boom")}, &fakeScanner{})

	rec, err := doRequest(h.Quote, "/quote/SPY", "ticker", "SPY")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Status)
	}
}

func TestHistoryDefaultRange(t *testing.T) {
	market := &fakeMarket{bars: []models.HistoryBar{{Date: "2026-03-09", Close: 100}}}
	h, _ := newTestHandler(market, &fakeScanner{})

	rec, err := doRequest(h.History, "/history/SPY", "ticker", "SPY")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	want := testNow.AddDate(0, -1, 0)
	if !market.historyStart.Equal(want) {
		t.Errorf("start = %v, want %v", market.historyStart, want)
	}
}

func TestHistoryRangeWindow(t *testing.T) {
	cases := []struct {
		rng  string
		want time.Time
	}{
		{"1W", testNow.AddDate(0, 0, -7)},
		{"1M", testNow.AddDate(0, -1, 0)},
		{"3M", testNow.AddDate(0, -3, 0)},
	}
	for _, tc := range cases {
		market := &fakeMarket{}
		h, _ := newTestHandler(market, &fakeScanner{})

		_, err := doRequest(h.History, "/history/SPY?range="+tc.rng, "ticker", "SPY")
		if err != nil {
			t.Fatalf("History(%s): %v", tc.rng, err)
		}
		if !market.historyStart.Equal(tc.want) {
			t.Errorf("range %s: start = %v, want %v", tc.rng, market.historyStart, tc.want)
		}
	}
}

func TestHistoryRejectsUnknownRange(t *testing.T) {
	h, _ := newTestHandler(&fakeMarket{}, &fakeScanner{})

	rec, err := doRequest(h.History, "/history/SPY?range=5Y", "ticker", "SPY")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Status)
	}
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	market := &fakeMarket{securities: []models.Security{{Symbol: "A", Type: "stock"}}}
	h, _ := newTestHandler(market, &fakeScanner{})

	rec, err := doRequest(h.Search, "/search?q=a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.([]interface{})
	if !ok {
		t.Fatalf("data = %T, want list", resp.Data)
	}
	if len(data) != 0 {
		t.Errorf("got %d results for 1-char query, want 0", len(data))
	}
}

func TestSearchFiltersToStocksAndETFs(t *testing.T) {
	market := &fakeMarket{securities: []models.Security{
		{Symbol: "SPY", Type: "etf"},
		{Symbol: "TSLA", Type: "stock"},
		{Symbol: "VFIAX", Type: "mutual_fund"},
		{Symbol: "SPX", Type: "index"},
	}}
	h, _ := newTestHandler(market, &fakeScanner{})

	rec, err := doRequest(h.Search, "/search?q=sp")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{"SPY", "TSLA"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
	for _, reject := range []string{"VFIAX", "SPX"} {
		if strings.Contains(body, reject) {
			t.Errorf("body should not contain %s: %s", reject, body)
		}
	}
}

func TestFlowUsesDefaultTickers(t *testing.T) {
	scanner := &fakeScanner{signals: []models.ScoredSignal{{Ticker: "SPY", Score: 80}}}
	h, _ := newTestHandler(&fakeMarket{}, scanner)

	rec, err := doRequest(h.Flow, "/flow")
	if err != nil {
		t.Fatalf("Flow: %v", err)
	}
	if len(scanner.got) != 2 || scanner.got[0] != "SPY" || scanner.got[1] != "QQQ" {
		t.Fatalf("scanned %v, want defaults [SPY QQQ]", scanner.got)
	}
	if !strings.Contains(rec.Body.String(), `"score":80`) {
		t.Errorf("body missing signal: %s", rec.Body.String())
	}
}

func TestFlowHonorsTickersParam(t *testing.T) {
	scanner := &fakeScanner{}
	h, _ := newTestHandler(&fakeMarket{}, scanner)

	_, err := doRequest(h.Flow, "/flow?tickers=amd,%20nvda")
	if err != nil {
		t.Fatalf("Flow: %v", err)
	}
	if len(scanner.got) != 2 || scanner.got[0] != "AMD" || scanner.got[1] != "NVDA" {
		t.Fatalf("scanned %v, want [AMD NVDA]", scanner.got)
	}
}

func TestCacheStats(t *testing.T) {
	h, c := newTestHandler(&fakeMarket{}, &fakeScanner{})
	c.Set("quote?symbols=SPY", []byte(`{}`), 10*time.Second)

	rec, err := doRequest(h.CacheStats, "/cache/stats")
	if err != nil {
		t.Fatalf("CacheStats: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"size":1`) {
		t.Errorf("body missing size: %s", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(&fakeMarket{}, &fakeScanner{})

	rec, err := doRequest(h.Health, "/healthz")
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
}

var _ util.Clock = fixedClock{}
