package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/c-johnson06/optionSentinel/internal/domain/models"
)

type fakeFetcher struct {
	mu          sync.Mutex
	quotes      map[string]*models.Quote
	expirations map[string][]string
	chains      map[string][]models.Contract // keyed ticker|expiration
	failQuote   map[string]bool
	chainCalls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		quotes:      make(map[string]*models.Quote),
		expirations: make(map[string][]string),
		chains:      make(map[string][]models.Contract),
		failQuote:   make(map[string]bool),
		chainCalls:  make(map[string]int),
	}
}

func (f *fakeFetcher) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failQuote[symbol] {
		return nil, errors.New("quote unavailable")
	}
	return f.quotes[symbol], nil
}

func (f *fakeFetcher) GetExpirations(_ context.Context, symbol string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expirations[symbol], nil
}

func (f *fakeFetcher) GetChain(_ context.Context, symbol, expiration string) ([]models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainCalls[symbol]++
	return f.chains[symbol+"|"+expiration], nil
}

func (f *fakeFetcher) calls(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainCalls[symbol]
}

type fakeDynamic map[string]bool

func (d fakeDynamic) IsDynamic(ticker string) bool { return d[ticker] }

func testScanner(f *fakeFetcher, dynamic DynamicSet) *Scanner {
	return NewScanner(f, testScorer(), dynamic, ScanConfig{
		DefaultExpirations: 1,
		DynamicExpirations: 3,
		MinScoreDefault:    40,
		MinScoreDynamic:    30,
	}, nil, nil)
}

// seedTicker wires a quote, expirations, and one strong contract per
// expiration for the given ticker.
func seedTicker(f *fakeFetcher, ticker string, exps ...string) {
	f.quotes[ticker] = &models.Quote{Symbol: ticker, Last: 100}
	f.expirations[ticker] = exps
	for _, exp := range exps {
		f.chains[ticker+"|"+exp] = []models.Contract{
			contract(600, 100, 5, 4.8, 5.2, exp),
		}
	}
}

func TestScanDefaultDepthIsOneExpiration(t *testing.T) {
	f := newFakeFetcher()
	seedTicker(f, "XYZ", expIn(5), expIn(12), expIn(19))

	s := testScanner(f, fakeDynamic{})
	sigs := s.Scan(context.Background(), "XYZ")

	if f.calls("XYZ") != 1 {
		t.Fatalf("default ticker should fetch 1 chain, fetched %d", f.calls("XYZ"))
	}
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(sigs))
	}
}

func TestScanDynamicDepthIsThreeExpirations(t *testing.T) {
	f := newFakeFetcher()
	seedTicker(f, "XYZ", expIn(5), expIn(12), expIn(19), expIn(26))

	s := testScanner(f, fakeDynamic{"XYZ": true})
	sigs := s.Scan(context.Background(), "XYZ")

	if f.calls("XYZ") != 3 {
		t.Fatalf("dynamic ticker should fetch 3 chains, fetched %d", f.calls("XYZ"))
	}
	if len(sigs) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(sigs))
	}
}

func TestScanInclusionThresholds(t *testing.T) {
	f := newFakeFetcher()
	exp := expIn(30)
	f.quotes["ABC"] = &models.Quote{Symbol: "ABC", Last: 100}
	f.expirations["ABC"] = []string{exp}
	// $60K premium (10) + ratio 1.2 (10) + at-ask (20) = 40, above mid, far
	// dated: lands exactly on the default threshold
	f.chains["ABC|"+exp] = []models.Contract{
		contract(100, 80, 6, 5.9, 6.1, exp),
	}

	s := testScanner(f, fakeDynamic{})
	if got := s.Scan(context.Background(), "ABC"); len(got) != 1 {
		t.Fatalf("score 40 should pass the default threshold, got %d signals", len(got))
	}

	// passive print drops aggression: 10 + 10 = 20, below both thresholds
	f.mu.Lock()
	f.chains["ABC|"+exp] = []models.Contract{
		contract(100, 80, 5.9, 5.9, 6.1, exp),
	}
	f.mu.Unlock()
	if got := s.Scan(context.Background(), "ABC"); len(got) != 0 {
		t.Fatalf("score 20 should be excluded, got %d signals", len(got))
	}

	// dynamic threshold 30: a 30-point contract passes only when dynamic
	f.mu.Lock()
	f.chains["ABC|"+exp] = []models.Contract{
		contract(500, 450, 5.9, 5.9, 6.1, exp), // $295K (20) + ratio 1.1 (10) = 30, passive
	}
	f.mu.Unlock()
	if got := s.Scan(context.Background(), "ABC"); len(got) != 0 {
		t.Fatalf("score 30 should miss the default threshold")
	}
	sd := testScanner(f, fakeDynamic{"ABC": true})
	if got := sd.Scan(context.Background(), "ABC"); len(got) != 1 {
		t.Fatalf("score 30 should pass the dynamic threshold, got %d signals", len(got))
	}
}

func TestScanFailureYieldsEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.failQuote["BAD"] = true
	f.expirations["BAD"] = []string{expIn(5)}

	s := testScanner(f, fakeDynamic{})
	if got := s.Scan(context.Background(), "BAD"); len(got) != 0 {
		t.Fatalf("failed scan should yield empty, got %d", len(got))
	}
}

func TestScanMissingQuoteOrExpirationsYieldsEmpty(t *testing.T) {
	f := newFakeFetcher()
	// quote without expirations
	f.quotes["NOEXP"] = &models.Quote{Symbol: "NOEXP", Last: 10}
	// expirations without quote
	f.expirations["NOQ"] = []string{expIn(5)}

	s := testScanner(f, fakeDynamic{})
	if got := s.Scan(context.Background(), "NOEXP"); len(got) != 0 {
		t.Fatalf("no expirations should yield empty")
	}
	if got := s.Scan(context.Background(), "NOQ"); len(got) != 0 {
		t.Fatalf("no quote should yield empty")
	}
}

func TestScanAllIsolatesFailuresAndSorts(t *testing.T) {
	f := newFakeFetcher()
	exp := expIn(5)
	seedTicker(f, "XYZ", exp) // scores 80
	f.quotes["ABC"] = &models.Quote{Symbol: "ABC", Last: 100}
	f.expirations["ABC"] = []string{exp}
	f.chains["ABC|"+exp] = []models.Contract{
		contract(10_000, 100, 5, 4.8, 5.2, exp), // clamps to 100
	}
	f.failQuote["BAD"] = true

	s := testScanner(f, fakeDynamic{})
	sigs := s.ScanAll(context.Background(), []string{"XYZ", "BAD", "ABC"})

	if len(sigs) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(sigs))
	}
	if sigs[0].Score < sigs[1].Score {
		t.Fatalf("signals not sorted by score descending: %d then %d", sigs[0].Score, sigs[1].Score)
	}
	if sigs[0].Ticker != "ABC" || sigs[1].Ticker != "XYZ" {
		t.Fatalf("unexpected order %s, %s", sigs[0].Ticker, sigs[1].Ticker)
	}
}

func TestScanUppercasesTicker(t *testing.T) {
	f := newFakeFetcher()
	seedTicker(f, "XYZ", expIn(5))

	s := testScanner(f, fakeDynamic{})
	sigs := s.Scan(context.Background(), "xyz")
	if len(sigs) != 1 || sigs[0].Ticker != "XYZ" {
		t.Fatalf("ticker should be uppercased, got %+v", sigs)
	}
}
