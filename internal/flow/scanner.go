package flow

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
	"github.com/c-johnson06/optionSentinel/pkg/metrics"
)

// Fetcher is the slice of the upstream client the scanner needs.
type Fetcher interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetExpirations(ctx context.Context, symbol string) ([]string, error)
	GetChain(ctx context.Context, symbol, expiration string) ([]models.Contract, error)
}

// DynamicSet reports whether a ticker was requested by a connected viewer.
// Viewer-requested tickers get deeper scans and a more inclusive threshold.
type DynamicSet interface {
	IsDynamic(ticker string) bool
}

// ScanConfig tunes scan depth and inclusion thresholds.
type ScanConfig struct {
	DefaultExpirations int // near-term expirations scanned for default tickers
	DynamicExpirations int // and for viewer-requested ones
	MinScoreDefault    int
	MinScoreDynamic    int
}

// Scanner runs the per-ticker scan pipeline: quote + expirations, then one
// chain per selected expiration, then scoring.
type Scanner struct {
	fetcher Fetcher
	scorer  *Scorer
	dynamic DynamicSet
	cfg     ScanConfig
	log     *logger.Logger
	metrics *metrics.Recorder
}

func NewScanner(fetcher Fetcher, scorer *Scorer, dynamic DynamicSet, cfg ScanConfig, log *logger.Logger, rec *metrics.Recorder) *Scanner {
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{
		fetcher: fetcher,
		scorer:  scorer,
		dynamic: dynamic,
		cfg:     cfg,
		log:     log,
		metrics: rec,
	}
}

// Scan scores every near-term contract for one ticker and returns the
// surviving signals ranked by score. It never fails: any error yields an
// empty result so one bad ticker cannot abort a multi-ticker scan.
func (s *Scanner) Scan(ctx context.Context, ticker string) []models.ScoredSignal {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil
	}

	var (
		wg       sync.WaitGroup
		quote    *models.Quote
		quoteErr error
		exps     []string
		expsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		quote, quoteErr = s.fetcher.GetQuote(ctx, ticker)
	}()
	go func() {
		defer wg.Done()
		exps, expsErr = s.fetcher.GetExpirations(ctx, ticker)
	}()
	wg.Wait()

	if quoteErr != nil || expsErr != nil {
		s.recordFailure(ticker, quoteErr, expsErr)
		return nil
	}
	if quote == nil || len(exps) == 0 {
		return nil
	}

	dynamic := s.dynamic != nil && s.dynamic.IsDynamic(ticker)

	depth := s.cfg.DefaultExpirations
	minScore := s.cfg.MinScoreDefault
	if dynamic {
		depth = s.cfg.DynamicExpirations
		minScore = s.cfg.MinScoreDynamic
	}
	if depth > len(exps) {
		depth = len(exps)
	}

	contracts := s.fetchChains(ctx, ticker, exps[:depth])

	signals := make([]models.ScoredSignal, 0, len(contracts))
	for _, c := range contracts {
		sig, ok := s.scorer.Score(c, *quote)
		if !ok || sig.Score < minScore {
			continue
		}
		sig.Ticker = ticker
		signals = append(signals, sig)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Score > signals[j].Score
	})

	if s.metrics != nil {
		s.metrics.RecordScan(ticker)
	}
	return signals
}

// fetchChains pulls every selected expiration concurrently and flattens the
// results. A failed chain is logged and contributes nothing.
func (s *Scanner) fetchChains(ctx context.Context, ticker string, expirations []string) []models.Contract {
	type chainResult struct {
		contracts []models.Contract
		err       error
		exp       string
	}

	results := make(chan chainResult, len(expirations))
	var wg sync.WaitGroup
	for _, exp := range expirations {
		wg.Add(1)
		go func(exp string) {
			defer wg.Done()
			cs, err := s.fetcher.GetChain(ctx, ticker, exp)
			results <- chainResult{contracts: cs, err: err, exp: exp}
		}(exp)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []models.Contract
	for r := range results {
		if r.err != nil {
			s.log.Warn("chain fetch failed",
				logger.String("ticker", ticker),
				logger.String("expiration", r.exp),
				logger.Error(r.err))
			continue
		}
		all = append(all, r.contracts...)
	}
	return all
}

// ScanAll fans the scan out across tickers, flattens the results, and sorts
// by score descending. Per-ticker failures are already isolated by Scan.
func (s *Scanner) ScanAll(ctx context.Context, tickers []string) []models.ScoredSignal {
	results := make(chan []models.ScoredSignal, len(tickers))
	var wg sync.WaitGroup
	for _, t := range tickers {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			results <- s.Scan(ctx, t)
		}(t)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// empty set still marshals as a list, never null
	all := make([]models.ScoredSignal, 0)
	for sigs := range results {
		all = append(all, sigs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	return all
}

func (s *Scanner) recordFailure(ticker string, errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		s.log.Warn("scan failed", logger.String("ticker", ticker), logger.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordScanError(ticker)
	}
}
