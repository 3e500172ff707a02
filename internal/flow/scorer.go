package flow

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	"github.com/c-johnson06/optionSentinel/pkg/util"
)

// Noise floors in premium dollars, by ticker class. Broad-market ETFs churn
// enormous baseline volume, so they need a much higher floor than a random
// small cap.
const (
	floorETF     = 1_000_000
	floorMegaCap = 100_000
	floorBase    = 25_000
)

// Score component points.
const (
	contractMultiplier = 100
	urgencyDTE         = 7
	maxScore           = 100
)

// ScoreConfig carries the ticker-class membership lists so tests can
// substitute fixtures.
type ScoreConfig struct {
	BroadMarketETFs []string
	MegaCaps        []string
}

// Scorer maps a contract plus its underlying quote to an unusual-activity
// score. It is a pure function of its inputs and the injected clock.
type Scorer struct {
	etfs     map[string]bool
	megaCaps map[string]bool
	clock    util.Clock
}

func NewScorer(cfg ScoreConfig, clock util.Clock) *Scorer {
	if clock == nil {
		clock = util.SystemClock{}
	}
	s := &Scorer{
		etfs:     make(map[string]bool, len(cfg.BroadMarketETFs)),
		megaCaps: make(map[string]bool, len(cfg.MegaCaps)),
		clock:    clock,
	}
	for _, t := range cfg.BroadMarketETFs {
		s.etfs[strings.ToUpper(t)] = true
	}
	for _, t := range cfg.MegaCaps {
		s.megaCaps[strings.ToUpper(t)] = true
	}
	return s
}

// noiseFloor returns the minimum premium for the ticker's class. The $25K
// absolute floor applies to every class, so the effective floor is the
// larger of the two.
func (s *Scorer) noiseFloor(ticker string) float64 {
	switch {
	case s.etfs[ticker]:
		return floorETF
	case s.megaCaps[ticker]:
		return floorMegaCap
	default:
		return floorBase
	}
}

// Score evaluates one contract against its underlying quote. The second
// return is false when the contract is noise (below the premium floor) and
// must be excluded from results.
func (s *Scorer) Score(c models.Contract, q models.Quote) (models.ScoredSignal, bool) {
	price := c.Last
	if price == 0 {
		// no trade yet this session, fall back to the offer
		price = c.Ask
	}

	premium, _ := decimal.NewFromInt(c.Volume).
		Mul(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromInt(contractMultiplier)).
		Float64()

	ticker := strings.ToUpper(q.Symbol)
	if premium < s.noiseFloor(ticker) {
		return models.ScoredSignal{}, false
	}

	score := premiumPoints(premium)

	oi := c.OpenInterest
	if oi < 1 {
		oi = 1
	}
	ratio := float64(c.Volume) / float64(oi)
	score += ratioPoints(ratio)

	mid := (c.Bid + c.Ask) / 2
	atAsk := mid > 0 && price >= mid
	if atAsk {
		score += 20
	}

	dte := 0
	if exp, ok := util.ParseTime(c.ExpirationDate); ok {
		dte = util.DaysUntil(s.clock.Now(), exp)
	}
	if dte <= urgencyDTE {
		score += 10
	}

	if score > maxScore {
		score = maxScore
	}

	return models.ScoredSignal{
		ID:           c.Symbol,
		Ticker:       ticker,
		Strike:       c.Strike,
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
		Expiration:   c.ExpirationDate,
		Cost:         price,
		Type:         c.OptionType,
		Sentiment:    sentiment(c.OptionType, atAsk),
		Premium:      premium,
		Score:        score,
		Details: models.SignalDetails{
			Premium:      FormatPremium(premium),
			VolOIRatio:   decimal.NewFromFloat(ratio).StringFixed(2),
			DaysToExpiry: dte,
		},
		ImpliedVolatility: impliedVol(c),
	}, true
}

func premiumPoints(premium float64) int {
	switch {
	case premium >= 1_000_000:
		return 40
	case premium >= 500_000:
		return 30
	case premium >= 100_000:
		return 20
	case premium >= 50_000:
		return 10
	default:
		return 0
	}
}

func ratioPoints(ratio float64) int {
	switch {
	case ratio >= 5:
		return 30
	case ratio >= 2:
		return 20
	case ratio >= 1:
		return 10
	default:
		return 0
	}
}

// sentiment reads an aggressive call buy as bullish and an aggressive put
// buy as bearish; passive prints are read as the opposite bet being sold.
func sentiment(optionType string, atAsk bool) string {
	if strings.EqualFold(optionType, "call") {
		if atAsk {
			return models.SentimentBullish
		}
		return models.SentimentBearishSell
	}
	if atAsk {
		return models.SentimentBearish
	}
	return models.SentimentBullishSell
}

func impliedVol(c models.Contract) float64 {
	if c.Greeks == nil {
		return 0
	}
	return c.Greeks.MidIV
}

// FormatPremium renders a dollar notional compactly for display.
func FormatPremium(premium float64) string {
	switch {
	case premium >= 1_000_000:
		return fmt.Sprintf("$%.1fM", premium/1_000_000)
	case premium >= 1_000:
		return fmt.Sprintf("$%.1fK", premium/1_000)
	default:
		return fmt.Sprintf("$%.0f", premium)
	}
}
