package models

// Sentiment labels for a scored contract.
const (
	SentimentBullish     = "Bullish"
	SentimentBearish     = "Bearish"
	SentimentBullishSell = "Bullish (Sell)"
	SentimentBearishSell = "Bearish (Sell)"
)

// SignalDetails is the informational breakdown attached to a signal. It is
// display-only and feeds no further logic.
type SignalDetails struct {
	Premium      string `json:"premium"`
	VolOIRatio   string `json:"vol_oi_ratio"`
	DaysToExpiry int    `json:"days_to_expiry"`
}

// ScoredSignal is one unusual-activity hit. Signals are rebuilt wholesale on
// every scan cycle and never persisted.
type ScoredSignal struct {
	ID                string        `json:"id"`
	Ticker            string        `json:"ticker"`
	Strike            float64       `json:"strike"`
	Volume            int64         `json:"volume"`
	OpenInterest      int64         `json:"open_interest"`
	Expiration        string        `json:"expiration"`
	Cost              float64       `json:"cost"`
	Type              string        `json:"type"`
	Sentiment         string        `json:"sentiment"`
	Premium           float64       `json:"premium"`
	Score             int           `json:"score"`
	Details           SignalDetails `json:"details"`
	ImpliedVolatility float64       `json:"implied_volatility,omitempty"`
}
