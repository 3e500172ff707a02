package models

// Quote is an immutable snapshot of the underlying security.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Description   string  `json:"description"`
	Last          float64 `json:"last"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PrevClose     float64 `json:"prevclose"`
	AverageVolume int64   `json:"average_volume"`
}

// HistoryBar is one daily OHLCV record.
type HistoryBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Greeks carries provider-supplied sensitivities. Only implied volatility is
// consumed downstream.
type Greeks struct {
	MidIV float64 `json:"mid_iv"`
}

// Contract is an immutable snapshot of one option instrument.
type Contract struct {
	Symbol         string  `json:"symbol"`
	Description    string  `json:"description"`
	Strike         float64 `json:"strike"`
	OptionType     string  `json:"option_type"` // "call" or "put"
	ExpirationDate string  `json:"expiration_date"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Last           float64 `json:"last"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
	Greeks         *Greeks `json:"greeks,omitempty"`
}

// Security is one symbol-search result.
type Security struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"` // "stock" or "etf"
	Exchange    string `json:"exchange"`
}
