package models

// Push-channel message types.
const (
	MsgTypeFlowUpdate = "flow_update"
	MsgTypeSubscribe  = "subscribe"
	MsgTypeError      = "error"
)

// ClientMessage is anything a viewer may send over the push channel.
type ClientMessage struct {
	Type     string   `json:"type"`
	Tickers  []string `json:"tickers,omitempty"`
	Elevated bool     `json:"elevated,omitempty"`
}

// BroadcastStats summarizes one broadcast cycle.
type BroadcastStats struct {
	Scanning int `json:"scanning"`
	Results  int `json:"results"`
}

// FlowUpdate is the full replacement snapshot pushed to every viewer.
type FlowUpdate struct {
	Type      string         `json:"type"`
	Data      []ScoredSignal `json:"data"`
	Timestamp int64          `json:"timestamp"`
	Stats     BroadcastStats `json:"stats"`
}

// ErrorMessage is sent for rejected or malformed client messages. The
// connection stays open.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
