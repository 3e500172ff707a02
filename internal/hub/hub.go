package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
	"github.com/c-johnson06/optionSentinel/pkg/metrics"
	"github.com/c-johnson06/optionSentinel/pkg/util"
)

// FlowScanner is the slice of the scan orchestrator the hub needs.
type FlowScanner interface {
	ScanAll(ctx context.Context, tickers []string) []models.ScoredSignal
}

// Viewer is one open push channel. Send must not block: it returns false
// when the transport is gone or backpressured, and the hub simply skips it.
type Viewer interface {
	Send(b []byte) bool
}

// Hub owns the open-channel set and fans scan results out to every viewer.
// Broadcasts run on a fixed period and immediately on connects and
// subscription changes; with zero viewers a cycle is skipped before any
// upstream call is made.
type Hub struct {
	registry *Registry
	scanner  FlowScanner
	log      *logger.Logger
	metrics  *metrics.Recorder
	clock    util.Clock

	mu      sync.Mutex
	viewers map[Viewer]map[string]bool // viewer -> contributed tickers
	last    []byte                     // last marshalled snapshot
	lastTS  int64

	kick chan struct{}
}

func NewHub(registry *Registry, scanner FlowScanner, log *logger.Logger, rec *metrics.Recorder, clock util.Clock) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Hub{
		registry: registry,
		scanner:  scanner,
		log:      log,
		metrics:  rec,
		clock:    clock,
		viewers:  make(map[Viewer]map[string]bool),
		kick:     make(chan struct{}, 1),
	}
}

// Run consumes broadcast triggers until the context is cancelled. The
// periodic scheduler and connection lifecycle both feed the same trigger, so
// cycles never interleave.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.kick:
			h.broadcast(ctx)
		}
	}
}

// Trigger requests an immediate broadcast. Pending triggers coalesce.
func (h *Hub) Trigger() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Register adds a newly opened channel. The viewer immediately receives the
// current snapshot, then a fresh broadcast is triggered.
func (h *Hub) Register(v Viewer) {
	h.mu.Lock()
	h.viewers[v] = make(map[string]bool)
	n := len(h.viewers)
	last := h.last
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetConnectedViewers(n)
	}
	if last != nil {
		v.Send(last)
	}
	h.Trigger()
}

// Unregister removes a closed channel and returns its entire contributed
// ticker set to the registry.
func (h *Hub) Unregister(v Viewer) {
	h.mu.Lock()
	subs, ok := h.viewers[v]
	delete(h.viewers, v)
	n := len(h.viewers)
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.SetConnectedViewers(n)
	}
	h.registry.Apply(setToSlice(subs), nil)
}

// Subscribe applies a viewer's requested ticker set. Only elevated viewers
// may contribute custom tickers; everyone else gets an error reply and the
// universe stays untouched.
func (h *Hub) Subscribe(v Viewer, msg models.ClientMessage) {
	if !msg.Elevated {
		h.sendError(v, "custom ticker tracking requires elevated access")
		return
	}

	h.mu.Lock()
	subs, ok := h.viewers[v]
	if !ok {
		h.mu.Unlock()
		return
	}
	old := setToSlice(subs)
	h.viewers[v] = toSet(msg.Tickers)
	h.mu.Unlock()

	h.registry.Apply(old, msg.Tickers)
	h.log.Info("subscription updated", logger.Strings("tickers", msg.Tickers))
	h.Trigger()
}

// ViewerCount returns the number of open channels.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// broadcast runs one full cycle: scan the universe, build the replacement
// snapshot, and push it to every writable channel.
func (h *Hub) broadcast(ctx context.Context) {
	if h.ViewerCount() == 0 {
		h.log.Debug("broadcast skipped, no viewers")
		return
	}

	universe := h.registry.Universe()
	signals := h.scanner.ScanAll(ctx, universe)

	ts := h.clock.Now().UnixMilli()

	h.mu.Lock()
	if ts < h.lastTS {
		ts = h.lastTS
	}
	h.lastTS = ts
	h.mu.Unlock()

	upd := models.FlowUpdate{
		Type:      models.MsgTypeFlowUpdate,
		Data:      signals,
		Timestamp: ts,
		Stats: models.BroadcastStats{
			Scanning: len(universe),
			Results:  len(signals),
		},
	}
	b, err := json.Marshal(upd)
	if err != nil {
		h.log.Error("marshal flow update", logger.Error(err))
		return
	}

	h.mu.Lock()
	h.last = b
	targets := make([]Viewer, 0, len(h.viewers))
	for v := range h.viewers {
		targets = append(targets, v)
	}
	h.mu.Unlock()

	sent := 0
	for _, v := range targets {
		if v.Send(b) {
			sent++
		}
	}

	if h.metrics != nil {
		h.metrics.RecordBroadcast(len(signals))
	}
	h.log.Info("flow broadcast",
		logger.Int("tickers", len(universe)),
		logger.Int("signals", len(signals)),
		logger.Int("viewers", sent))
}

func (h *Hub) sendError(v Viewer, msg string) {
	b, err := json.Marshal(models.ErrorMessage{Type: models.MsgTypeError, Message: msg})
	if err != nil {
		return
	}
	v.Send(b)
}

func setToSlice(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}
