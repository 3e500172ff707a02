package hub

import (
	"strings"
	"sync"
)

// Registry is the reference-counted set of viewer-requested tickers, merged
// with the fixed default list into the scan universe.
type Registry struct {
	mu          sync.Mutex
	defaults    []string
	counts      map[string]int
	order       []string // dynamic tickers in first-subscription order
	maxUniverse int
}

func NewRegistry(defaults []string, maxUniverse int) *Registry {
	r := &Registry{
		counts:      make(map[string]int),
		maxUniverse: maxUniverse,
	}
	seen := make(map[string]bool, len(defaults))
	for _, t := range defaults {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		r.defaults = append(r.defaults, t)
	}
	return r
}

// AddSubscriber increments the viewer count for a ticker.
func (r *Registry) AddSubscriber(ticker string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(strings.ToUpper(ticker))
}

// RemoveSubscriber decrements the viewer count for a ticker, dropping the
// entry when it reaches zero.
func (r *Registry) RemoveSubscriber(ticker string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(strings.ToUpper(ticker))
}

// Apply transitions one viewer's contributed set from old to new: tickers
// only in old are decremented, tickers only in new incremented. Two viewers
// both following a name keep it active until both have left.
func (r *Registry) Apply(old, new []string) {
	oldSet := toSet(old)
	newSet := toSet(new)

	r.mu.Lock()
	defer r.mu.Unlock()

	for t := range oldSet {
		if !newSet[t] {
			r.remove(t)
		}
	}
	for t := range newSet {
		if !oldSet[t] {
			r.add(t)
		}
	}
}

// IsDynamic reports whether any viewer currently follows the ticker.
func (r *Registry) IsDynamic(ticker string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[strings.ToUpper(ticker)] > 0
}

// Universe returns the deduplicated union of the defaults and all active
// dynamic tickers, order-stable, truncated to the universe cap. Defaults
// come first, so the cap practically truncates dynamic tickers only.
func (r *Registry) Universe() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.defaults)+len(r.order))
	seen := make(map[string]bool, cap(out))
	for _, t := range r.defaults {
		out = append(out, t)
		seen[t] = true
	}
	for _, t := range r.order {
		if seen[t] {
			continue
		}
		if len(out) >= r.maxUniverse {
			break
		}
		out = append(out, t)
		seen[t] = true
	}
	return out
}

func (r *Registry) add(ticker string) {
	if ticker == "" {
		return
	}
	r.counts[ticker]++
	if r.counts[ticker] == 1 {
		r.order = append(r.order, ticker)
	}
}

func (r *Registry) remove(ticker string) {
	if r.counts[ticker] == 0 {
		return
	}
	r.counts[ticker]--
	if r.counts[ticker] > 0 {
		return
	}
	delete(r.counts, ticker)
	for i, t := range r.order {
		if t == ticker {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func toSet(tickers []string) map[string]bool {
	s := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			s[t] = true
		}
	}
	return s
}
