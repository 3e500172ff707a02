package upstream

import "fmt"

// UpstreamError is a non-success response from the market-data provider.
// It is never retried automatically; the next scheduled cycle simply tries
// again.
type UpstreamError struct {
	Status   int
	Endpoint string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Status, e.Endpoint)
}
