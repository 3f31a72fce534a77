package router

import "github.com/zen-systems/relay/pkg/breaker"

// Health reports the availability of each processing path.
type Health struct {
	LocalProcessing bool   `json:"local_processing"`
	CloudProcessing bool   `json:"cloud_processing"`
	ResponseCache   bool   `json:"response_cache"`
	CircuitState    string `json:"circuit_state"`
	OverallStatus   string `json:"overall_status"`
}

// CheckSystemHealth probes the router's subsystems. Local processing is
// healthy when any executor is registered; cloud processing requires a
// configured adapter and a circuit that is not open.
func (r *Router) CheckSystemHealth() Health {
	state := r.breaker.State()
	h := Health{
		LocalProcessing: len(r.executors) > 0,
		CloudProcessing: r.cloud != nil && state != breaker.StateOpen,
		ResponseCache:   r.cache != nil,
		CircuitState:    state.String(),
	}

	switch {
	case h.LocalProcessing && h.CloudProcessing && h.ResponseCache:
		h.OverallStatus = "healthy"
	case h.LocalProcessing || h.CloudProcessing:
		h.OverallStatus = "degraded"
	default:
		h.OverallStatus = "unhealthy"
	}
	return h
}
