// Package cost accumulates token usage and monetary cost for cloud calls
// and enforces the configured spending ceiling.
package cost

import (
	"sync"

	"github.com/zen-systems/relay/pkg/adapter"
	"github.com/zen-systems/relay/pkg/config"
)

// ModelUsage is the per-model accumulation.
type ModelUsage struct {
	Usage adapter.Usage `json:"usage"`
	Cost  float64       `json:"cost"`
	Calls int           `json:"calls"`
}

// Report is a snapshot of everything tracked so far.
type Report struct {
	Currency    string                `json:"currency"`
	TotalTokens int                   `json:"total_tokens"`
	TotalCost   float64               `json:"total_cost"`
	MaxBudget   float64               `json:"max_budget"`
	PerModel    map[string]ModelUsage `json:"per_model"`
}

// Tracker accumulates usage and cost across requests. Safe for concurrent
// use; check-then-track is the router's responsibility and is guarded by
// WouldExceedBudget being called before dispatch, not after.
type Tracker struct {
	mu        sync.Mutex
	pricing   config.PricingConfig
	maxBudget float64
	total     adapter.Usage
	totalCost float64
	perModel  map[string]ModelUsage
}

// New creates a tracker against a pricing table and a budget ceiling.
// A ceiling of 0 disables enforcement.
func New(pricing config.PricingConfig, maxBudgetUSD float64) *Tracker {
	return &Tracker{
		pricing:   pricing,
		maxBudget: maxBudgetUSD,
		perModel:  make(map[string]ModelUsage),
	}
}

// Calculate prices a usage sample for an adapter/model pair. Returns false
// when no pricing entry exists.
func (t *Tracker) Calculate(adapterName, model string, usage adapter.Usage) (float64, bool) {
	entry, ok := pricingFor(t.pricing, adapterName, model)
	if !ok {
		return 0, false
	}

	promptCost := (float64(usage.PromptTokens) / 1000.0) * entry.PromptPer1K
	completionCost := (float64(usage.CompletionTokens) / 1000.0) * entry.CompletionPer1K
	return promptCost + completionCost, true
}

// EstimateFromTokens projects the cost of a call from a raw token estimate,
// pricing the whole estimate at the prompt rate. Used for admission checks
// before the real usage is known.
func (t *Tracker) EstimateFromTokens(adapterName, model string, tokens int) float64 {
	entry, ok := pricingFor(t.pricing, adapterName, model)
	if !ok {
		return 0
	}
	return (float64(tokens) / 1000.0) * entry.PromptPer1K
}

// Track records a completed call's usage and cost.
func (t *Tracker) Track(adapterName, model string, usage adapter.Usage, costUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	usage = usage.Normalize()
	t.total = t.total.Add(usage)
	t.totalCost += costUSD

	key := adapterName + "/" + model
	mu := t.perModel[key]
	mu.Usage = mu.Usage.Add(usage)
	mu.Cost += costUSD
	mu.Calls++
	t.perModel[key] = mu
}

// WouldExceedBudget reports whether spending projectedCost more would break
// the ceiling.
func (t *Tracker) WouldExceedBudget(projectedCost float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxBudget <= 0 {
		return false
	}
	return t.totalCost+projectedCost > t.maxBudget
}

// TotalCost returns the accumulated spend.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}

// Report returns a copy of the accumulated totals.
func (t *Tracker) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	perModel := make(map[string]ModelUsage, len(t.perModel))
	for k, v := range t.perModel {
		perModel[k] = v
	}
	return Report{
		Currency:    "USD",
		TotalTokens: t.total.TotalTokens,
		TotalCost:   t.totalCost,
		MaxBudget:   t.maxBudget,
		PerModel:    perModel,
	}
}

func pricingFor(pricing config.PricingConfig, adapterName, model string) (config.ModelPricing, bool) {
	if pricing == nil {
		return config.ModelPricing{}, false
	}
	if adapterPricing, ok := pricing[adapterName]; ok {
		if entry, ok := adapterPricing[model]; ok {
			return entry, true
		}
		if entry, ok := adapterPricing["default"]; ok {
			return entry, true
		}
	}
	return config.ModelPricing{}, false
}
