package cost

import (
	"math"
	"testing"

	"github.com/zen-systems/relay/pkg/adapter"
	"github.com/zen-systems/relay/pkg/config"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		"anthropic": {
			"claude-sonnet-4-20250514": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
			"default":                  {PromptPer1K: 0.001, CompletionPer1K: 0.002},
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculate(t *testing.T) {
	tracker := New(testPricing(), 0)

	cost, ok := tracker.Calculate("anthropic", "claude-sonnet-4-20250514",
		adapter.Usage{PromptTokens: 1000, CompletionTokens: 2000})
	if !ok {
		t.Fatal("expected pricing entry")
	}
	if !almostEqual(cost, 0.003+2*0.015) {
		t.Fatalf("cost = %f", cost)
	}
}

func TestCalculateFallsBackToDefault(t *testing.T) {
	tracker := New(testPricing(), 0)

	cost, ok := tracker.Calculate("anthropic", "some-new-model",
		adapter.Usage{PromptTokens: 1000})
	if !ok || !almostEqual(cost, 0.001) {
		t.Fatalf("cost = %f, ok = %v", cost, ok)
	}

	if _, ok := tracker.Calculate("unknown", "m", adapter.Usage{}); ok {
		t.Fatal("expected no pricing for unknown adapter")
	}
}

func TestTrackAccumulates(t *testing.T) {
	tracker := New(testPricing(), 0)

	tracker.Track("anthropic", "claude-sonnet-4-20250514",
		adapter.Usage{PromptTokens: 100, CompletionTokens: 200}, 0.01)
	tracker.Track("anthropic", "claude-sonnet-4-20250514",
		adapter.Usage{PromptTokens: 50, CompletionTokens: 50}, 0.005)
	tracker.Track("openai", "gpt-5.2-instant",
		adapter.Usage{PromptTokens: 10, CompletionTokens: 10}, 0.001)

	report := tracker.Report()
	if !almostEqual(report.TotalCost, 0.016) {
		t.Fatalf("total cost = %f", report.TotalCost)
	}
	if report.TotalTokens != 420 {
		t.Fatalf("total tokens = %d", report.TotalTokens)
	}

	sonnet := report.PerModel["anthropic/claude-sonnet-4-20250514"]
	if sonnet.Calls != 2 || sonnet.Usage.TotalTokens != 400 {
		t.Fatalf("per-model = %+v", sonnet)
	}
}

func TestWouldExceedBudget(t *testing.T) {
	tracker := New(testPricing(), 1.0)

	if tracker.WouldExceedBudget(0.5) {
		t.Fatal("0.5 of 1.0 should fit")
	}

	tracker.Track("anthropic", "claude-sonnet-4-20250514", adapter.Usage{}, 0.9)
	if !tracker.WouldExceedBudget(0.2) {
		t.Fatal("0.9 + 0.2 should exceed 1.0")
	}
	if tracker.WouldExceedBudget(0.05) {
		t.Fatal("0.9 + 0.05 should fit")
	}
}

func TestZeroBudgetDisablesEnforcement(t *testing.T) {
	tracker := New(testPricing(), 0)
	tracker.Track("anthropic", "m", adapter.Usage{}, 1000)
	if tracker.WouldExceedBudget(1000) {
		t.Fatal("zero ceiling must not enforce")
	}
}

func TestEstimateFromTokens(t *testing.T) {
	tracker := New(testPricing(), 0)
	est := tracker.EstimateFromTokens("anthropic", "claude-sonnet-4-20250514", 2000)
	if !almostEqual(est, 0.006) {
		t.Fatalf("estimate = %f", est)
	}
}
