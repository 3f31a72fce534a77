// Package classify maps raw input text to a task type, confidence score,
// complexity tier and extracted parameters. Classification is pure pattern
// and keyword matching; it never makes a network call and never fails.
package classify

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zen-systems/relay/pkg/config"
)

// TaskType is the category assigned to an input.
type TaskType string

const (
	TaskFileOperation  TaskType = "fileOperation"
	TaskSystemQuery    TaskType = "systemQuery"
	TaskAppControl     TaskType = "appControl"
	TaskTextProcessing TaskType = "textProcessing"
	TaskAutomation     TaskType = "automation"
	TaskHelp           TaskType = "help"
	TaskUnknown        TaskType = "unknown"
)

// Complexity is the expected processing difficulty tier.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityAdvanced Complexity = "advanced"
)

var complexityOrder = map[Complexity]int{
	ComplexitySimple:   0,
	ComplexityModerate: 1,
	ComplexityComplex:  2,
	ComplexityAdvanced: 3,
}

// AtMost reports whether c is no harder than other.
func (c Complexity) AtMost(other Complexity) bool {
	return complexityOrder[c] <= complexityOrder[other]
}

func (c Complexity) bump() Complexity {
	switch c {
	case ComplexitySimple:
		return ComplexityModerate
	case ComplexityModerate:
		return ComplexityComplex
	default:
		return ComplexityAdvanced
	}
}

// Route is the processing route for a request.
type Route string

const (
	RouteLocal  Route = "local"
	RouteCloud  Route = "cloud"
	RouteHybrid Route = "hybrid"
)

// Candidate captures one scored task type.
type Candidate struct {
	TaskType TaskType `json:"task_type"`
	Score    int      `json:"score"`
	Triggers []string `json:"triggers,omitempty"`
}

// Result is a classification. Immutable once produced.
type Result struct {
	TaskType         TaskType          `json:"task_type"`
	Confidence       float64           `json:"confidence"`
	Complexity       Complexity        `json:"complexity"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	SuggestedRoute   Route             `json:"suggested_route"`
	Candidates       []Candidate       `json:"candidates,omitempty"`
	NeedsEscalation  bool              `json:"needs_escalation"`
	PrivacySensitive bool              `json:"privacy_sensitive"`
	Truncated        bool              `json:"truncated"`
}

// Classifier scores inputs against the configured task-type triggers.
// Stateless after construction and safe for concurrent use.
type Classifier struct {
	cfg *config.RoutingConfig
}

// New creates a classifier from routing configuration.
func New(cfg *config.RoutingConfig) *Classifier {
	if cfg == nil {
		cfg = config.DefaultRoutingConfig()
	}
	return &Classifier{cfg: cfg}
}

// Classify assigns a task type, confidence, complexity and parameters to
// text. Unrecognized or empty input yields the help type with low
// confidence. Inputs longer than the configured cap are truncated for
// classification purposes only.
func (c *Classifier) Classify(text string) *Result {
	truncated := false
	if max := c.cfg.MaxInputChars; max > 0 && len(text) > max {
		// Back off to a rune boundary so the cut never leaves invalid UTF-8.
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
		truncated = true
	}

	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	result := &Result{
		Parameters: extractParameters(trimmed),
		Truncated:  truncated,
	}
	result.PrivacySensitive = c.privacySensitive(lower)

	candidates := c.score(lower)
	if trimmed == "" || len(candidates) == 0 {
		result.TaskType = TaskHelp
		result.Confidence = 0.3
		result.Complexity = ComplexitySimple
		result.SuggestedRoute = RouteLocal
		result.NeedsEscalation = true
		return result
	}

	result.Candidates = candidates
	result.TaskType = candidates[0].TaskType
	result.Confidence = confidenceFor(candidates)
	result.Complexity = c.complexityFor(result.TaskType, lower)
	result.SuggestedRoute = c.routeFor(result.TaskType, result.Confidence, result.Complexity)
	result.NeedsEscalation = result.Confidence < c.cfg.Thresholds.Escalation

	return result
}

// QuickClassify is the synchronous fast path. It returns nil whenever the
// input is long or ambiguous enough to need the full pass; the caller then
// falls back to Classify.
func (c *Classifier) QuickClassify(text string) *Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > 64 || len(strings.Fields(trimmed)) > 4 {
		return nil
	}

	candidates := c.score(strings.ToLower(trimmed))
	if len(candidates) != 1 {
		return nil
	}
	return c.Classify(text)
}

// score matches the lowered input against every task type's triggers and
// returns candidates ordered best-first. Ties break alphabetically so the
// result is deterministic.
func (c *Classifier) score(lower string) []Candidate {
	var candidates []Candidate
	for name, rule := range c.cfg.TaskTypes {
		var matched []string
		for _, trig := range rule.Triggers {
			if containsTrigger(lower, strings.ToLower(trig)) {
				matched = append(matched, trig)
			}
		}
		if len(matched) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			TaskType: TaskType(name),
			Score:    len(matched),
			Triggers: matched,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].TaskType < candidates[j].TaskType
		}
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	return candidates
}

// confidenceFor derives a calibrated confidence from the match margin
// between the top two candidates and the absolute strength of the top one.
func confidenceFor(candidates []Candidate) float64 {
	topScore := candidates[0].Score
	secondScore := 0
	if len(candidates) > 1 {
		secondScore = candidates[1].Score
	}

	margin := float64(topScore-secondScore) / float64(max(topScore, 1))
	strength := float64(min(topScore, 5)) / 5.0
	confidence := 0.75*margin + 0.25*strength
	if topScore >= 2 && secondScore == 0 {
		confidence = maxFloat(confidence, 0.9)
	}
	if topScore >= 3 {
		confidence = minFloat(confidence+0.15, 1.0)
	}
	return confidence
}

// complexityFor starts from the task type's base tier and bumps it for
// long or multi-step requests.
func (c *Classifier) complexityFor(taskType TaskType, lower string) Complexity {
	base := ComplexityModerate
	if rule, ok := c.cfg.TaskTypes[string(taskType)]; ok && rule.Complexity != "" {
		base = Complexity(rule.Complexity)
	}

	if len(strings.Fields(lower)) > 30 {
		base = base.bump()
	}
	for _, marker := range []string{"and then", "after that", "for each", "all of", "every file", "step by step"} {
		if strings.Contains(lower, marker) {
			base = base.bump()
			break
		}
	}
	return base
}

// routeFor picks the suggested route: the task type's configured route if
// any, otherwise derived from confidence and complexity.
func (c *Classifier) routeFor(taskType TaskType, confidence float64, complexity Complexity) Route {
	if rule, ok := c.cfg.TaskTypes[string(taskType)]; ok {
		switch Route(rule.Route) {
		case RouteLocal, RouteCloud, RouteHybrid:
			return Route(rule.Route)
		}
	}
	if confidence >= c.cfg.Thresholds.LocalConfidence && complexity.AtMost(ComplexityModerate) {
		return RouteLocal
	}
	if complexity.AtMost(ComplexityModerate) {
		return RouteHybrid
	}
	return RouteCloud
}

func (c *Classifier) privacySensitive(lower string) bool {
	for _, trig := range c.cfg.PrivacyTriggers {
		if containsTrigger(lower, strings.ToLower(trig)) {
			return true
		}
	}
	return false
}

// containsTrigger checks if the input contains the trigger phrase at a
// word boundary.
func containsTrigger(input, trigger string) bool {
	idx := strings.Index(input, trigger)
	if idx == -1 {
		return false
	}
	if idx > 0 && isWordChar(input[idx-1]) {
		return false
	}
	endIdx := idx + len(trigger)
	if endIdx < len(input) && isWordChar(input[endIdx]) {
		return false
	}
	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
