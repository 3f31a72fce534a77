// Package router is the decision core: it classifies input, decides between
// local execution and the cloud AI service, and wraps the cloud path in
// admission control, budget enforcement, retries and a circuit breaker.
package router

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zen-systems/relay/pkg/adapter"
	"github.com/zen-systems/relay/pkg/breaker"
	"github.com/zen-systems/relay/pkg/cache"
	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/config"
	"github.com/zen-systems/relay/pkg/cost"
	"github.com/zen-systems/relay/pkg/executor"
	"github.com/zen-systems/relay/pkg/metrics"
	"github.com/zen-systems/relay/pkg/ratelimit"
	"github.com/zen-systems/relay/pkg/retry"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// TaskResult is the outcome of processing one input. ProcessInput never
// returns an error; failures are reported inside the result so the caller
// always has something to show the user.
type TaskResult struct {
	Success    bool               `json:"success"`
	Output     string             `json:"output"`
	TaskType   classify.TaskType  `json:"task_type"`
	Route      classify.Route     `json:"route"`
	Confidence float64            `json:"confidence"`
	TokensUsed int                `json:"tokens_used"`
	Cost       float64            `json:"cost"`
	CacheHit   bool               `json:"cache_hit"`
	Err        *taskerr.Error     `json:"-"`
}

// Statistics counts processed requests by path.
type Statistics struct {
	TotalRequests int `json:"total_requests"`
	CacheHits     int `json:"cache_hits"`
	LocalCount    int `json:"local_count"`
	CloudCount    int `json:"cloud_count"`
	FailureCount  int `json:"failure_count"`
}

// RouteInfo describes one configured classification rule.
type RouteInfo struct {
	TaskType   string
	Triggers   []string
	Complexity string
	Route      string
}

// cachedResponse is the value stored in the response cache.
type cachedResponse struct {
	output   string
	taskType classify.TaskType
	route    classify.Route
}

// Router routes inputs between local executors and the cloud adapter.
type Router struct {
	cfg        *config.RoutingConfig
	classifier *classify.Classifier
	executors  executor.Registry
	cloud      adapter.Client
	cache      *cache.Cache
	limiter    *ratelimit.Limiter
	costs      *cost.Tracker
	breaker    *breaker.Breaker
	retries    *retry.Manager
	retryCfg   retry.Config
	logger     *slog.Logger

	mu    sync.Mutex
	stats Statistics
}

// Option configures a Router.
type Option func(*Router)

// WithExecutors replaces the default local executor registry.
func WithExecutors(registry executor.Registry) Option {
	return func(r *Router) { r.executors = registry }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithCostTracker replaces the cost tracker, sharing spend accounting with
// other components.
func WithCostTracker(t *cost.Tracker) Option {
	return func(r *Router) { r.costs = t }
}

// WithLimiter replaces the cloud-path rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(r *Router) { r.limiter = l }
}

// WithBreaker replaces the cloud circuit breaker.
func WithBreaker(b *breaker.Breaker) Option {
	return func(r *Router) { r.breaker = b }
}

// New creates a router. cloud may be nil, in which case every cloud-bound
// request fails with a configuration error.
func New(cfg *config.RoutingConfig, cloud adapter.Client, opts ...Option) *Router {
	if cfg == nil {
		cfg = config.DefaultRoutingConfig()
	}
	r := &Router{
		cfg:        cfg,
		classifier: classify.New(cfg),
		executors:  executor.Defaults(),
		cloud:      cloud,
		cache:      cache.New(),
		limiter: ratelimit.New(ratelimit.Config{
			MaxRequests: cfg.RateLimit.MaxRequests,
			MaxTokens:   cfg.RateLimit.MaxTokens,
			Window:      cfg.RateLimit.Window(),
		}),
		costs:    cost.New(cfg.Pricing, cfg.Budget.MaxUSD),
		breaker:  breaker.New(breaker.FromConfig(cfg.Breaker)),
		retries:  retry.NewManager(),
		retryCfg: retry.FromConfig(cfg.Retry),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProcessInput classifies text and runs it through the chosen route. It
// always returns a result; Err is set alongside Success=false.
func (r *Router) ProcessInput(ctx context.Context, text string) TaskResult {
	start := time.Now()
	key := cache.NormalizeKey(text)

	if value, ok := r.cache.Get(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		cached := value.(cachedResponse)
		result := TaskResult{
			Success:  true,
			Output:   cached.output,
			TaskType: cached.taskType,
			Route:    cached.route,
			CacheHit: true,
		}
		r.finish(result, start)
		return result
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	classification := r.classifier.QuickClassify(text)
	if classification == nil {
		classification = r.classifier.Classify(text)
	}

	route := r.decideRoute(classification)
	r.logger.Debug("routing decision",
		"task_type", classification.TaskType,
		"confidence", classification.Confidence,
		"complexity", classification.Complexity,
		"route", route,
		"privacy", classification.PrivacySensitive,
	)

	var result TaskResult
	if route == classify.RouteLocal {
		result = r.runLocal(ctx, text, classification)
	} else {
		result = r.runCloud(ctx, text, classification)
	}
	result.Route = route
	result.TaskType = classification.TaskType
	result.Confidence = classification.Confidence

	if result.Success && r.cacheable(classification.TaskType) {
		r.cache.Set(key, cachedResponse{
			output:   result.Output,
			taskType: classification.TaskType,
			route:    route,
		}, r.cfg.Cache.TTL())
	}

	r.finish(result, start)
	return result
}

// decideRoute turns a classification into the final route. Privacy-sensitive
// input never leaves the machine. Otherwise the confidence gate is
// authoritative regardless of the rule's suggested route: only a confident
// classification of at-most-moderate complexity runs locally, and
// low-confidence input always escalates to the cloud. Unrecognized input
// carries no candidates and stays on the local help path instead of
// escalating. Local still requires a registered executor.
func (r *Router) decideRoute(c *classify.Result) classify.Route {
	if c.PrivacySensitive {
		return classify.RouteLocal
	}
	if c.TaskType == classify.TaskHelp && len(c.Candidates) == 0 {
		return classify.RouteLocal
	}

	if c.Confidence >= r.cfg.Thresholds.LocalConfidence && c.Complexity.AtMost(classify.ComplexityModerate) {
		if _, ok := r.executors.Lookup(c.TaskType); ok {
			return classify.RouteLocal
		}
	}
	return classify.RouteCloud
}

// runLocal dispatches to the matching executor. Local execution costs
// nothing and uses no tokens.
func (r *Router) runLocal(ctx context.Context, text string, c *classify.Result) TaskResult {
	exec, ok := r.executors.Lookup(c.TaskType)
	if !ok {
		err := taskerr.Newf(taskerr.CodeLocalExecution, "no local handler for %s tasks", c.TaskType)
		return TaskResult{Success: false, Output: err.UserMessage(), Err: err}
	}

	params := make(map[string]string, len(c.Parameters)+1)
	for k, v := range c.Parameters {
		params[k] = v
	}
	params[executor.InputParam] = text

	output, err := exec.Execute(ctx, params)
	if err != nil {
		terr := asTaskError(err, taskerr.CodeLocalExecution)
		r.logger.Warn("local execution failed", "task_type", c.TaskType, "error", err)
		return TaskResult{Success: false, Output: terr.UserMessage(), Err: terr}
	}
	return TaskResult{Success: true, Output: output}
}

// runCloud sends the input to the cloud adapter behind the rate limiter,
// budget check, retry manager and circuit breaker.
func (r *Router) runCloud(ctx context.Context, text string, c *classify.Result) TaskResult {
	if r.cloud == nil {
		err := taskerr.New(taskerr.CodeCloudAuth, "no cloud adapter is configured")
		return TaskResult{Success: false, Output: err.UserMessage(), Err: err}
	}

	estimated := estimateTokens(text)
	if err := r.limiter.Check(estimated); err != nil {
		return r.cloudFailure(err)
	}

	projected := r.costs.EstimateFromTokens(r.cloud.Name(), r.cfg.Cloud.Model, estimated+r.cfg.Cloud.MaxOutputToks)
	if r.costs.WouldExceedBudget(projected) {
		err := taskerr.New(taskerr.CodeBudgetExceeded, "").
			WithDetail("projected_cost", projected).
			WithDetail("total_cost", r.costs.TotalCost())
		return r.cloudFailure(err)
	}

	req := adapter.Request{
		Model:     r.cfg.Cloud.Model,
		MaxTokens: r.cfg.Cloud.MaxOutputToks,
		Messages: []adapter.Message{
			{Role: adapter.RoleUser, Content: text},
		},
	}

	outcome := r.retries.Execute(ctx, retry.NewID(), r.retryCfg, func(ctx context.Context) (any, error) {
		return r.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Cloud.Timeout())
			defer cancel()
			return r.cloud.GenerateCompletion(attemptCtx, req)
		})
	})
	metrics.CircuitState.Set(float64(r.breaker.State()))

	if outcome.Status != retry.StatusSuccess {
		err := outcome.Err
		if err == nil {
			err = ctx.Err()
		}
		r.logger.Warn("cloud call failed",
			"adapter", r.cloud.Name(),
			"attempts", outcome.Attempts,
			"error", err,
		)
		return r.cloudFailure(err)
	}

	completion := outcome.Value.(*adapter.Completion)
	callCost, priced := r.costs.Calculate(r.cloud.Name(), r.cfg.Cloud.Model, completion.Usage)
	if !priced {
		// Zero cost would silently slip past the budget ceiling.
		r.logger.Warn("no pricing entry for cloud call, recording zero cost",
			"adapter", r.cloud.Name(),
			"model", r.cfg.Cloud.Model,
		)
	}
	r.costs.Track(r.cloud.Name(), r.cfg.Cloud.Model, completion.Usage, callCost)
	metrics.CloudCostUSD.WithLabelValues(r.cloud.Name(), r.cfg.Cloud.Model).Add(callCost)

	return TaskResult{
		Success:    true,
		Output:     completion.Content,
		TokensUsed: completion.Usage.Normalize().TotalTokens,
		Cost:       callCost,
	}
}

// cloudFailure converts an error from the cloud path into a failed result
// with a user-presentable message.
func (r *Router) cloudFailure(err error) TaskResult {
	terr := asTaskError(err, taskerr.CodeNetwork)
	adapterName := "none"
	if r.cloud != nil {
		adapterName = r.cloud.Name()
	}
	metrics.CloudErrorsTotal.WithLabelValues(adapterName, string(terr.Code)).Inc()
	return TaskResult{Success: false, Output: terr.UserMessage(), Err: terr}
}

// finish updates counters and latency metrics for a completed request.
func (r *Router) finish(result TaskResult, start time.Time) {
	r.mu.Lock()
	r.stats.TotalRequests++
	if result.CacheHit {
		r.stats.CacheHits++
	}
	switch result.Route {
	case classify.RouteCloud:
		r.stats.CloudCount++
	case classify.RouteLocal:
		r.stats.LocalCount++
	}
	if !result.Success {
		r.stats.FailureCount++
	}
	r.mu.Unlock()

	metrics.RequestsTotal.WithLabelValues(string(result.Route), string(result.TaskType)).Inc()
	metrics.RequestLatency.WithLabelValues(string(result.Route)).Observe(time.Since(start).Seconds())
}

// cacheable reports whether results for taskType may be cached.
func (r *Router) cacheable(taskType classify.TaskType) bool {
	for _, t := range r.cfg.Cache.CacheableTaskTypes {
		if classify.TaskType(t) == taskType {
			return true
		}
	}
	return false
}

// Statistics returns a snapshot of request counters.
func (r *Router) Statistics() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// CacheStatistics returns response cache effectiveness numbers.
func (r *Router) CacheStatistics() cache.Stats {
	return r.cache.Stats()
}

// ClearCache drops every cached response.
func (r *Router) ClearCache() {
	r.cache.Clear()
}

// CostReport returns the accumulated cloud spend.
func (r *Router) CostReport() cost.Report {
	return r.costs.Report()
}

// RateLimitStatus returns the current admission window usage.
func (r *Router) RateLimitStatus() ratelimit.Status {
	return r.limiter.Status()
}

// RetryStates returns the in-flight cloud retry sequences.
func (r *Router) RetryStates() []retry.State {
	return r.retries.States()
}

// CancelRetry stops an in-flight retry sequence before its next attempt.
func (r *Router) CancelRetry(id string) bool {
	return r.retries.CancelRetry(id)
}

// Routes lists the configured classification rules.
func (r *Router) Routes() []RouteInfo {
	routes := make([]RouteInfo, 0, len(r.cfg.TaskTypes))
	for name, rule := range r.cfg.TaskTypes {
		routes = append(routes, RouteInfo{
			TaskType:   name,
			Triggers:   rule.Triggers,
			Complexity: rule.Complexity,
			Route:      rule.Route,
		})
	}
	return routes
}

// Classify exposes the classifier for inspection commands.
func (r *Router) Classify(text string) *classify.Result {
	return r.classifier.Classify(text)
}

// asTaskError coerces any error into a taxonomy error, wrapping unknown
// errors under the fallback code.
func asTaskError(err error, fallback taskerr.Code) *taskerr.Error {
	if err == nil {
		return taskerr.New(fallback, "")
	}
	var terr *taskerr.Error
	if errors.As(err, &terr) {
		return terr
	}
	return taskerr.Wrap(fallback, err)
}

// estimateTokens approximates token count from text length. Four characters
// per token is close enough for admission control.
func estimateTokens(text string) int {
	n := len(text)/4 + 1
	return n
}
