// Command cascade is a minimal demonstration host for the Cascade
// Execution Engine, wiring every ambient and domain component
// together the way the teacher's cmd/example/main.go wires a single
// BaseAgent: load config, build the logger/telemetry/resilience
// defaults, register one cascade, and run it end to end.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cascadefn/platform/cascade"
	"github.com/cascadefn/platform/classify"
	"github.com/cascadefn/platform/config"
	"github.com/cascadefn/platform/human"
	"github.com/cascadefn/platform/logger"
	"github.com/cascadefn/platform/metrics"
	"github.com/cascadefn/platform/registry"
	"github.com/cascadefn/platform/resilience"
	"github.com/cascadefn/platform/telemetry"
	"github.com/cascadefn/platform/tier"
)

// consoleFabric logs each delivered or cancelled task through the demo's
// logger, standing in for a real chat/email delivery fabric (out of
// scope per §6) so the demo runs without external services. It never
// answers a task: nothing calls Coordinator.Resolve, so a delivered task
// stays open until the human tier's timeout.
type consoleFabric struct {
	log logger.Logger
}

func (f *consoleFabric) Deliver(_ context.Context, taskID, ui string, input any, assignees, channels []string) (map[string]string, error) {
	f.log.Info("human task delivered",
		logger.F("task_id", taskID),
		logger.F("ui", ui),
		logger.F("assignees", assignees),
		logger.F("input", input),
	)
	ids := make(map[string]string, len(channels))
	for _, ch := range channels {
		ids[ch] = fmt.Sprintf("console:%s:%s", taskID, ch)
	}
	return ids, nil
}

func (f *consoleFabric) Cancel(_ context.Context, taskID string) error {
	f.log.Info("human task cancelled", logger.F("task_id", taskID))
	return nil
}

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	simple := logger.NewSimple()
	simple.SetLevel(cfg.Logging.Level)
	var log logger.Logger = simple.WithComponent("cascade-engine")

	var tel telemetry.Telemetry = telemetry.NoOp{}
	if cfg.Telemetry.Enabled {
		provider, err := telemetry.NewProvider(cfg.Telemetry.ServiceName, os.Stderr)
		if err != nil {
			log.Error("telemetry: failed to start, continuing without it", logger.F("error", err))
		} else {
			tel = provider
			defer provider.Shutdown(context.Background())
		}
	}

	sink := metrics.NewSink()
	observer := cascade.MultiObserver{
		metrics.NewCascadeObserver(sink),
		telemetry.NewCascadeObserver(tel),
	}

	breakerCfg := resilience.DefaultCircuitBreakerConfig("classify-producer")
	breakerCfg.ErrorThreshold = cfg.Resilience.ErrorThreshold
	breakerCfg.VolumeThreshold = cfg.Resilience.VolumeThreshold
	breakerCfg.SleepWindow = cfg.Resilience.SleepWindow
	breaker, err := resilience.NewCircuitBreaker(breakerCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resilience:", err)
		os.Exit(1)
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.Resilience.RetryAttempts
	retryCfg.InitialDelay = cfg.Resilience.RetryDelay

	classifyProducer := classify.ProducerFunc(func(ctx context.Context, name, description, schemaDigest string) (classify.Classification, error) {
		// Demo stands in for the real AI classifier (§6): unconditional
		// failure exercises the cache's circuit breaker and fallback
		// heuristic path.
		return classify.Classification{}, errors.New("classifier producer unavailable in demo host")
	})
	cache := classify.NewCache(classify.NewMemoryStore(), classifyProducer,
		classify.WithTTL(cfg.Classify.CacheTTL),
		classify.WithCircuitBreaker(breaker),
		classify.WithRetry(retryCfg),
		classify.WithTelemetry(tel),
		classify.WithLogger(log),
	)

	humanStore := human.NewMemoryStore()
	coordinator := human.NewCoordinator(humanStore, &consoleFabric{log: log})
	coordinator.Logger = log

	expiry := human.NewExpiryProcessor(coordinator, humanStore, cfg.HumanTask.ExpiryPollInterval)
	ctx, cancelExpiry := context.WithCancel(context.Background())
	expiry.Start(ctx)
	defer cancelExpiry()

	reg := registry.NewInMemoryRegistry()

	def, err := buildRefundCascade(coordinator)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build cascade:", err)
		os.Exit(1)
	}
	if _, err := reg.Register(context.Background(), def); err != nil {
		fmt.Fprintln(os.Stderr, "registry:", err)
		os.Exit(1)
	}

	engine := &cascade.Engine{
		Executor: cascade.NewExecutor(),
		Skip:     cascade.SkipPolicy{},
		Observer: observer,
	}

	resolved, err := reg.Resolve(context.Background(), def.ID, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve:", err)
		os.Exit(1)
	}

	classification, err := cache.Classify(context.Background(), resolved.Name, "refund under $50 auto-approved, otherwise manual review", "schema-v1")
	if err != nil {
		log.Warn("classification fell back to heuristic", logger.F("error", err))
	}
	log.Info("classified function", logger.F("tier", classification.Tier.String()), logger.F("provider", classification.Provider))

	result, err := engine.Execute(context.Background(), resolved, map[string]any{"amount": 120, "customer": "cust_42"})
	if err != nil {
		var exhausted *cascade.ExhaustedError
		if errors.As(err, &exhausted) {
			fmt.Fprintln(os.Stderr, "cascade exhausted:", exhausted.Error())
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "cascade error:", err)
		os.Exit(1)
	}

	log.Info("cascade completed",
		logger.F("success_tier", result.SuccessTier.String()),
		logger.F("total_duration_ms", result.Metrics.TotalDurationMs),
		logger.F("escalations", result.Metrics.Escalations),
	)

	fmt.Println(metrics.ExportPrometheus(sink))
}

// buildRefundCascade wires a two-tier escalation: a deterministic code
// check for small refunds, and a human approval step for anything the
// code tier can't settle — the canonical example from the overview.
func buildRefundCascade(coordinator *human.Coordinator) (*cascade.Definition, error) {
	return cascade.NewDefinition("refund-approval", "Refund Approval",
		cascade.WithVersion(tier.Version{Major: 1}),
		cascade.WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			req, ok := input.(map[string]any)
			if !ok {
				return nil, tier.NewFatalHandlerError("refund-approval: input must be a map")
			}
			amount, _ := req["amount"].(int)
			if amount > 0 && amount < 50 {
				return map[string]any{"decision": "approved", "tier": "code"}, nil
			}
			return nil, tier.NewHandlerError("refund-approval: amount requires review")
		})),
		cascade.WithHandler(tier.Human, tier.HumanHandler(
			coordinator.HandlerFunc(human.TaskConfig{
				UI:           "refund-approval-form",
				Channels:     []string{"console"},
				Assignees:    []string{"oncall-support"},
				QuickActions: []human.QuickAction{{ID: "approve", Label: "Approve", Value: map[string]any{"decision": "approved", "tier": "human"}}},
				SLAAction:    human.SLANotify,
			}),
			"refund-approval-form",
		)),
		cascade.WithTierTimeout(tier.Human, 2*time.Second),
	)
}
