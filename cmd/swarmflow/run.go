package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/delegation"
	"github.com/BaSui01/swarmflow/evaluation"
	"github.com/BaSui01/swarmflow/observability"
	"github.com/BaSui01/swarmflow/persistence"
	"github.com/BaSui01/swarmflow/registry"
	"github.com/BaSui01/swarmflow/types"
)

// runRequest drives a single task through the configured worker tree.
// Routing and worker execution use the deterministic built-ins below;
// an embedding application swaps in its own DecisionProvider and
// WorkerExecutor instead.
func runRequest(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	task := fs.String("task", "", "Task description")
	tenant := fs.String("tenant", "", "Tenant override")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if *task == "" {
		fmt.Fprintln(os.Stderr, "run: --task is required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	if *tenant == "" {
		*tenant = cfg.Tree.Tenant
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting swarmflow",
		zap.String("version", Version),
		zap.String("tenant", *tenant),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, db, err := buildTreeSource(cfg, logger)
	if err != nil {
		logger.Error("tree source unavailable", zap.Error(err))
		os.Exit(1)
	}
	provider := registry.NewSnapshotProvider(source, logger)

	reg, err := provider.Get(ctx, *tenant)
	if err != nil {
		logger.Error("failed to load worker tree", zap.Error(err))
		os.Exit(1)
	}

	store, err := buildEventStore(cfg, db)
	if err != nil {
		logger.Error("event store unavailable", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	sink := observability.MultiSink{
		observability.NewZapSink(logger),
		persistence.NewStoreSink(store, logger),
	}

	gate := evaluation.NewGate(acceptAllJudge(), cfg.Evaluation.AsGate(), logger)

	opts := []delegation.Option{
		delegation.WithSink(sink),
		delegation.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, delegation.WithMetrics(observability.NewCollector(cfg.Metrics.Namespace)))
	}

	orch := delegation.NewOrchestrator(
		reg,
		firstEligibleProvider{},
		echoExecutor{},
		gate,
		cfg.Delegation.AsDelegation(),
		opts...,
	)

	result, runErr := orch.Run(ctx, *task)
	if runErr != nil {
		logger.Error("request failed", zap.Error(runErr))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Succeeded() {
		os.Exit(1)
	}
}

func runTrail(args []string) {
	fs := flag.NewFlagSet("trail", flag.ExitOnError)
	requestID := fs.String("id", "", "Request ID")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if *requestID == "" {
		fmt.Fprintln(os.Stderr, "trail: --id is required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	if cfg.Events.Backend == "memory" {
		fmt.Fprintln(os.Stderr, "trail: the memory event backend does not survive between runs; configure redis or database")
		os.Exit(1)
	}

	var db *gorm.DB
	if cfg.Events.Backend == "database" {
		var err error
		db, err = openDatabase(cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
			os.Exit(1)
		}
	}

	store, err := buildEventStore(cfg, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Event store unavailable: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	events, err := store.List(context.Background(), *requestID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No trail stored for request %s\n", *requestID)
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read trail: %v\n", err)
		}
		os.Exit(1)
	}

	for _, ev := range events {
		line, _ := json.Marshal(ev)
		fmt.Println(string(line))
	}
}

// buildTreeSource returns the registry source the config names. The
// returned *gorm.DB is non-nil only for the database source so the
// event store can share the handle.
func buildTreeSource(cfg *config.Config, logger *zap.Logger) (registry.Source, *gorm.DB, error) {
	switch cfg.Tree.Source {
	case "file", "":
		return registry.FileSource{Path: cfg.Tree.Path}, nil, nil
	case "database":
		db, err := openDatabase(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store, err := registry.NewStore(db, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported tree source %q", cfg.Tree.Source)
	}
}

func buildEventStore(cfg *config.Config, db *gorm.DB) (persistence.EventStore, error) {
	if cfg.Events.Backend == "database" {
		if db == nil {
			var err error
			db, err = openDatabase(cfg.Database)
			if err != nil {
				return nil, err
			}
		}
		return persistence.NewGormEventStore(db)
	}
	return persistence.NewEventStore(cfg.EventStoreConfig())
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// firstEligibleProvider picks the first breaker-approved candidate in
// declared order, finishing as soon as a payload has been accepted or
// no candidate remains eligible.
type firstEligibleProvider struct{}

func (firstEligibleProvider) Route(_ context.Context, view delegation.RouteView) (types.RouteProposal, error) {
	if view.AcceptedPayload != "" {
		return types.RouteProposal{Finish: true, Justification: "accepted payload in hand"}, nil
	}
	for _, c := range view.Candidates {
		if c.Eligible {
			return types.RouteProposal{Candidate: c.Name, Justification: "first eligible candidate"}, nil
		}
	}
	return types.RouteProposal{Finish: true, Justification: "no eligible candidates"}, nil
}

// echoExecutor stands in for real worker integrations during dry runs.
type echoExecutor struct{}

func (echoExecutor) Execute(_ context.Context, worker string, task types.TaskContext) (types.Outcome, error) {
	return types.Success(fmt.Sprintf("%s handled: %s", worker, task.Task)), nil
}

// acceptAllJudge scores every payload at the top of the range so dry
// runs pass the quality gate.
func acceptAllJudge() evaluation.Judge {
	return evaluation.JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
		return types.EvaluationResult{Score: 10}, nil
	})
}
