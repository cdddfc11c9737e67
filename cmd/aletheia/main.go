package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aletheia-lab/aletheia/internal/checkpoint"
	"github.com/aletheia-lab/aletheia/internal/config"
	"github.com/aletheia-lab/aletheia/internal/curate"
	"github.com/aletheia-lab/aletheia/internal/derivation"
	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/aletheia-lab/aletheia/internal/executor"
	"github.com/aletheia-lab/aletheia/internal/goalset"
	"github.com/aletheia-lab/aletheia/internal/loop"
	"github.com/aletheia-lab/aletheia/internal/metrics"
	"github.com/aletheia-lab/aletheia/internal/policy"
	"github.com/aletheia-lab/aletheia/internal/prover"
	"github.com/aletheia-lab/aletheia/internal/runlog"
	"github.com/aletheia-lab/aletheia/internal/sampler"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	theoryPath := config.TheoryPath()
	if theoryPath == "" {
		logger.Fatal("THEORY_PATH is required")
	}
	definition, err := os.ReadFile(theoryPath)
	if err != nil {
		logger.Fatal("failed to read theory file", zap.Error(err))
	}
	theory := domain.Theory{
		Name:       config.TheoryName(),
		Definition: string(definition),
		Premises:   config.Premises(),
	}

	goalsPath := config.GoalsPath()
	if goalsPath == "" {
		logger.Fatal("GOALS_PATH is required")
	}
	finalGoals, err := goalset.Load(goalsPath)
	if err != nil {
		logger.Fatal("failed to load final goals", zap.Error(err))
	}
	valGoals := finalGoals
	if valPath := config.ValGoalsPath(); valPath != "" {
		loaded, err := goalset.LoadPrefix(valPath)
		if err != nil {
			logger.Fatal("failed to load validation goals", zap.Error(err))
		}
		valGoals = goalset.Merge(finalGoals, loaded)
	}

	buckets, err := config.DifficultyBuckets()
	if err != nil {
		logger.Fatal("failed to parse difficulty buckets", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := derivation.NewEngine(config.EngineProvider(), config.EngineURL())
	if err != nil {
		logger.Fatal("failed to build derivation engine", zap.Error(err))
	}
	dctx, err := derivation.NewContext(ctx, engine, theory)
	if err != nil {
		logger.Fatal("failed to incorporate theory", zap.Error(err))
	}

	agent, err := policy.NewPolicy(config.PolicyProvider(), config.PolicyURL())
	if err != nil {
		logger.Fatal("failed to build policy client", zap.Error(err))
	}

	var searcher domain.Prover
	if config.ExecutorMode() == executor.ModeLocal {
		searcher, err = prover.NewProver(config.ProverProvider(), config.ProverCommand())
		if err != nil {
			logger.Fatal("failed to build prover", zap.Error(err))
		}
	}
	exec, err := executor.New(executor.Config{
		Mode:        config.ExecutorMode(),
		Parallelism: config.ExecutorParallelism(),
		WorkerURLs:  config.WorkerURLs(),
	}, searcher, logger)
	if err != nil {
		logger.Fatal("failed to build executor", zap.Error(err))
	}
	defer func() { _ = exec.Close() }()

	runDir := config.RunDir()
	artifacts, err := runlog.Open(runDir)
	if err != nil {
		logger.Fatal("failed to open run directory", zap.Error(err))
	}
	defer func() { _ = artifacts.Close() }()

	var sink metrics.Sink = metrics.NewZapSink(logger)
	if url := config.InfluxURL(); url != "" {
		sink = metrics.NewInfluxSink(metrics.InfluxConfig{
			URL:    url,
			Token:  config.InfluxToken(),
			Org:    config.InfluxOrg(),
			Bucket: config.InfluxBucket(),
		})
	}
	defer sink.Close()

	orch := loop.New(
		loop.Config{
			Run:             config.RunName(),
			NConjectures:    config.NConjectures(),
			TotalIterations: config.TotalIterations(),
		},
		theory,
		finalGoals,
		valGoals,
		buckets,
		agent,
		sampler.New(agent, dctx, sampler.Config{
			MaxAttemptsFactor: config.SamplerMaxAttemptsFactor(),
			RPS:               config.SampleRPS(),
			Burst:             config.SampleBurst(),
		}, logger),
		executor.NewDispatcher(exec, logger),
		curate.New(dctx, buckets, curate.Config{
			FreezeConjecturer: config.FreezeConjecturer(),
			Hindsight:         config.Hindsight(),
		}, logger),
		checkpoint.New(checkpoint.RunHandle{Dir: runDir}),
		artifacts,
		sink,
		logger,
	)

	if config.Resume() {
		if err := orch.Resume(ctx); err != nil {
			logger.Fatal("failed to resume run", zap.Error(err))
		}
	}

	logger.Info("starting bootstrap loop",
		zap.String("run", config.RunName()),
		zap.String("run_dir", runDir),
		zap.Int("total_iterations", config.TotalIterations()),
		zap.Int("n_conjectures", config.NConjectures()),
		zap.String("executor_mode", config.ExecutorMode()))

	if err := orch.Run(ctx); err != nil {
		logger.Fatal("bootstrap loop failed", zap.Error(err))
	}

	logger.Info("bootstrap loop finished",
		zap.Int("last_completed_iteration", orch.State().Iteration()),
		zap.Int("proven", len(orch.State().Proven())))
}
