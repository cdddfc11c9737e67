// Package metrics reports per-iteration loop statistics to an external
// collector.
package metrics

import (
	"context"

	"go.uber.org/zap"
)

// Iteration is the metric record the orchestrator emits once per iteration
// and once at termination.
type Iteration struct {
	Run                   string
	Iteration             int
	Trained               bool
	ValLoss               float64
	FinalGoalsProven      int
	FinalGoalsTotal       int
	ValGoalsProven        int
	ValGoalsTotal         int
	RatioProven           float64
	MeanHardLogprob       float64
	ConjecturedFinalGoals []string
}

// Sink consumes iteration metrics.
type Sink interface {
	Record(ctx context.Context, m Iteration) error
	Close()
}

// ZapSink logs metrics through the run logger. It is the default sink when
// no external collector is configured.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Record(ctx context.Context, m Iteration) error {
	s.logger.Info("iteration metrics",
		zap.String("run", m.Run),
		zap.Int("iteration", m.Iteration),
		zap.Bool("trained", m.Trained),
		zap.Float64("val_loss", m.ValLoss),
		zap.Int("final_goals_proven", m.FinalGoalsProven),
		zap.Int("final_goals_total", m.FinalGoalsTotal),
		zap.Int("val_goals_proven", m.ValGoalsProven),
		zap.Int("val_goals_total", m.ValGoalsTotal),
		zap.Float64("ratio_proven", m.RatioProven),
		zap.Float64("mean_hard_logprob", m.MeanHardLogprob),
		zap.Strings("conjectured_final_goals", m.ConjecturedFinalGoals))
	return nil
}

func (s *ZapSink) Close() {}
