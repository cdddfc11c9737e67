package metrics

import (
	"context"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

const measurement = "bootstrap_iteration"

// InfluxSink writes one point per iteration to an InfluxDB bucket.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

// InfluxConfig locates the InfluxDB instance to write to.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (s *InfluxSink) Record(ctx context.Context, m Iteration) error {
	p := influxdb2.NewPoint(
		measurement,
		map[string]string{"run": m.Run},
		map[string]interface{}{
			"iteration":               m.Iteration,
			"trained":                 m.Trained,
			"val_loss":                m.ValLoss,
			"final_goals_proven":      m.FinalGoalsProven,
			"final_goals_total":       m.FinalGoalsTotal,
			"val_goals_proven":        m.ValGoalsProven,
			"val_goals_total":         m.ValGoalsTotal,
			"ratio_proven":            m.RatioProven,
			"mean_hard_logprob":       m.MeanHardLogprob,
			"conjectured_final_goals": strings.Join(m.ConjecturedFinalGoals, ","),
		},
		time.Now(),
	)
	return s.write.WritePoint(ctx, p)
}

func (s *InfluxSink) Close() {
	s.client.Close()
}
