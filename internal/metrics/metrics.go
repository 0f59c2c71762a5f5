// Package metrics records token usage, cost and audio sizing of a run in a
// private Prometheus registry and writes it as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-minutes/internal/pricing"
)

const namespace = "minutes"

// Token kinds.
const (
	KindPrompt     = "prompt"
	KindCompletion = "completion"
)

// Recorder holds the metrics of one process.
// Methods are safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec

	bitrate  prometheus.Gauge
	duration prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "requests_total",
				Help:      "Answered chat completion requests by phase and model",
			},
			[]string{"phase", "model"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "Tokens billed by phase, model and kind (prompt or completion)",
			},
			[]string{"phase", "model", "kind"},
		),
		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "cost_usd_total",
				Help:      "Cost in USD by phase and model",
			},
			[]string{"phase", "model"},
		),
		bitrate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "bitrate_kbps",
			Help:      "Bitrate chosen for the last compressed recording",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "duration_seconds",
			Help:      "Duration of the last compressed recording",
		}),
	}

	r.registry.MustRegister(r.requests, r.tokens, r.cost, r.bitrate, r.duration)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCall records one priced remote call.
func (r *Recorder) ObserveCall(phase, model string, rec pricing.CostRecord) {
	r.requests.WithLabelValues(phase, model).Inc()
	r.tokens.WithLabelValues(phase, model, KindPrompt).Add(float64(rec.PromptTokens))
	r.tokens.WithLabelValues(phase, model, KindCompletion).Add(float64(rec.CompletionTokens))
	if rec.Amount > 0 {
		r.cost.WithLabelValues(phase, model).Add(rec.Amount)
	}
}

// ObserveAudio records the sizing of a compressed recording.
func (r *Recorder) ObserveAudio(bitrateKbps int, d time.Duration) {
	r.bitrate.Set(float64(bitrateKbps))
	r.duration.Set(d.Seconds())
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically so a collector never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("cannot write metrics file: %w", err)
	}
	return nil
}
