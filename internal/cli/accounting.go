package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/format"
	"github.com/alnah/go-minutes/internal/ledger"
	"github.com/alnah/go-minutes/internal/metrics"
	"github.com/alnah/go-minutes/internal/summarize"
)

// accounting collects the priced calls of one run and persists them to the
// ledger and the metrics textfile when the run ends.
type accounting struct {
	env         *Env
	runID       string
	source      string
	ledgerPath  string
	metricsFile string
	logger      *slog.Logger
	recorder    *metrics.Recorder

	mu      sync.Mutex
	entries []ledger.Entry
}

func newAccounting(env *Env, runID, source string, s settings, logger *slog.Logger) *accounting {
	return &accounting{
		env:         env,
		runID:       runID,
		source:      source,
		ledgerPath:  s.ledger,
		metricsFile: s.metricsFile,
		logger:      logger,
		recorder:    metrics.NewRecorder(),
	}
}

// observeCall is installed as the summarizer call observer.
func (a *accounting) observeCall(c summarize.Call) {
	a.logger.Debug("call priced",
		slog.String("phase", c.Phase),
		slog.Int("chunk", c.ChunkIndex),
		slog.String("model", c.Model),
		slog.Int("budget", c.Budget),
		slog.Int("prompt_tokens", c.Cost.PromptTokens),
		slog.Int("completion_tokens", c.Cost.CompletionTokens),
		slog.String("cost_usd", format.USD(c.Cost.Amount)),
	)
	a.recorder.ObserveCall(c.Phase, c.Model, c.Cost)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, ledger.Entry{
		RunID:            a.runID,
		Time:             a.env.Now(),
		Source:           a.source,
		Phase:            c.Phase,
		ChunkIndex:       c.ChunkIndex,
		Model:            c.Model,
		PromptTokens:     c.Cost.PromptTokens,
		CompletionTokens: c.Cost.CompletionTokens,
		Amount:           c.Cost.Amount,
	})
}

// observePlan records the sizing of the compressed audio.
func (a *accounting) observePlan(plan audio.CompressionPlan) {
	a.recorder.ObserveAudio(plan.BitrateKbps, plan.Duration)
}

// flush writes the ledger and metrics. It runs even when the run failed,
// so calls already paid for are never lost; ctx may be canceled by then.
func (a *accounting) flush() error {
	a.mu.Lock()
	entries := append([]ledger.Entry(nil), a.entries...)
	a.mu.Unlock()

	if a.ledgerPath != "" && len(entries) > 0 {
		if err := a.record(entries); err != nil {
			return err
		}
	}
	if a.metricsFile != "" {
		if err := a.recorder.WriteTextfile(a.metricsFile); err != nil {
			return err
		}
	}
	return nil
}

func (a *accounting) record(entries []ledger.Entry) error {
	l, err := ledger.Open(a.ledgerPath)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	if err := l.Record(context.Background(), entries...); err != nil {
		return fmt.Errorf("ledger %s: %w", a.ledgerPath, err)
	}
	a.logger.Debug("ledger updated", slog.String("ledger", a.ledgerPath), slog.Int("calls", len(entries)))
	return nil
}
