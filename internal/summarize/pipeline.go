package summarize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alnah/go-minutes/internal/pricing"
)

// Result is the outcome of one Summarize run.
type Result struct {
	Chunks   []TranscriptChunk
	Partials []PartialSummary

	// Summary is nil when the reduce payload could not be parsed
	// or the transcript was empty.
	Summary *StructuredSummary

	// Calls lists every answered request, map calls in chunk order then reduce.
	Calls []Call
}

// Total is the cost of every call in the run.
func (r Result) Total() float64 {
	records := make([]pricing.CostRecord, len(r.Calls))
	for i, c := range r.Calls {
		records[i] = c.Cost
	}
	return pricing.Total(records...)
}

// PhaseTotal is the cost of the calls of one phase.
func (r Result) PhaseTotal(phase string) float64 {
	var records []pricing.CostRecord
	for _, c := range r.Calls {
		if c.Phase == phase {
			records = append(records, c.Cost)
		}
	}
	return pricing.Total(records...)
}

// Summarize splits transcript, maps every chunk, and reduces the extracts.
//
// An empty transcript sends no request and returns an empty Result.
// On failure the returned Result still lists the calls already answered,
// so their cost can be reported.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (Result, error) {
	chunks, err := Split(transcript, s.chunkSize, s.overlap)
	if err != nil {
		return Result{}, err
	}
	res := Result{Chunks: chunks}
	if len(chunks) == 0 {
		s.logger.Warn("transcript is empty, nothing to summarize")
		return res, nil
	}

	for _, c := range chunks {
		if c.CharCount > s.chunkSize {
			s.logger.Warn("word longer than chunk size kept whole",
				slog.Int("chunk", c.Index),
				slog.Int("chars", c.CharCount),
				slog.Int("chunk_size", s.chunkSize),
			)
		}
	}
	s.logger.Info("transcript split",
		slog.Int("chunks", len(chunks)),
		slog.Int("chunk_size", s.chunkSize),
		slog.Int("overlap", s.overlap),
		slog.Int("parallel", s.parallel),
	)

	partials, calls, err := s.Map(ctx, chunks)
	res.Calls = calls
	if err != nil {
		return res, fmt.Errorf("map phase: %w", err)
	}
	res.Partials = partials
	s.logger.Info("map phase complete", slog.Float64("cost_usd", res.PhaseTotal(PhaseMap)))

	summary, call, err := s.reduce(ctx, partials)
	if call.Phase != "" {
		res.Calls = append(res.Calls, call)
	}
	if err != nil {
		return res, err
	}
	res.Summary = summary

	s.logger.Info("summary complete",
		slog.Bool("parsed", summary != nil),
		slog.Float64("cost_usd", res.Total()),
	)
	return res, nil
}
