// Package audio prepares recordings for a size-capped transcription upload:
// it extracts the audio track, sizes a constant bitrate from the duration,
// and re-encodes to low-rate mono MP3.
package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-minutes/internal/ffmpeg"
	"github.com/alnah/go-minutes/internal/format"
)

// tempDirPattern names the scratch directory of one Prepare call.
const tempDirPattern = "go-minutes-*"

// Artifact is the compressed audio ready for upload.
// The caller owns Path and must call Cleanup once done with it.
type Artifact struct {
	Path string
	Size int64
	Plan CompressionPlan

	dir   string
	files fileRemover
}

// Cleanup removes the artifact and its scratch directory.
func (a Artifact) Cleanup() error {
	if a.dir == "" || a.files == nil {
		return nil
	}
	return a.files.RemoveAll(a.dir)
}

// ExceedsTarget reports whether the encoded file is larger than the plan target,
// which only happens at the bitrate floor or on encoder overshoot.
func (a Artifact) ExceedsTarget() bool {
	return a.Size > a.Plan.TargetBytes
}

// Preparer runs the extract, probe, plan, and compress steps with FFmpeg.
type Preparer struct {
	ffmpegPath   string
	targetSizeMB float64
	margin       float64
	logger       *slog.Logger

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	tempDir tempDirCreator
	stat    fileStatter
	files   fileRemover
}

// PreparerOption configures a Preparer.
type PreparerOption func(*Preparer)

// WithTarget sets the size ceiling in megabytes and the safety margin.
func WithTarget(sizeMB, margin float64) PreparerOption {
	return func(p *Preparer) {
		p.targetSizeMB = sizeMB
		p.margin = margin
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) PreparerOption {
	return func(p *Preparer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCommandRunner sets the command runner.
func WithCommandRunner(r commandRunner) PreparerOption {
	return func(p *Preparer) {
		p.cmd = r
	}
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) PreparerOption {
	return func(p *Preparer) {
		p.tempDir = t
	}
}

// WithFileStatter sets the file statter.
func WithFileStatter(s fileStatter) PreparerOption {
	return func(p *Preparer) {
		p.stat = s
	}
}

// WithFileRemover sets the file remover.
func WithFileRemover(f fileRemover) PreparerOption {
	return func(p *Preparer) {
		p.files = f
	}
}

// NewPreparer creates a Preparer that runs the FFmpeg binary at ffmpegPath.
func NewPreparer(ffmpegPath string, opts ...PreparerOption) (*Preparer, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	p := &Preparer{
		ffmpegPath:   ffmpegPath,
		targetSizeMB: DefaultTargetSizeMB,
		margin:       DefaultMargin,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		cmd:          executorRunner{exec: ffmpeg.NewExecutor()},
		tempDir:      osTempDirCreator{},
		stat:         osFileStatter{},
		files:        osFileRemover{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.targetSizeMB <= 0 || p.margin <= 0 || p.margin > 1 {
		return nil, fmt.Errorf("%w: size %v MB, margin %v", ErrInvalidTarget, p.targetSizeMB, p.margin)
	}
	return p, nil
}

// Prepare turns src into a compressed MP3 sized for upload.
// src is never modified. Intermediate files are removed as soon as the next
// step has consumed them, and everything is removed on failure.
func (p *Preparer) Prepare(ctx context.Context, src string) (Artifact, error) {
	dir, err := p.tempDir.MkdirTemp("", tempDirPattern)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	fail := func(err error) (Artifact, error) {
		_ = p.files.RemoveAll(dir) // best-effort cleanup; original error takes precedence
		return Artifact{}, err
	}

	extracted := filepath.Join(dir, "extracted.mp3")
	if err := p.ExtractAudio(ctx, src, extracted); err != nil {
		return fail(err)
	}

	duration, err := p.Probe(ctx, extracted)
	if err != nil {
		return fail(err)
	}

	plan, err := PlanFor(duration, WithTargetSizeMB(p.targetSizeMB), WithMargin(p.margin))
	if err != nil {
		return fail(err)
	}
	log := p.logger.With(slog.String("source", filepath.Base(src)))
	log.Info("compression planned",
		slog.String("duration", format.Duration(duration)),
		slog.String("bitrate", plan.Bitrate()),
		slog.Int64("estimated_bytes", plan.EstimatedBytes()),
	)
	if plan.FloorHit() {
		log.Warn("bitrate floor applied, output may exceed the upload ceiling",
			slog.Int("floor_kbps", MinBitrateKbps),
			slog.String("estimated_size", format.Size(plan.EstimatedBytes())),
		)
	}

	compressed := filepath.Join(dir, "compressed.mp3")
	if err := p.Compress(ctx, extracted, compressed, plan); err != nil {
		return fail(err)
	}
	if err := p.files.Remove(extracted); err != nil {
		log.Debug("cannot remove extracted audio", slog.Any("error", err))
	}

	info, err := p.stat.Stat(compressed)
	if err != nil {
		return fail(fmt.Errorf("failed to stat compressed audio: %w", err))
	}

	art := Artifact{Path: compressed, Size: info.Size(), Plan: plan, dir: dir, files: p.files}
	log.Info("audio compressed", slog.String("size", format.Size(art.Size)))
	return art, nil
}

// ExtractAudio writes the audio track of src to dst as MP3.
func (p *Preparer) ExtractAudio(ctx context.Context, src, dst string) error {
	return p.run(ctx, extractArgs(src, dst))
}

// Compress re-encodes src to dst with the plan's bitrate, rate, and channels.
func (p *Preparer) Compress(ctx context.Context, src, dst string, plan CompressionPlan) error {
	return p.run(ctx, compressArgs(src, dst, plan))
}

func (p *Preparer) run(ctx context.Context, args []string) error {
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: ffmpeg %s: %v\nOutput: %s",
			ErrTranscodeFailed, strings.Join(args, " "), err, string(output))
	}
	return nil
}

// extractArgs drops video and keeps the audio stream at the best VBR quality.
func extractArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-vn",
		"-map", "a",
		"-q:a", "0",
		dst,
	}
}

// compressArgs encodes constant-bitrate mono MP3.
func compressArgs(src, dst string, plan CompressionPlan) []string {
	return []string{
		"-y",
		"-i", src,
		"-codec:a", "mp3",
		"-ar", strconv.Itoa(plan.SampleRateHz),
		"-ac", strconv.Itoa(plan.Channels),
		"-b:a", plan.Bitrate(),
		dst,
	}
}
