package audio

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Compression targets for the transcription upload.
const (
	// DefaultTargetSizeMB is the upload ceiling of the transcription service.
	DefaultTargetSizeMB = 25.0

	// DefaultMargin absorbs encoder overshoot.
	DefaultMargin = 0.9

	// MinBitrateKbps is the lowest bitrate that keeps speech intelligible.
	// Very long recordings at this floor can still exceed the ceiling.
	MinBitrateKbps = 16

	// SampleRateHz and Channels are fixed for speech.
	SampleRateHz = 16000
	Channels     = 1
)

// ComputeBitrate returns the constant bitrate, in ffmpeg "<kbps>k" notation,
// at which durationSeconds of audio fits in targetSizeMB*margin megabytes.
// The result is floored to whole kilobits and never below MinBitrateKbps.
func ComputeBitrate(durationSeconds, targetSizeMB, margin float64) (string, error) {
	kbps, _, err := computeKbps(durationSeconds, targetSizeMB, margin)
	if err != nil {
		return "", err
	}
	return formatKbps(kbps), nil
}

// computeKbps also reports whether the floor was applied.
func computeKbps(durationSeconds, targetSizeMB, margin float64) (int, bool, error) {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return 0, false, fmt.Errorf("%w: %v seconds", ErrInvalidDuration, durationSeconds)
	}
	if math.IsNaN(targetSizeMB) || targetSizeMB <= 0 {
		return 0, false, fmt.Errorf("%w: size %v MB", ErrInvalidTarget, targetSizeMB)
	}
	if math.IsNaN(margin) || margin <= 0 || margin > 1 {
		return 0, false, fmt.Errorf("%w: margin %v", ErrInvalidTarget, margin)
	}

	targetBytes := targetSizeMB * 1024 * 1024 * margin
	bitsPerSecond := targetBytes * 8 / durationSeconds
	kbps := int(math.Floor(bitsPerSecond / 1000))
	if kbps < MinBitrateKbps {
		return MinBitrateKbps, true, nil
	}
	return kbps, false, nil
}

func formatKbps(kbps int) string {
	return strconv.Itoa(kbps) + "k"
}

// CompressionPlan holds the encoder settings for one recording.
type CompressionPlan struct {
	BitrateKbps  int
	SampleRateHz int
	Channels     int
	Duration     time.Duration

	// TargetBytes is the size the plan aims under, margin included.
	TargetBytes int64

	floored bool
}

// Bitrate returns the bitrate in ffmpeg notation, e.g. "314k".
func (p CompressionPlan) Bitrate() string {
	return formatKbps(p.BitrateKbps)
}

// EstimatedBytes is the constant-bitrate size of the encoded audio.
func (p CompressionPlan) EstimatedBytes() int64 {
	return int64(float64(p.BitrateKbps) * 1000 / 8 * p.Duration.Seconds())
}

// FloorHit reports whether MinBitrateKbps was applied. The encoded file may
// then exceed the target.
func (p CompressionPlan) FloorHit() bool {
	return p.floored
}

// planConfig holds PlanFor settings.
type planConfig struct {
	targetSizeMB float64
	margin       float64
}

// PlanOption configures PlanFor.
type PlanOption func(*planConfig)

// WithTargetSizeMB sets the size ceiling in megabytes.
func WithTargetSizeMB(mb float64) PlanOption {
	return func(c *planConfig) {
		c.targetSizeMB = mb
	}
}

// WithMargin sets the fraction of the ceiling to aim for.
func WithMargin(margin float64) PlanOption {
	return func(c *planConfig) {
		c.margin = margin
	}
}

// PlanFor computes the compression plan for audio of the given duration.
func PlanFor(duration time.Duration, opts ...PlanOption) (CompressionPlan, error) {
	cfg := planConfig{targetSizeMB: DefaultTargetSizeMB, margin: DefaultMargin}
	for _, opt := range opts {
		opt(&cfg)
	}

	kbps, floored, err := computeKbps(duration.Seconds(), cfg.targetSizeMB, cfg.margin)
	if err != nil {
		return CompressionPlan{}, err
	}
	return CompressionPlan{
		BitrateKbps:  kbps,
		SampleRateHz: SampleRateHz,
		Channels:     Channels,
		Duration:     duration,
		TargetBytes:  int64(cfg.targetSizeMB * 1024 * 1024 * cfg.margin),
		floored:      floored,
	}, nil
}
