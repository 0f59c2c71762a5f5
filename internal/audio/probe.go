package audio

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationRe matches the container duration in the FFmpeg input banner,
// e.g. "Duration: 00:05:23.45".
var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// Probe returns the duration of the media file at path.
func (p *Preparer) Probe(ctx context.Context, path string) (time.Duration, error) {
	// Without an output file ffmpeg prints the input banner and exits non-zero,
	// so the output is parsed regardless of the exit status.
	args := []string{"-hide_banner", "-i", path}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil && len(output) == 0 {
		return 0, fmt.Errorf("%w: %s: %v", ErrProbeFailed, path, err)
	}

	d, perr := parseDurationFromFFmpegOutput(string(output))
	if perr != nil {
		return 0, fmt.Errorf("%w: %s: %v\nOutput: %s", ErrProbeFailed, path, perr, string(output))
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s reports %v", ErrInvalidDuration, path, d)
	}
	return d, nil
}

// parseDurationFromFFmpegOutput extracts the duration from FFmpeg stderr.
func parseDurationFromFFmpegOutput(output string) (time.Duration, error) {
	matches := durationRe.FindStringSubmatch(output)
	if matches == nil {
		return 0, fmt.Errorf("could not parse duration from ffmpeg output")
	}
	return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
}

// parseTimeComponents converts HH:MM:SS.frac strings to a Duration.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q: %w", hours, err)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q: %w", minutes, err)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q: %w", seconds, err)
	}

	// Normalize the fraction to milliseconds; it may have 1 to 6+ digits.
	if len(fractional) > 3 {
		fractional = fractional[:3]
	}
	ms, err := strconv.Atoi(fractional)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction %q: %w", fractional, err)
	}
	for n := len(fractional); n < 3; n++ {
		ms *= 10
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
