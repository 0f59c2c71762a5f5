package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-minutes/internal/format"
	"github.com/alnah/go-minutes/internal/summarize"
)

// Output file suffixes.
const (
	transcriptSuffix = "_transcript.txt"
	summarySuffix    = "_summary.txt"
)

// deriveOutputName converts an input path to an output file name.
// Example: ("standup.mp4", "_summary.txt") -> "standup_summary.txt"
// A transcript input loses its suffix first, so "standup_transcript.txt"
// also yields "standup_summary.txt".
func deriveOutputName(inputPath, suffix string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, strings.TrimSuffix(transcriptSuffix, ".txt"))
	return base + suffix
}

// ensureAbsent fails with ErrOutputExists if any path exists, so a run
// stops before spending on results it could not write.
func ensureAbsent(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("output file already exists: %s: %w", p, ErrOutputExists)
		}
	}
	return nil
}

// defaultProgressCallback returns a progress callback that writes status
// messages to w.
func defaultProgressCallback(w io.Writer) func(phase string, current, total int) {
	return func(phase string, current, total int) {
		if phase == summarize.PhaseMap {
			_, _ = fmt.Fprintf(w, "  Summarizing part %d/%d...\n", current, total)
		} else {
			_, _ = fmt.Fprintln(w, "  Merging parts...")
		}
	}
}

// printCosts writes the per-phase and total cost of a run.
func printCosts(w io.Writer, res summarize.Result) {
	if len(res.Calls) == 0 {
		return
	}

	var mapCalls int
	for _, c := range res.Calls {
		if c.Phase == summarize.PhaseMap {
			mapCalls++
		}
	}

	_, _ = fmt.Fprintln(w, "Cost:")
	_, _ = fmt.Fprintf(w, "  map     %2d call(s)  %s\n", mapCalls, format.USD(res.PhaseTotal(summarize.PhaseMap)))
	_, _ = fmt.Fprintf(w, "  reduce  %2d call(s)  %s\n", len(res.Calls)-mapCalls, format.USD(res.PhaseTotal(summarize.PhaseReduce)))
	_, _ = fmt.Fprintf(w, "  total              %s\n", format.USD(res.Total()))
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
