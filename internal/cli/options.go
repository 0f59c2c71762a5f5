package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/pricing"
	"github.com/alnah/go-minutes/internal/summarize"
)

// summaryFlags holds the map-reduce flags shared by run, summarize and watch.
type summaryFlags struct {
	model     string
	ceiling   int
	chunkSize int
	overlap   int
	parallel  int
	rates     string
}

func (f *summaryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Chat model (default: config model, then "+summarize.DefaultModel+")")
	cmd.Flags().IntVar(&f.ceiling, "ceiling", summarize.DefaultCeiling, "Token ceiling of one request (prompt + completion)")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", summarize.DefaultChunkSize, "Transcript chunk size in characters")
	cmd.Flags().IntVar(&f.overlap, "overlap", summarize.DefaultOverlap, "Characters shared by adjacent chunks")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 1, "Max concurrent map requests (1-10)")
	cmd.Flags().StringVar(&f.rates, "rates", "", "YAML rate table merged over the built-in rates")
}

// outputFlags holds where results and accounting go.
type outputFlags struct {
	outputDir   string
	ledger      string
	metricsFile string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for output files (default: config output-dir, then current directory)")
	cmd.Flags().StringVar(&f.ledger, "ledger", "", "SQLite cost ledger (default: config ledger, disabled when unset)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
}

// audioFlags holds the sizing and transcription flags.
type audioFlags struct {
	targetMB float64
	margin   float64
	language string
	prompt   string
}

func (f *audioFlags) register(cmd *cobra.Command) {
	f.registerSizing(cmd)
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Spoken language hint (ISO 639-1, e.g. en, fr, pt-BR)")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Transcription prompt: names, acronyms, vocabulary")
}

func (f *audioFlags) registerSizing(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.targetMB, "target-mb", audio.DefaultTargetSizeMB, "Upload ceiling in MB")
	cmd.Flags().Float64Var(&f.margin, "margin", audio.DefaultMargin, "Fraction of the ceiling to aim for (0-1]")
}

// settings is the outcome of merging flags with the user configuration.
type settings struct {
	model       string
	rates       pricing.RateTable
	outputDir   string
	ledger      string
	metricsFile string
}

// resolveSettings applies config then defaults to unset flags, loads the
// rate table and prepares the output directory.
func resolveSettings(env *Env, sf summaryFlags, of outputFlags) (settings, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return settings{}, err
	}

	s := settings{
		model:       firstNonEmpty(sf.model, cfg.Model, summarize.DefaultModel),
		outputDir:   firstNonEmpty(of.outputDir, cfg.OutputDir),
		ledger:      config.ExpandPath(firstNonEmpty(of.ledger, cfg.Ledger)),
		metricsFile: of.metricsFile,
	}

	s.rates, err = pricing.LoadFile(config.ExpandPath(firstNonEmpty(sf.rates, cfg.RatesFile)))
	if err != nil {
		return settings{}, err
	}

	if s.outputDir != "" {
		if err := config.EnsureOutputDir(s.outputDir); err != nil {
			return settings{}, fmt.Errorf("invalid output-dir: %w", err)
		}
	}
	return s, nil
}

// summarizerOptions converts flags to summarize options.
func summarizerOptions(model string, sf summaryFlags, logger *slog.Logger) []summarize.Option {
	return []summarize.Option{
		summarize.WithModel(model),
		summarize.WithCeiling(sf.ceiling),
		summarize.WithChunking(sf.chunkSize, sf.overlap),
		summarize.WithParallel(clampParallel(sf.parallel)),
		summarize.WithLogger(logger),
	}
}

// clampParallel constrains the map concurrency to [1, summarize.MaxParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > summarize.MaxParallel {
		return summarize.MaxParallel
	}
	return n
}

// apiKey returns the OpenAI key or ErrAPIKeyMissing.
func apiKey(env *Env) (string, error) {
	key := env.Getenv(EnvOpenAIAPIKey)
	if key == "" {
		return "", fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
	}
	return key, nil
}

// parseDuration accepts seconds ("600", "5400.5") or a Go duration ("1h30m").
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidDuration, s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q (use seconds or e.g. 1h30m)", ErrInvalidDuration, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidDuration, s)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
