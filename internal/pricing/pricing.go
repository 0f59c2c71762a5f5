// Package pricing converts remote token usage into monetary cost.
//
// Rates are data, not code: the built-in table is an embedded YAML document
// and LoadFile merges a user table over it, so new models need no release.
package pricing

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var defaultRates []byte

// Rate is the USD price of 1K tokens in each direction.
type Rate struct {
	InputPer1K  float64 `yaml:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k"`
}

// RateTable maps a model identifier to its rate.
type RateTable map[string]Rate

// rateFile is the on-disk layout of a rate table.
type rateFile struct {
	Models map[string]Rate `yaml:"models"`
}

// Default returns the built-in rate table.
// The embedded document is validated by tests; a parse failure here is a build defect.
func Default() RateTable {
	table, err := Parse(defaultRates)
	if err != nil {
		panic(fmt.Sprintf("pricing: embedded rates.yaml: %v", err))
	}
	return table
}

// Parse decodes a YAML rate table.
// The document must list at least one model under "models", and every rate
// must be a finite, non-negative number.
func Parse(data []byte) (RateTable, error) {
	var f rateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRates, err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("%w: no models listed", ErrInvalidRates)
	}
	table := make(RateTable, len(f.Models))
	for model, r := range f.Models {
		if !validRate(r.InputPer1K) || !validRate(r.OutputPer1K) {
			return nil, fmt.Errorf("%w: rate for %q must be a finite non-negative number", ErrInvalidRates, model)
		}
		table[model] = r
	}
	return table, nil
}

func validRate(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// LoadFile returns the built-in table with the rates from path merged over it.
// An empty path returns the built-in table.
func LoadFile(path string) (RateTable, error) {
	table := Default()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-specified rate table
	if err != nil {
		return nil, fmt.Errorf("cannot read rate table: %w", err)
	}
	overrides, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for model, r := range overrides {
		table[model] = r
	}
	return table, nil
}

// Has reports whether model has a rate.
func (t RateTable) Has(model string) bool {
	_, ok := t[model]
	return ok
}

// Models returns the known model identifiers, sorted.
func (t RateTable) Models() []string {
	models := make([]string, 0, len(t))
	for m := range t {
		models = append(models, m)
	}
	slices.Sort(models)
	return models
}

// Cost returns (promptTokens*input + completionTokens*output) / 1000.
func (t RateTable) Cost(model string, promptTokens, completionTokens int) (float64, error) {
	r, ok := t[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q (known: %v)", ErrUnknownModel, model, t.Models())
	}
	if promptTokens < 0 || completionTokens < 0 {
		return 0, fmt.Errorf("%w: prompt=%d completion=%d", ErrInvalidUsage, promptTokens, completionTokens)
	}
	return (float64(promptTokens)*r.InputPer1K + float64(completionTokens)*r.OutputPer1K) / 1000, nil
}

// Record prices one remote call.
func (t RateTable) Record(model string, promptTokens, completionTokens int) (CostRecord, error) {
	amount, err := t.Cost(model, promptTokens, completionTokens)
	if err != nil {
		return CostRecord{}, err
	}
	return CostRecord{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Amount:           amount,
	}, nil
}

// CostRecord is the usage and price of one remote call.
type CostRecord struct {
	PromptTokens     int
	CompletionTokens int
	Amount           float64 // USD
}

// Total sums the amounts of records. Order is irrelevant.
func Total(records ...CostRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Amount
	}
	return sum
}
