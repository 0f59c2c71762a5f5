package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/pricing"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-minutes/config.
Each setting falls back to an environment variable when the file omits it.

Supported settings:
  output-dir    Default directory for output files (env: MINUTES_OUTPUT_DIR)
  model         Default chat model                  (env: MINUTES_MODEL)
  rates-file    YAML rate table overrides           (env: MINUTES_RATES_FILE)
  ledger        SQLite cost ledger                  (env: MINUTES_LEDGER)`,
		Example: `  minutes config set output-dir ~/Documents/minutes
  minutes config set model gpt-4o-mini
  minutes config get ledger
  minutes config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

output-dir is created if it doesn't exist. rates-file must parse, and
model must be priced by the built-in rates or the configured rates-file.`,
		Example: `  minutes config set output-dir ~/Documents/minutes
  minutes config set rates-file ~/.config/go-minutes/rates.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  minutes config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  minutes config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet validates value for key, then saves it.
func runConfigSet(env *Env, key, value string) error {
	if !config.ValidKey(key) {
		return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(config.Keys(), ", "), config.ErrUnknownKey)
	}

	switch key {
	case config.KeyOutputDir:
		value = config.ExpandPath(value)
		if err := config.EnsureOutputDir(value); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
	case config.KeyRatesFile:
		value = config.ExpandPath(value)
		if _, err := pricing.LoadFile(value); err != nil {
			return err
		}
	case config.KeyLedger:
		value = config.ExpandPath(value)
	case config.KeyModel:
		cfg, err := env.ConfigLoader.Load()
		if err != nil {
			return err
		}
		rates, err := pricing.LoadFile(config.ExpandPath(cfg.RatesFile))
		if err != nil {
			return err
		}
		if !rates.Has(value) {
			return fmt.Errorf("%q (priced: %s): %w", value, strings.Join(rates.Models(), ", "), pricing.ErrUnknownModel)
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet prints the file value of key, or its environment fallback.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvVar(key))
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList prints every set value, file first, then environment.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for _, key := range config.Keys() {
		if _, ok := data[key]; ok {
			continue
		}
		if v := env.Getenv(config.EnvVar(key)); v != "" {
			data[key] = v + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(env.Stdout, "%s=%s\n", k, data[k])
	}
	return nil
}
