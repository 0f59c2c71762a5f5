// Package config reads and writes the user configuration file of minutes.
//
// The file lives at $XDG_CONFIG_HOME/go-minutes/config (or
// ~/.config/go-minutes/config) and holds one key=value pair per line.
// Every key has an environment variable fallback used when the file
// does not set it.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyModel     = "model"
	KeyRatesFile = "rates-file"
	KeyLedger    = "ledger"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "MINUTES_OUTPUT_DIR"
	EnvModel     = "MINUTES_MODEL"
	EnvRatesFile = "MINUTES_RATES_FILE"
	EnvLedger    = "MINUTES_LEDGER"
)

const appDir = "go-minutes"

// Sentinel errors.
var (
	ErrInvalidSyntax = errors.New("invalid config syntax")
	ErrUnknownKey    = errors.New("unknown config key")
	ErrNotDirectory  = errors.New("path is not a directory")
	ErrNotWritable   = errors.New("directory is not writable")
)

// keyEnv maps each key to its environment fallback, in display order.
var keyEnv = []struct{ key, env string }{
	{KeyOutputDir, EnvOutputDir},
	{KeyModel, EnvModel},
	{KeyRatesFile, EnvRatesFile},
	{KeyLedger, EnvLedger},
}

// Config holds user configuration.
type Config struct {
	OutputDir string
	Model     string
	RatesFile string
	Ledger    string
}

// Keys returns the supported keys in display order.
func Keys() []string {
	keys := make([]string, 0, len(keyEnv))
	for _, ke := range keyEnv {
		keys = append(keys, ke.key)
	}
	return keys
}

// ValidKey reports whether key is a supported config key.
func ValidKey(key string) bool {
	return slices.Contains(Keys(), key)
}

// EnvVar returns the environment fallback of key, or "" for an unknown key.
func EnvVar(key string) string {
	for _, ke := range keyEnv {
		if ke.key == key {
			return ke.env
		}
	}
	return ""
}

func (c *Config) field(key string) *string {
	switch key {
	case KeyOutputDir:
		return &c.OutputDir
	case KeyModel:
		return &c.Model
	case KeyRatesFile:
		return &c.RatesFile
	case KeyLedger:
		return &c.Ledger
	}
	return nil
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-minutes.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// A key set in the file wins over its environment variable.
// A missing file is not an error.
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	for _, ke := range keyEnv {
		v := data[ke.key]
		if v == "" {
			v = os.Getenv(ke.env)
		}
		*cfg.field(ke.key) = v
	}
	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, line, ErrInvalidSyntax)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file, creating it if needed.
// Other pairs are preserved; comments are discarded.
func Save(key, value string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%q (valid: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map with keys in sorted order.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	w := bufio.NewWriter(f)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, data[k]); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	return f.Close()
}

// Get reads a single value from the config file.
// Returns empty string if the key is not set.
func Get(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	data, err := List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// List returns all values set in the config file.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// ResolveOutputPath resolves an output file path:
//  1. an absolute output is used as-is;
//  2. a relative output is joined to outputDir when set;
//  3. an empty output becomes defaultName, in outputDir when set.
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	name := output
	if name == "" {
		name = defaultName
	}
	if outputDir != "" {
		return filepath.Clean(filepath.Join(ExpandPath(outputDir), name))
	}
	return filepath.Clean(name)
}

// EnsureOutputDir creates d if missing and checks that it is a writable directory.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
			return fmt.Errorf("cannot create directory: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("cannot access directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("%s: %w", d, ErrNotDirectory)
	}

	probe, err := os.CreateTemp(d, ".go-minutes-write-test-*")
	if err != nil {
		return fmt.Errorf("%s: %w", d, ErrNotWritable)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
