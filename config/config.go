// SPDX-License-Identifier: MIT

// Package config loads run settings for the esf command from a YAML file,
// ESF_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a configuration that cannot drive a run.
var ErrInvalid = errors.New("config: invalid")

// EnvPrefix is the environment variable prefix (ESF_SELECTION_TOLERANCE, ...).
const EnvPrefix = "ESF"

// Source is one spreadsheet export joined into the spatial layer.
type Source struct {
	Path        string   `mapstructure:"path" yaml:"path"`
	IDColumn    string   `mapstructure:"id_column" yaml:"id_column"`
	SkipRows    int      `mapstructure:"skip_rows" yaml:"skip_rows"`
	DropColumns []string `mapstructure:"drop_columns" yaml:"drop_columns,omitempty"`
}

// Data locates the inputs.
type Data struct {
	Tables      []Source `mapstructure:"tables" yaml:"tables"`
	Layer       string   `mapstructure:"layer" yaml:"layer"`
	LenientJoin bool     `mapstructure:"lenient_join" yaml:"lenient_join"`
}

// Model names the regression terms.
type Model struct {
	Response   string   `mapstructure:"response" yaml:"response"`
	Predictors []string `mapstructure:"predictors" yaml:"predictors"`
	Intercept  bool     `mapstructure:"intercept" yaml:"intercept"`
}

// Weights selects how neighbors are derived and weighted.
type Weights struct {
	Contiguity string `mapstructure:"contiguity" yaml:"contiguity"` // listed | queen | rook
	Style      string `mapstructure:"style" yaml:"style"`           // W | B
	Symmetrize bool   `mapstructure:"symmetrize" yaml:"symmetrize"`
}

// MEM controls the eigenvector basis.
type MEM struct {
	PositiveOnly bool `mapstructure:"positive_only" yaml:"positive_only"`
	MaxVectors   int  `mapstructure:"max_vectors" yaml:"max_vectors"`
}

// Selection controls the spatial-filter loop.
type Selection struct {
	Significance  float64 `mapstructure:"significance" yaml:"significance"`
	Tolerance     float64 `mapstructure:"tolerance" yaml:"tolerance"`
	MaxCandidates int     `mapstructure:"max_candidates" yaml:"max_candidates"`
	TimeoutSec    int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Moran controls the residual autocorrelation test.
type Moran struct {
	Permutations int   `mapstructure:"permutations" yaml:"permutations"`
	Seed         int64 `mapstructure:"seed" yaml:"seed"`
}

// Output controls the report.
type Output struct {
	Format string `mapstructure:"format" yaml:"format"` // text | json | yaml
	Path   string `mapstructure:"path" yaml:"path"`     // empty = stdout
}

// Config is the full run configuration.
type Config struct {
	Data      Data      `mapstructure:"data" yaml:"data"`
	Model     Model     `mapstructure:"model" yaml:"model"`
	Weights   Weights   `mapstructure:"weights" yaml:"weights"`
	MEM       MEM       `mapstructure:"mem" yaml:"mem"`
	Selection Selection `mapstructure:"selection" yaml:"selection"`
	Moran     Moran     `mapstructure:"moran" yaml:"moran"`
	Output    Output    `mapstructure:"output" yaml:"output"`
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.tables", []Source{})
	v.SetDefault("data.layer", "")
	v.SetDefault("data.lenient_join", false)
	v.SetDefault("model.response", "")
	v.SetDefault("model.predictors", []string{})
	v.SetDefault("model.intercept", true)
	v.SetDefault("weights.contiguity", "queen")
	v.SetDefault("weights.style", "W")
	v.SetDefault("weights.symmetrize", false)
	v.SetDefault("mem.positive_only", true)
	v.SetDefault("mem.max_vectors", 0)
	v.SetDefault("selection.significance", 0.10)
	v.SetDefault("selection.tolerance", 0.5)
	v.SetDefault("selection.max_candidates", 0)
	v.SetDefault("selection.timeout_sec", 0)
	v.SetDefault("moran.permutations", 0)
	v.SetDefault("moran.seed", 1)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.path", "")
}

// Default returns the built-in configuration with an example data section.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	c.Data.Tables = []Source{
		{Path: "profiles.csv", IDColumn: "id", SkipRows: 1},
		{Path: "donors.csv", IDColumn: "id", SkipRows: 1},
	}
	c.Data.Layer = "layer.yaml"
	c.Model.Response = "donors"
	c.Model.Predictors = []string{"population"}

	return &c
}

// Loader reads configuration. A nil logger falls back to slog.Default().
type Loader struct {
	logger *slog.Logger
}

// NewLoader returns a Loader logging through logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{logger: logger}
}

// Load reads cfgFile (or ./esf.yaml, then ~/.esf/config.yaml when empty),
// applies ESF_* environment overrides and defaults, and validates.
// Precedence: env > config file > defaults; flags are applied by the caller.
func (l *Loader) Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("esf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".esf"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
		l.logger.Debug("no config file found, using defaults and environment")
	} else {
		l.logger.Info("loaded config", slog.String("path", v.ConfigFileUsed()))
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if base := v.ConfigFileUsed(); base != "" {
		c.resolvePaths(filepath.Dir(base))
	}

	return &c, nil
}

// resolvePaths makes relative data paths relative to the config file.
func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(dir, p)
	}
	c.Data.Layer = abs(c.Data.Layer)
	for i := range c.Data.Tables {
		c.Data.Tables[i].Path = abs(c.Data.Tables[i].Path)
	}
}

// Validate reports every setting that would make a run fail early.
func (c *Config) Validate() error {
	var problems []string
	if len(c.Data.Tables) == 0 {
		problems = append(problems, "data.tables is empty")
	}
	for i, s := range c.Data.Tables {
		if s.Path == "" {
			problems = append(problems, fmt.Sprintf("data.tables[%d].path is empty", i))
		}
		if s.SkipRows < 0 {
			problems = append(problems, fmt.Sprintf("data.tables[%d].skip_rows is negative", i))
		}
	}
	if c.Data.Layer == "" {
		problems = append(problems, "data.layer is empty")
	}
	if c.Model.Response == "" {
		problems = append(problems, "model.response is empty")
	}
	if s := c.Selection.Significance; !(s > 0 && s <= 1) {
		problems = append(problems, fmt.Sprintf("selection.significance %v not in (0, 1]", s))
	}
	if c.Selection.MaxCandidates < 0 || c.Selection.TimeoutSec < 0 || c.MEM.MaxVectors < 0 || c.Moran.Permutations < 0 {
		problems = append(problems, "counts and timeouts must be >= 0")
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("output.format %q is not text|json|yaml", c.Output.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}

	return nil
}

// Save writes c as YAML to path, creating the parent directory.
func Save(c *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}

	return nil
}
