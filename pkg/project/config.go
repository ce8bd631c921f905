// Package project provides workspace configuration loading and input
// discovery for the CLI: utam.config.json, include/exclude filtering, and
// output path mapping.
package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInputDirEmpty  = errors.New("inputDirectory must not be empty")
	ErrOutputDirEmpty = errors.New("outputDirectory must not be empty")
	ErrBadRuleLevel   = errors.New("lint rule level must be off, warning or error")
)

// Default configuration values.
const (
	DefaultConfigFile = "utam.config.json"
	defaultInputDir   = "."
	defaultOutputDir  = "generated"
)

// Config holds the full project configuration.
type Config struct {
	InputDirectory  string          `mapstructure:"inputDirectory"`
	OutputDirectory string          `mapstructure:"outputDirectory"`
	Include         []string        `mapstructure:"include"`
	Exclude         []string        `mapstructure:"exclude"`
	CompilerOptions CompilerOptions `mapstructure:"compilerOptions"`
	Lint            LintConfig      `mapstructure:"lint"`
}

// CompilerOptions mirrors the pipeline switches exposed to projects.
type CompilerOptions struct {
	// Strict surfaces unknown JSON fields as note diagnostics.
	Strict bool `mapstructure:"strict"`
	// EagerChildLoad switches "load": true elements to eager invocation.
	EagerChildLoad bool `mapstructure:"eagerChildLoad"`
}

// LintConfig configures the lint rule levels by rule name.
type LintConfig struct {
	Rules map[string]string `mapstructure:"rules"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		InputDirectory:  defaultInputDir,
		OutputDirectory: defaultOutputDir,
		Include:         []string{"*.utam.json"},
	}
}

// Load reads the project configuration from path, falling back to defaults
// when path is empty and no utam.config.json is present.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("utam.config")
		v.AddConfigPath(".")
	}

	v.SetDefault("inputDirectory", defaultInputDir)
	v.SetDefault("outputDirectory", defaultOutputDir)
	v.SetDefault("include", []string{"*.utam.json"})

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return Default(), nil
		}

		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config

	err = v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// fileShape mirrors Config with the camelCase keys used on disk.
type fileShape struct {
	InputDirectory  string           `json:"inputDirectory"`
	OutputDirectory string           `json:"outputDirectory"`
	Include         []string         `json:"include,omitempty"`
	Exclude         []string         `json:"exclude,omitempty"`
	CompilerOptions fileShapeOptions `json:"compilerOptions"`
	Lint            fileShapeLint    `json:"lint,omitempty"`
}

type fileShapeOptions struct {
	Strict         bool `json:"strict"`
	EagerChildLoad bool `json:"eagerChildLoad"`
}

type fileShapeLint struct {
	Rules map[string]string `json:"rules,omitempty"`
}

// ToFileShape converts the configuration into the JSON shape written by
// "utam init".
func (c Config) ToFileShape() any {
	return fileShape{
		InputDirectory:  c.InputDirectory,
		OutputDirectory: c.OutputDirectory,
		Include:         c.Include,
		Exclude:         c.Exclude,
		CompilerOptions: fileShapeOptions{
			Strict:         c.CompilerOptions.Strict,
			EagerChildLoad: c.CompilerOptions.EagerChildLoad,
		},
		Lint: fileShapeLint{Rules: c.Lint.Rules},
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InputDirectory) == "" {
		return ErrInputDirEmpty
	}

	if strings.TrimSpace(c.OutputDirectory) == "" {
		return ErrOutputDirEmpty
	}

	for rule, level := range c.Lint.Rules {
		switch level {
		case "off", "warning", "error":
		default:
			return fmt.Errorf("%w: rule %q has level %q", ErrBadRuleLevel, rule, level)
		}
	}

	return nil
}
