// Package config loads the translator configuration from YAML.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config controls a translation run. Command-line flags override file values.
type Config struct {
	Analysis    string   `yaml:"analysis" json:"analysis,omitempty" jsonschema:"title=Analysis Command,description=radare2 command run before listing functions,default=aa"`
	OutputDir   string   `yaml:"output_dir" json:"output_dir,omitempty" jsonschema:"title=Output Directory,description=Directory receiving one .s file per function,default=out"`
	Functions   []string `yaml:"functions" json:"functions,omitempty" jsonschema:"title=Functions,description=Function names to translate; empty selects every function symbol"`
	FailFast    bool     `yaml:"fail_fast" json:"fail_fast,omitempty" jsonschema:"title=Fail Fast,description=Stop at the first function that fails to translate"`
	LabelPrefix string   `yaml:"label_prefix" json:"label_prefix,omitempty" jsonschema:"title=Label Prefix,description=Prefix of synthetic branch labels,default=loc_"`
	Debug       bool     `yaml:"debug" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analysis:    "aa",
		OutputDir:   "out",
		LabelPrefix: "loc_",
	}
}

// Load reads path on top of Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise produce unassemblable output.
func (c Config) Validate() error {
	if c.LabelPrefix == "" {
		return errors.New("label_prefix must not be empty")
	}
	for i, r := range c.LabelPrefix {
		switch {
		case r == '_' || r == '.' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("label_prefix %q: invalid character %q", c.LabelPrefix, r)
		}
	}
	return nil
}

// Selected reports whether name is part of the run.
func (c Config) Selected(name string) bool {
	if len(c.Functions) == 0 {
		return true
	}
	for _, f := range c.Functions {
		if f == name {
			return true
		}
	}
	return false
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}
