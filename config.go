package stash

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix selects the environment variables overriding file settings,
// e.g. STASH_LEVEL=debug overrides the "level" key.
const envPrefix = "STASH_"

// ComponentConfig names one pipeline component and its free-form params.
type ComponentConfig struct {
	Type   string         `koanf:"type"`
	Params map[string]any `koanf:"params"`
}

// FlowConfig describes one output flow.
type FlowConfig struct {
	Name    string            `koanf:"name"`
	Encoder ComponentConfig   `koanf:"encoder"`
	Adapter ComponentConfig   `koanf:"adapter"`
	Filters []ComponentConfig `koanf:"filters"`
}

// Config is the declarative pipeline description loaded from YAML and
// the environment.
type Config struct {
	Level      string       `koanf:"level"`
	Buffering  bool         `koanf:"buffering"`
	AllowEmpty bool         `koanf:"allow_empty"`
	Flows      []FlowConfig `koanf:"flows"`
}

// DefaultConfig returns the configuration used when no file is given:
// info level, a single JSON flow to stdout.
func DefaultConfig() Config {
	return Config{
		Level: SeverityInfo.String(),
		Flows: []FlowConfig{{
			Name:    "default",
			Encoder: ComponentConfig{Type: "json"},
			Adapter: ComponentConfig{Type: "stdout"},
		}},
	}
}

// LoadConfig reads the YAML file at path and applies STASH_* environment
// overrides on top. An empty path skips the file and loads defaults plus
// the environment.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, &Error{Code: ErrCodeConfigInvalid, Message: "cannot load configuration file", Cause: err}
		}
	}

	// STASH_ALLOW_EMPTY=true becomes the "allow_empty" key. Double
	// underscores separate nesting levels.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeConfigInvalid, Message: "cannot load environment overrides", Cause: err}
	}

	cfg := DefaultConfig()
	if k.Exists("flows") {
		cfg.Flows = nil
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeConfigInvalid, Message: "cannot decode configuration", Cause: err}
	}
	return cfg, nil
}

// Validate checks structural requirements before a Build attempt.
func (c Config) Validate() error {
	if c.Level != "" {
		if _, err := ParseSeverity(c.Level); err != nil {
			return err
		}
	}
	if len(c.Flows) == 0 {
		return newError(ErrCodeConfigInvalid, "configuration declares no flows", nil)
	}
	for _, fc := range c.Flows {
		if fc.Encoder.Type == "" {
			return newError(ErrCodeConfigInvalid, "flow is missing an encoder", map[string]any{"flow": fc.Name})
		}
		if fc.Adapter.Type == "" {
			return newError(ErrCodeConfigInvalid, "flow is missing an adapter", map[string]any{"flow": fc.Name})
		}
	}
	return nil
}

// Build constructs the configured logger, resolving every component
// through regs (nil means DefaultRegistries). Flows built before a
// failing component are closed again; no adapter leaks.
func (c Config) Build(regs *Registries, opts ...FlowOption) (*Logger, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = DefaultRegistries()
	}

	level := SeverityInfo
	if c.Level != "" {
		level, _ = ParseSeverity(c.Level)
	}

	built := make([]*Flow, 0, len(c.Flows))
	fail := func(err error) (*Logger, error) {
		for _, f := range built {
			_ = f.Close()
		}
		return nil, err
	}

	for _, fc := range c.Flows {
		encoder, err := regs.Encoders.Build(fc.Encoder.Type, fc.Encoder.Params)
		if err != nil {
			return fail(err)
		}
		adapter, err := regs.Adapters.Build(fc.Adapter.Type, fc.Adapter.Params)
		if err != nil {
			return fail(err)
		}

		filters := make([]Filter, 0, len(fc.Filters))
		for _, filterCfg := range fc.Filters {
			filter, err := regs.Filters.Build(filterCfg.Type, filterCfg.Params)
			if err != nil {
				_ = adapter.Close()
				return fail(err)
			}
			filters = append(filters, filter)
		}

		flowOpts := append([]FlowOption{WithFilters(filters...)}, opts...)
		flow, err := NewFlow(fc.Name, encoder, adapter, flowOpts...)
		if err != nil {
			_ = adapter.Close()
			return fail(err)
		}
		built = append(built, flow)
	}

	logger := NewLogger(NewFlows(built...), LoggerOptions{
		Level:      level,
		Buffering:  c.Buffering,
		AllowEmpty: c.AllowEmpty,
	})
	return logger, nil
}
