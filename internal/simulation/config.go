package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-vicsek/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-vicsek/pkg/vicsek"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchema string

// BackendDistributed runs the partitioned cluster instead of a local kernel.
const BackendDistributed = "distributed"

// ErrUnsupportedFormat is returned for config files that are not JSON, YAML or TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

type Config struct {
	// Model
	Agents     int     `json:"agents" yaml:"agents" toml:"agents"`
	Speed      float64 `json:"speed" yaml:"speed" toml:"speed"`
	Noise      float64 `json:"noise" yaml:"noise" toml:"noise"`
	DomainSize float64 `json:"domainSize" yaml:"domainSize" toml:"domainSize"`
	Radius     float64 `json:"radius" yaml:"radius" toml:"radius"`
	TimeStep   float64 `json:"timeStep" yaml:"timeStep" toml:"timeStep"`
	Steps      int     `json:"steps" yaml:"steps" toml:"steps"`
	Seed       uint64  `json:"seed" yaml:"seed" toml:"seed"`

	// Execution
	Backend           string `json:"backend" yaml:"backend" toml:"backend"`
	Workers           int    `json:"workers" yaml:"workers" toml:"workers"` // 0 = one per CPU
	PeriodicNeighbors bool   `json:"periodicNeighbors" yaml:"periodicNeighbors" toml:"periodicNeighbors"`

	// Output
	Diagnostics   bool   `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
	TimeUnit      string `json:"timeUnit" yaml:"timeUnit" toml:"timeUnit"`
	TelemetryFile string `json:"telemetryFile" yaml:"telemetryFile" toml:"telemetryFile"`
}

func DefaultConfig() *Config {
	return &Config{
		Agents:     vicsek.DefaultAgents,
		Speed:      vicsek.DefaultSpeed,
		Noise:      vicsek.DefaultNoise,
		DomainSize: vicsek.DefaultDomainSize,
		Radius:     vicsek.DefaultRadius,
		TimeStep:   vicsek.DefaultTimeStep,
		Steps:      vicsek.DefaultSteps,
		Seed:       vicsek.DefaultSeed,
		Backend:    vicsek.BackendSequential,
		TimeUnit:   telemetry.UnitSeconds,
	}
}

// LoadConfig reads a JSON, YAML or TOML file (chosen by extension), validates
// it against the embedded schema and applies it over DefaultConfig. Fields
// absent from the file keep their default.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(configFile), "."))

	// 3. Validate
	var doc map[string]interface{}
	if err := decode(format, b, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", format, err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := decode(format, b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(format string, b []byte, v interface{}) error {
	switch format {
	case "json":
		return json.Unmarshal(b, v)
	case "yaml", "yml":
		return yaml.Unmarshal(b, v)
	case "toml":
		_, err := toml.Decode(string(b), v)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Params converts the model section to simulation parameters.
func (c *Config) Params() vicsek.Params {
	return vicsek.Params{
		Agents:            c.Agents,
		Speed:             c.Speed,
		Noise:             c.Noise,
		DomainSize:        c.DomainSize,
		Radius:            c.Radius,
		TimeStep:          c.TimeStep,
		Steps:             c.Steps,
		Seed:              c.Seed,
		PeriodicNeighbors: c.PeriodicNeighbors,
	}
}

// Validate checks the parameters and the execution settings.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Backend != BackendDistributed {
		if _, err := vicsek.NewAverager(c.Backend, 1, nil); err != nil {
			return err
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d workers", vicsek.ErrInvalidParams, c.Workers)
	}
	if _, err := telemetry.FormatDuration(0, c.TimeUnit); err != nil {
		return err
	}
	return nil
}

// AgentsFromArgs reads the agent count from the first positional argument.
// A missing, unparsable or non-positive value yields fallback.
func AgentsFromArgs(args []string, fallback int) int {
	if len(args) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
