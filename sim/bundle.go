package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/netsim-lab/uec-mp/sim/trace"
	"gopkg.in/yaml.v3"
)

// ScenarioBundle holds a complete scenario, loadable from a YAML or TOML file.
// Fields absent from the file keep their DefaultScenario values. Nil pointer
// fields in MultipathConfig mean "not set" and select the selector defaults.
type ScenarioBundle struct {
	Seed      int64           `yaml:"seed" toml:"seed"`
	Horizon   int64           `yaml:"horizon" toml:"horizon"` // ticks (ns)
	Multipath MultipathConfig `yaml:"multipath" toml:"multipath"`
	Fabric    FabricConfig    `yaml:"fabric" toml:"fabric"`
	Flows     FlowsConfig     `yaml:"flows" toml:"flows"`
	Trace     string          `yaml:"trace" toml:"trace"`
}

// MultipathConfig selects the path selector every flow uses.
type MultipathConfig struct {
	Policy             string `yaml:"policy" toml:"policy"`
	Paths              int    `yaml:"paths" toml:"paths"`
	MaxPenalty         *int   `yaml:"max_penalty" toml:"max_penalty"`
	Trimming           *bool  `yaml:"trimming" toml:"trimming"` // nil = enabled
	UseMql             *bool  `yaml:"use_mql" toml:"use_mql"`
	BufferSize         *int   `yaml:"buffer_size" toml:"buffer_size"`
	FreezeDuration     *int64 `yaml:"freeze_duration" toml:"freeze_duration"`
	ExploreAfterFreeze *int   `yaml:"explore_after_freeze" toml:"explore_after_freeze"`
}

// FabricConfig parameterizes the fabric model. All times are in ticks.
type FabricConfig struct {
	BaseRTT    int64           `yaml:"base_rtt" toml:"base_rtt"`
	RTO        int64           `yaml:"rto" toml:"rto"`
	Jitter     int64           `yaml:"jitter" toml:"jitter"`
	ECNLevel   int             `yaml:"ecn_level" toml:"ecn_level"`
	LevelStep  int             `yaml:"level_step" toml:"level_step"` // in-flight packets per queue level
	BaseLevels []PathLevel     `yaml:"base_levels" toml:"base_levels"`
	Failures   []FailureConfig `yaml:"failures" toml:"failures"`
}

// PathLevel sets the idle queue level of one path.
type PathLevel struct {
	Path  int `yaml:"path" toml:"path"`
	Level int `yaml:"level" toml:"level"`
}

// FailureConfig fails Path at At and, if Recover > At, brings it back at Recover.
type FailureConfig struct {
	Path    int   `yaml:"path" toml:"path"`
	At      int64 `yaml:"at" toml:"at"`
	Recover int64 `yaml:"recover" toml:"recover"`
}

// FlowsConfig describes the identical flows of the scenario.
type FlowsConfig struct {
	Count    int   `yaml:"count" toml:"count"`
	Packets  int   `yaml:"packets" toml:"packets"`
	Cwnd     int   `yaml:"cwnd" toml:"cwnd"`
	StartGap int64 `yaml:"start_gap" toml:"start_gap"` // flow i starts at i*StartGap
}

// DefaultScenario returns four oblivious flows sharing 16 healthy paths.
func DefaultScenario() *ScenarioBundle {
	return &ScenarioBundle{
		Seed:    42,
		Horizon: 100_000_000,
		Multipath: MultipathConfig{
			Policy: multipath.PolicyOblivious,
			Paths:  16,
		},
		Fabric: FabricConfig{
			BaseRTT:   8_000,
			RTO:       50_000,
			Jitter:    500,
			ECNLevel:  4,
			LevelStep: 4,
		},
		Flows: FlowsConfig{
			Count:   4,
			Packets: 1000,
			Cwnd:    32,
		},
		Trace: string(trace.TraceLevelNone),
	}
}

// LoadScenarioBundle reads a scenario file and overlays it on DefaultScenario.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func LoadScenarioBundle(path string) (*ScenarioBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	bundle := DefaultScenario()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, bundle)
	} else {
		err = yaml.Unmarshal(data, bundle)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing scenario config %s: %w", path, err)
	}
	return bundle, nil
}

// SelectorConfig converts the YAML view into a selector configuration.
func (c MultipathConfig) SelectorConfig() multipath.Config {
	cfg := multipath.Config{
		Policy:    c.Policy,
		NoOfPaths: c.Paths,
		Trimming:  c.Trimming == nil || *c.Trimming,
	}
	if c.MaxPenalty != nil {
		cfg.MaxPenalty = *c.MaxPenalty
	}
	if c.UseMql != nil {
		cfg.UseMql = *c.UseMql
	}
	if c.BufferSize != nil {
		cfg.BufferSize = *c.BufferSize
	}
	if c.FreezeDuration != nil {
		cfg.FreezeDuration = *c.FreezeDuration
	}
	if c.ExploreAfterFreeze != nil {
		cfg.ExploreAfterFreeze = *c.ExploreAfterFreeze
	}
	return cfg
}

// Validate checks names and parameter ranges of the whole bundle.
func (b *ScenarioBundle) Validate() error {
	if b.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", b.Horizon)
	}
	if err := b.Multipath.SelectorConfig().Validate(); err != nil {
		return fmt.Errorf("multipath: %w", err)
	}
	if !trace.IsValidTraceLevel(b.Trace) {
		return fmt.Errorf("unknown trace level %q", b.Trace)
	}
	if err := b.Fabric.validate(b.Multipath.Paths); err != nil {
		return fmt.Errorf("fabric: %w", err)
	}
	if err := b.Flows.validate(); err != nil {
		return fmt.Errorf("flows: %w", err)
	}
	return nil
}

func (c *FabricConfig) validate(paths int) error {
	if c.BaseRTT <= 0 {
		return fmt.Errorf("base_rtt must be positive, got %d", c.BaseRTT)
	}
	if c.RTO <= 0 {
		return fmt.Errorf("rto must be positive, got %d", c.RTO)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("jitter must be non-negative, got %d", c.Jitter)
	}
	if c.ECNLevel < 0 || c.ECNLevel > int(multipath.MaxMqlLevel) {
		return fmt.Errorf("ecn_level must be in [0, %d], got %d", multipath.MaxMqlLevel, c.ECNLevel)
	}
	if c.LevelStep < 1 {
		return fmt.Errorf("level_step must be at least 1, got %d", c.LevelStep)
	}
	for i, pl := range c.BaseLevels {
		if pl.Path < 0 || pl.Path >= paths {
			return fmt.Errorf("base_levels[%d]: path %d out of range [0, %d)", i, pl.Path, paths)
		}
		if pl.Level < 0 || pl.Level > int(multipath.MaxMqlLevel) {
			return fmt.Errorf("base_levels[%d]: level must be in [0, %d], got %d", i, multipath.MaxMqlLevel, pl.Level)
		}
	}
	for i, f := range c.Failures {
		if f.Path < 0 || f.Path >= paths {
			return fmt.Errorf("failures[%d]: path %d out of range [0, %d)", i, f.Path, paths)
		}
		if f.At < 0 {
			return fmt.Errorf("failures[%d]: at must be non-negative, got %d", i, f.At)
		}
	}
	return nil
}

func (c *FlowsConfig) validate() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	if c.Packets < 1 {
		return fmt.Errorf("packets must be at least 1, got %d", c.Packets)
	}
	if c.Cwnd < 1 {
		return fmt.Errorf("cwnd must be at least 1, got %d", c.Cwnd)
	}
	if c.StartGap < 0 {
		return fmt.Errorf("start_gap must be non-negative, got %d", c.StartGap)
	}
	return nil
}
