package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestLoadScenarioBundle_ValidYAML(t *testing.T) {
	yaml := `
seed: 7
horizon: 5000000
multipath:
  policy: reps
  paths: 64
  use_mql: true
  buffer_size: 128
  freeze_duration: 30000
fabric:
  base_rtt: 4000
  ecn_level: 5
  base_levels:
    - path: 3
      level: 6
  failures:
    - path: 1
      at: 1000
      recover: 200000
flows:
  count: 8
  cwnd: 16
trace: decisions
`
	path := writeTempYAML(t, yaml)
	bundle, err := LoadScenarioBundle(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), bundle.Seed)
	assert.Equal(t, int64(5_000_000), bundle.Horizon)
	assert.Equal(t, multipath.PolicyReps, bundle.Multipath.Policy)
	assert.Equal(t, 64, bundle.Multipath.Paths)
	require.NotNil(t, bundle.Multipath.UseMql)
	assert.True(t, *bundle.Multipath.UseMql)
	assert.Equal(t, int64(4000), bundle.Fabric.BaseRTT)
	assert.Equal(t, 5, bundle.Fabric.ECNLevel)
	assert.Equal(t, []PathLevel{{Path: 3, Level: 6}}, bundle.Fabric.BaseLevels)
	assert.Equal(t, []FailureConfig{{Path: 1, At: 1000, Recover: 200000}}, bundle.Fabric.Failures)
	assert.Equal(t, 8, bundle.Flows.Count)
	assert.Equal(t, 16, bundle.Flows.Cwnd)
	assert.Equal(t, "decisions", bundle.Trace)
	require.NoError(t, bundle.Validate())
}

func TestLoadScenarioBundle_UnsetFieldsKeepDefaults(t *testing.T) {
	// GIVEN a YAML that only changes the policy
	path := writeTempYAML(t, "multipath:\n  policy: bitmap\n")

	// WHEN loaded
	bundle, err := LoadScenarioBundle(path)
	require.NoError(t, err)

	// THEN everything else matches DefaultScenario
	want := DefaultScenario()
	want.Multipath.Policy = multipath.PolicyBitmap
	assert.Equal(t, want, bundle)
}

func TestLoadScenarioBundle_ZeroValueIsDistinctFromUnset(t *testing.T) {
	path := writeTempYAML(t, "multipath:\n  policy: bitmap\n  trimming: false\n  max_penalty: 0\n")
	bundle, err := LoadScenarioBundle(path)
	require.NoError(t, err)

	require.NotNil(t, bundle.Multipath.Trimming)
	assert.False(t, *bundle.Multipath.Trimming)
	require.NotNil(t, bundle.Multipath.MaxPenalty)
	assert.Nil(t, bundle.Multipath.UseMql)
	assert.False(t, bundle.Multipath.SelectorConfig().Trimming)
}

func TestLoadScenarioBundle_TOML(t *testing.T) {
	// GIVEN the same kind of scenario written as TOML
	toml := `
seed = 11
trace = "decisions"

[multipath]
policy = "mixed"
paths = 32
max_penalty = 8

[fabric]
base_rtt = 6000

[[fabric.base_levels]]
path = 2
level = 5

[[fabric.failures]]
path = 4
at = 500

[flows]
count = 2
`
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	// WHEN loaded
	bundle, err := LoadScenarioBundle(path)

	// THEN TOML keys overlay the defaults like YAML keys do
	require.NoError(t, err)
	assert.Equal(t, int64(11), bundle.Seed)
	assert.Equal(t, multipath.PolicyMixed, bundle.Multipath.Policy)
	require.NotNil(t, bundle.Multipath.MaxPenalty)
	assert.Equal(t, 8, *bundle.Multipath.MaxPenalty)
	assert.Equal(t, int64(6000), bundle.Fabric.BaseRTT)
	assert.Equal(t, DefaultScenario().Fabric.RTO, bundle.Fabric.RTO)
	assert.Equal(t, []PathLevel{{Path: 2, Level: 5}}, bundle.Fabric.BaseLevels)
	assert.Equal(t, []FailureConfig{{Path: 4, At: 500}}, bundle.Fabric.Failures)
	assert.Equal(t, 2, bundle.Flows.Count)
	assert.Equal(t, DefaultScenario().Flows.Packets, bundle.Flows.Packets)
	require.NoError(t, bundle.Validate())
}

func TestLoadScenarioBundle_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte("seed = = 3"), 0o644))
	_, err := LoadScenarioBundle(path)
	assert.Error(t, err)
}

func TestLoadScenarioBundle_NonexistentFile(t *testing.T) {
	_, err := LoadScenarioBundle("/nonexistent/scenario.yaml")
	assert.Error(t, err)
}

func TestLoadScenarioBundle_MalformedYAML(t *testing.T) {
	path := writeTempYAML(t, "{{invalid yaml")
	_, err := LoadScenarioBundle(path)
	assert.Error(t, err)
}

func TestMultipathConfig_SelectorConfig(t *testing.T) {
	// GIVEN every tunable set
	c := MultipathConfig{
		Policy:             multipath.PolicyReps,
		Paths:              32,
		MaxPenalty:         intPtr(9),
		Trimming:           boolPtr(true),
		UseMql:             boolPtr(true),
		BufferSize:         intPtr(64),
		FreezeDuration:     int64Ptr(1000),
		ExploreAfterFreeze: intPtr(4),
	}

	// THEN each is carried into the selector config
	assert.Equal(t, multipath.Config{
		Policy:             multipath.PolicyReps,
		NoOfPaths:          32,
		MaxPenalty:         9,
		Trimming:           true,
		UseMql:             true,
		BufferSize:         64,
		FreezeDuration:     1000,
		ExploreAfterFreeze: 4,
	}, c.SelectorConfig())

	// AND unset tunables select the defaults with trimming on
	assert.Equal(t, multipath.Config{Policy: "ecmp", NoOfPaths: 5, Trimming: true},
		MultipathConfig{Policy: "ecmp", Paths: 5}.SelectorConfig())
}

func TestScenarioBundle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *ScenarioBundle)
		wantErr string
	}{
		{"default is valid", func(b *ScenarioBundle) {}, ""},
		{"zero horizon", func(b *ScenarioBundle) { b.Horizon = 0 }, "horizon"},
		{"unknown policy", func(b *ScenarioBundle) { b.Multipath.Policy = "spray" }, "unknown multipath policy"},
		{"reps without trimming", func(b *ScenarioBundle) {
			b.Multipath.Policy = multipath.PolicyReps
			b.Multipath.Trimming = boolPtr(false)
		}, "trimming"},
		{"unknown trace", func(b *ScenarioBundle) { b.Trace = "verbose" }, "trace level"},
		{"zero rtt", func(b *ScenarioBundle) { b.Fabric.BaseRTT = 0 }, "base_rtt"},
		{"zero rto", func(b *ScenarioBundle) { b.Fabric.RTO = 0 }, "rto"},
		{"negative jitter", func(b *ScenarioBundle) { b.Fabric.Jitter = -1 }, "jitter"},
		{"ecn level too high", func(b *ScenarioBundle) { b.Fabric.ECNLevel = 8 }, "ecn_level"},
		{"zero level step", func(b *ScenarioBundle) { b.Fabric.LevelStep = 0 }, "level_step"},
		{"base level path out of range", func(b *ScenarioBundle) { b.Fabric.BaseLevels = []PathLevel{{Path: 16, Level: 1}} }, "base_levels[0]"},
		{"base level too high", func(b *ScenarioBundle) { b.Fabric.BaseLevels = []PathLevel{{Path: 0, Level: 9}} }, "base_levels[0]"},
		{"failure path out of range", func(b *ScenarioBundle) {
			b.Fabric.Failures = []FailureConfig{{Path: -1}}
		}, "failures[0]"},
		{"no flows", func(b *ScenarioBundle) { b.Flows.Count = 0 }, "count"},
		{"no packets", func(b *ScenarioBundle) { b.Flows.Packets = 0 }, "packets"},
		{"zero cwnd", func(b *ScenarioBundle) { b.Flows.Cwnd = 0 }, "cwnd"},
		{"negative start gap", func(b *ScenarioBundle) { b.Flows.StartGap = -5 }, "start_gap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultScenario()
			tt.mutate(b)
			err := b.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenarioBundle_Validate_WrapsTrimmingSentinel(t *testing.T) {
	b := DefaultScenario()
	b.Multipath.Policy = multipath.PolicyReps
	b.Multipath.Trimming = boolPtr(false)

	assert.ErrorIs(t, b.Validate(), multipath.ErrTrimmingRequired)
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
