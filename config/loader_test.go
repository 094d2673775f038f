package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Delegation.MaxFailuresPerWorker)
	assert.Equal(t, 4, cfg.Delegation.MaxDepth)
	assert.Equal(t, 5, cfg.Delegation.MaxGlobalFailures)
	assert.Equal(t, 7.0, cfg.Evaluation.AcceptanceThreshold)
	assert.Equal(t, "memory", cfg.Events.Backend)
}

func TestLoadFromFile(t *testing.T) {
	doc := `
tree:
  source: file
  path: /etc/swarmflow/tree.yaml
  tenant: bistro
delegation:
  max_depth: 6
  per_call_timeout: 30s
evaluation:
  acceptance_threshold: 8
log:
  level: debug
  format: console
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "bistro", cfg.Tree.Tenant)
	assert.Equal(t, 6, cfg.Delegation.MaxDepth)
	assert.Equal(t, 30*time.Second, cfg.Delegation.PerCallTimeout)
	assert.Equal(t, 8.0, cfg.Evaluation.AcceptanceThreshold)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 2, cfg.Delegation.MaxFailuresPerWorker)
	assert.Equal(t, "memory", cfg.Events.Backend)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Delegation, cfg.Delegation)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SWARMFLOW_TREE_TENANT", "globex")
	t.Setenv("SWARMFLOW_DELEGATION_MAX_DEPTH", "8")
	t.Setenv("SWARMFLOW_DELEGATION_PER_CALL_TIMEOUT", "45s")
	t.Setenv("SWARMFLOW_EVALUATION_ACCEPTANCE_THRESHOLD", "6.5")
	t.Setenv("SWARMFLOW_METRICS_ENABLED", "false")
	t.Setenv("SWARMFLOW_LOG_OUTPUT_PATHS", "stdout, /var/log/swarmflow.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "globex", cfg.Tree.Tenant)
	assert.Equal(t, 8, cfg.Delegation.MaxDepth)
	assert.Equal(t, 45*time.Second, cfg.Delegation.PerCallTimeout)
	assert.Equal(t, 6.5, cfg.Evaluation.AcceptanceThreshold)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"stdout", "/var/log/swarmflow.log"}, cfg.Log.OutputPaths)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	doc := "tree:\n  tenant: from-file\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("SWARMFLOW_TREE_TENANT", "from-env")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Tree.Tenant)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown tree source", func(c *Config) { c.Tree.Source = "carrier-pigeon" }},
		{"file source without path", func(c *Config) { c.Tree.Path = "" }},
		{"database source without dsn", func(c *Config) {
			c.Tree.Source = "database"
			c.Database.DSN = ""
		}},
		{"redis events without addr", func(c *Config) {
			c.Events.Backend = "redis"
			c.Redis.Addr = ""
		}},
		{"unknown events backend", func(c *Config) { c.Events.Backend = "tape" }},
		{"empty score range", func(c *Config) { c.Evaluation.ScoreMax = c.Evaluation.ScoreMin }},
		{"threshold outside range", func(c *Config) { c.Evaluation.AcceptanceThreshold = 42 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCustomValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			if c.Tree.Tenant == "default" {
				return assert.AnError
			}
			return nil
		}).
		Load()
	require.Error(t, err)
}

func TestMustLoad(t *testing.T) {
	doc := "tree:\n  tenant: bistro\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := MustLoad(path)
	assert.Equal(t, "bistro", cfg.Tree.Tenant)
}

func TestMustLoadPanicsOnBadConfig(t *testing.T) {
	doc := "tree:\n  source: carrier-pigeon\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	assert.Panics(t, func() { MustLoad(path) })
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()

	d := cfg.Delegation.AsDelegation()
	assert.Equal(t, 2, d.Limits.MaxFailuresPerWorker)
	assert.Equal(t, 4, d.Limits.MaxDepth)
	assert.Equal(t, 256, d.MaxSteps)

	g := cfg.Evaluation.AsGate()
	assert.Equal(t, 7.0, g.AcceptanceThreshold)

	j := cfg.Evaluation.AsJudge()
	assert.Equal(t, "gpt-4", j.Model)

	s := cfg.EventStoreConfig()
	assert.Equal(t, "memory", string(s.Type))
	assert.Equal(t, "swarmflow:", s.Redis.KeyPrefix)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "verbose"})
	require.Error(t, err)

	_, err = NewLogger(LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}
