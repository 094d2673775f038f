package config

import (
	"time"

	"github.com/BaSui01/swarmflow/delegation"
	"github.com/BaSui01/swarmflow/evaluation"
	"github.com/BaSui01/swarmflow/persistence"
)

// DefaultConfig returns the complete default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tree: TreeConfig{
			Source: "file",
			Path:   "swarm.yaml",
			Tenant: "default",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "swarmflow.db",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Delegation: DelegationConfig{
			MaxFailuresPerWorker: 2,
			MaxDepth:             4,
			MaxGlobalFailures:    5,
			PerCallTimeout:       2 * time.Minute,
			MaxSteps:             256,
		},
		Evaluation: EvaluationConfig{
			AcceptanceThreshold: 7,
			ScoreMin:            1,
			ScoreMax:            10,
			JudgeModel:          "gpt-4",
			JudgeTimeout:        60 * time.Second,
		},
		Events: EventsConfig{
			Backend:   "memory",
			KeyPrefix: "swarmflow:",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "swarmflow",
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
	}
}

// AsDelegation converts to the control loop's own config type.
func (c DelegationConfig) AsDelegation() delegation.Config {
	return delegation.Config{
		Limits: delegation.Limits{
			MaxFailuresPerWorker: c.MaxFailuresPerWorker,
			MaxDepth:             c.MaxDepth,
			MaxGlobalFailures:    c.MaxGlobalFailures,
		},
		PerCallTimeout: c.PerCallTimeout,
		MaxSteps:       c.MaxSteps,
	}
}

// AsGate converts to the quality gate's config type.
func (c EvaluationConfig) AsGate() evaluation.GateConfig {
	return evaluation.GateConfig{
		AcceptanceThreshold: c.AcceptanceThreshold,
		ScoreMin:            c.ScoreMin,
		ScoreMax:            c.ScoreMax,
	}
}

// AsJudge converts to the LLM judge's config type.
func (c EvaluationConfig) AsJudge() evaluation.LLMJudgeConfig {
	return evaluation.LLMJudgeConfig{
		Model:    c.JudgeModel,
		ScoreMin: c.ScoreMin,
		ScoreMax: c.ScoreMax,
		Timeout:  c.JudgeTimeout,
	}
}

// EventStoreConfig assembles the persistence backend selection.
func (c *Config) EventStoreConfig() persistence.StoreConfig {
	return persistence.StoreConfig{
		Type: persistence.StoreType(c.Events.Backend),
		Redis: persistence.RedisStoreConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			PoolSize:  c.Redis.PoolSize,
			KeyPrefix: c.Events.KeyPrefix,
			TTL:       c.Events.TTL,
		},
	}
}
