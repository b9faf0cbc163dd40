package config

import (
	"fmt"
	"time"
)

// PhaseConfig sets the fixed waits between simulated phase steps.
type PhaseConfig struct {
	ProveStepDelay string `yaml:"prove_step_delay"`
	BroadcastDelay string `yaml:"broadcast_delay"`
	BeamStepDelay  string `yaml:"beam_step_delay"`
}

// GetProveStepDelay returns the wait after each prove step.
func (c PhaseConfig) GetProveStepDelay() time.Duration {
	return parseDuration(c.ProveStepDelay, 600*time.Millisecond)
}

// GetBroadcastDelay returns the single broadcast wait.
func (c PhaseConfig) GetBroadcastDelay() time.Duration {
	return parseDuration(c.BroadcastDelay, 1200*time.Millisecond)
}

// GetBeamStepDelay returns the wait after each beam step.
func (c PhaseConfig) GetBeamStepDelay() time.Duration {
	return parseDuration(c.BeamStepDelay, 800*time.Millisecond)
}

// Validate rejects delays that are set but unparseable or negative.
func (c PhaseConfig) Validate() error {
	for name, v := range map[string]string{
		"prove_step_delay": c.ProveStepDelay,
		"broadcast_delay":  c.BroadcastDelay,
		"beam_step_delay":  c.BeamStepDelay,
	} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("phases.%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("phases.%s must not be negative", name)
		}
	}
	return nil
}
