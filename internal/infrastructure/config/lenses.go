// Package config loads the workspace lens configuration from .revu/lenses.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
	"github.com/felixgeelhaar/revu/pkg/storage"
)

// RunDefaults holds the workspace-level bounds applied when a run does not
// override them on the command line.
type RunDefaults struct {
	GlobalDeadlineSeconds int `yaml:"global_deadline_seconds,omitempty"`
	PerTaskTimeoutSeconds int `yaml:"per_task_timeout_seconds,omitempty"`
	MaxConcurrency        int `yaml:"max_concurrency,omitempty"`
	MinRequiredSuccesses  int `yaml:"min_required_successes,omitempty"`
}

// Options converts the defaults to run options.
func (d RunDefaults) Options() review.RunOptions {
	return review.RunOptions{
		GlobalDeadline:       time.Duration(d.GlobalDeadlineSeconds) * time.Second,
		PerTaskTimeout:       time.Duration(d.PerTaskTimeoutSeconds) * time.Second,
		MaxConcurrency:       d.MaxConcurrency,
		MinRequiredSuccesses: d.MinRequiredSuccesses,
	}
}

// LensesConfig is the workspace lens roster plus clustering policy.
type LensesConfig struct {
	Lenses     []review.LensConfig  `yaml:"lenses"`
	Categories []string             `yaml:"categories,omitempty"`
	Policy     review.ClusterPolicy `yaml:"policy,omitempty"`
	Defaults   RunDefaults          `yaml:"defaults,omitempty"`
}

func configPath(root string) string {
	return filepath.Join(root, storage.RevuDir, storage.LensesFile)
}

// LoadLensesConfig reads .revu/lenses.yaml. A missing file yields nil without
// error so callers can distinguish "not configured" from a broken file.
func LoadLensesConfig(root string) (*LensesConfig, error) {
	data, err := os.ReadFile(configPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lens config: %w", err)
	}

	var cfg LensesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lens config: %w", err)
	}

	return &cfg, nil
}

// SaveLensesConfig writes the lens roster back to the workspace.
func SaveLensesConfig(root string, cfg *LensesConfig) error {
	if cfg == nil {
		return fmt.Errorf("lens config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal lens config: %w", err)
	}

	return os.WriteFile(configPath(root), data, 0600)
}

// DefaultLensesConfig seeds a new workspace with a runnable example roster.
// The mock plugin ships with revu; the exec lens shows the command form.
func DefaultLensesConfig() *LensesConfig {
	return &LensesConfig{
		Lenses: []review.LensConfig{
			{ID: "usability", Category: "usability", Plugin: "revu-lens-mock"},
			{ID: "accessibility", Category: "accessibility", Plugin: "revu-lens-mock"},
			{ID: "duplication", Category: "duplication", Command: []string{"echo", "[]"}},
		},
		Categories: []string{"usability", "accessibility", "duplication", "gap"},
		Policy: review.ClusterPolicy{
			CategoryCompatibility: map[string][]string{
				"usability": {"accessibility"},
			},
		},
		Defaults: RunDefaults{
			GlobalDeadlineSeconds: 600,
			PerTaskTimeoutSeconds: 120,
			MaxConcurrency:        4,
			MinRequiredSuccesses:  1,
		},
	}
}
