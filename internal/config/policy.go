package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy is the YAML shape of an optional detection policy file. All fields
// are optional; anything left unset falls through to environment variables
// and built-in defaults. Durations use Go syntax ("720h", "24h").
type Policy struct {
	Timezone            string   `yaml:"timezone"`
	HistoricalWindow    string   `yaml:"historical_window"`
	RecentWindow        string   `yaml:"recent_window"`
	MinActivity         *int     `yaml:"min_activity"`
	DeviationMultiplier *float64 `yaml:"deviation_multiplier"`
	QueryType           string   `yaml:"query_type"`
	QueryStatus         string   `yaml:"query_status"`
	SystemAccounts      []string `yaml:"system_accounts"`
	Schedule            string   `yaml:"schedule"`
	Sinks               []string `yaml:"sinks"`
}

// LoadPolicyFile reads and parses a detection policy file. Unknown fields
// are rejected so typos fail loudly instead of being silently ignored.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var p Policy
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return &p, nil
}

// apply copies the policy's set fields onto cfg. Callers apply the policy
// before reading environment variables so the environment wins.
func (p *Policy) apply(cfg *Config) error {
	if p.Timezone != "" {
		cfg.Detection.Timezone = p.Timezone
	}
	if p.HistoricalWindow != "" {
		d, err := time.ParseDuration(p.HistoricalWindow)
		if err != nil {
			return fmt.Errorf("policy historical_window: %w", err)
		}
		cfg.Detection.HistoricalWindow = d
	}
	if p.RecentWindow != "" {
		d, err := time.ParseDuration(p.RecentWindow)
		if err != nil {
			return fmt.Errorf("policy recent_window: %w", err)
		}
		cfg.Detection.RecentWindow = d
	}
	if p.MinActivity != nil {
		cfg.Detection.MinActivity = *p.MinActivity
	}
	if p.DeviationMultiplier != nil {
		cfg.Detection.DeviationMultiplier = *p.DeviationMultiplier
	}
	if p.QueryType != "" {
		cfg.Detection.QueryType = p.QueryType
	}
	if p.QueryStatus != "" {
		cfg.Detection.QueryStatus = p.QueryStatus
	}
	if len(p.SystemAccounts) > 0 {
		cfg.Detection.SystemAccounts = compactNonEmpty(p.SystemAccounts)
	}
	if p.Schedule != "" {
		cfg.Detection.Schedule = p.Schedule
	}
	if len(p.Sinks) > 0 {
		cfg.Sinks = compactNonEmpty(p.Sinks)
	}
	return nil
}
