package master

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig is the configuration section of a dedup run report.
type RunConfig struct {
	Command    string   `yaml:"command"`
	MasterPath string   `yaml:"master_path"`
	Inputs     []string `yaml:"inputs"`
	Timestamp  string   `yaml:"timestamp"`
}

// RunReport is the full YAML report written after a dedup run: the run
// configuration, the per-record decisions, the pending review queue, and
// the summary counts.
type RunReport struct {
	Config    RunConfig  `yaml:"config"`
	Summary   Counts     `yaml:"summary"`
	Decisions []Decision `yaml:"decisions"`
	Reviews   []Review   `yaml:"reviews,omitempty"`
}

// NewRunReport assembles a report from a finished service run.
func NewRunReport(command, masterPath string, inputs []string, svc *Service) RunReport {
	return RunReport{
		Config: RunConfig{
			Command:    command,
			MasterPath: masterPath,
			Inputs:     inputs,
			Timestamp:  time.Now().Format("2006-01-02_15-04-05"),
		},
		Summary:   svc.Counts(),
		Decisions: svc.Decisions(),
		Reviews:   svc.Reviews().All(),
	}
}

// Save writes the report as YAML.
func (r RunReport) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
