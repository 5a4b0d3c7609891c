package internal

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// HealthReport summarizes the state of a knowledge root
type HealthReport struct {
	Root            string   `json:"root" yaml:"root"`
	RootExists      bool     `json:"rootExists" yaml:"rootExists"`
	Sessions        int      `json:"sessions" yaml:"sessions"`
	MissingMetadata []string `json:"missingMetadata,omitempty" yaml:"missingMetadata,omitempty"`
	Steps           int      `json:"steps" yaml:"steps"`
	MalformedSteps  []string `json:"malformedSteps,omitempty" yaml:"malformedSteps,omitempty"`
	StrayFiles      []string `json:"strayFiles,omitempty" yaml:"strayFiles,omitempty"`
	LatestSessionID string   `json:"latestSessionId,omitempty" yaml:"latestSessionId,omitempty"`
}

// Healthy reports whether every session and step could be read
func (r *HealthReport) Healthy() bool {
	return r.RootExists && len(r.MissingMetadata) == 0 && len(r.MalformedSteps) == 0
}

// CheckHealth walks the root and reports sessions without readable metadata,
// step files that do not decode, and non-JSON files in steps directories.
// It bypasses the metadata cache so it always reflects the disk.
func (s *Store) CheckHealth() *HealthReport {
	report := &HealthReport{Root: s.root}
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return report
	}
	report.RootExists = true

	ids := s.GetAllSessionIDs()
	report.Sessions = len(ids)
	if len(ids) > 0 {
		report.LatestSessionID = ids[len(ids)-1]
	}

	for _, id := range ids {
		if s.readMetadataFile(id) == nil {
			report.MissingMetadata = append(report.MissingMetadata, id)
		}

		dir := s.StepsDir(id)
		names, err := doublestar.Glob(os.DirFS(dir), "*")
		if err != nil {
			continue
		}
		for _, name := range names {
			path := filepath.Join(dir, name)
			if filepath.Ext(name) != ".json" {
				report.StrayFiles = append(report.StrayFiles, path)
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				report.MalformedSteps = append(report.MalformedSteps, path)
				continue
			}
			var step StepRecord
			if err := json.Unmarshal(data, &step); err != nil {
				report.MalformedSteps = append(report.MalformedSteps, path)
				continue
			}
			report.Steps++
		}
	}
	return report
}
