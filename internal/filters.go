package internal

import (
	"fmt"
	"slices"
	"time"
)

// Filters narrows queries. Every non-zero field is a constraint and all
// constraints must hold; zero fields impose nothing.
//
//   - FlowTag: must be one of the session's flow tags
//   - Tag: must be one of the session's tags
//   - GitBranch: must equal the session's recorded branch
//   - SinceHours: the session must have been created within that many hours
//   - Screen: step-level; the step's observed screen must equal it
//
// Screen only applies to step queries (last, search); session-level
// matching ignores it.
type Filters struct {
	FlowTag    string `json:"flowTag,omitempty" yaml:"flowTag,omitempty"`
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
	GitBranch  string `json:"gitBranch,omitempty" yaml:"gitBranch,omitempty"`
	SinceHours int    `json:"sinceHours,omitempty" yaml:"sinceHours,omitempty"`
	Screen     string `json:"screen,omitempty" yaml:"screen,omitempty"`
}

// MaxSinceHours bounds the time window a caller may request (30 days)
const MaxSinceHours = 720

// Validate rejects structurally invalid filters
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}
	if f.SinceHours < 0 || f.SinceHours > MaxSinceHours {
		return &ValidationError{Field: "sinceHours", Reason: fmt.Sprintf("must be 0 (unset) or between 1 and %d", MaxSinceHours)}
	}
	return nil
}

// MatchesSession reports whether the session satisfies every session-level constraint
func (f *Filters) MatchesSession(meta *SessionMetadata, now time.Time) bool {
	if f == nil {
		return true
	}
	if f.FlowTag != "" && !slices.Contains(meta.FlowTags, f.FlowTag) {
		return false
	}
	if f.Tag != "" && !slices.Contains(meta.Tags, f.Tag) {
		return false
	}
	if f.GitBranch != "" && (meta.Git == nil || meta.Git.Branch != f.GitBranch) {
		return false
	}
	if f.SinceHours > 0 {
		cutoff := now.Add(-time.Duration(f.SinceHours) * time.Hour)
		if meta.CreatedAt.Before(cutoff) {
			return false
		}
	}
	return true
}

// MatchesStep reports whether the step satisfies the step-level constraints
func (f *Filters) MatchesStep(step *StepRecord) bool {
	if f == nil {
		return true
	}
	if f.Screen != "" && step.Screen() != f.Screen {
		return false
	}
	return true
}

// hasSessionConstraints reports whether any session-level field is set
func (f *Filters) hasSessionConstraints() bool {
	return f != nil && (f.FlowTag != "" || f.Tag != "" || f.GitBranch != "" || f.SinceHours > 0)
}
