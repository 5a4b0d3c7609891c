package internal

import (
	"time"
)

// SchemaVersion is written on every session metadata and step record
const SchemaVersion = 1

// SessionIDPrefix marks directories under the knowledge root that hold sessions
const SessionIDPrefix = "mm-"

// SessionMetadata describes one interactive run. It is written once when the
// session starts and is the only source of truth for the session's tags.
type SessionMetadata struct {
	SchemaVersion int          `json:"schemaVersion" yaml:"schemaVersion"`
	SessionID     string       `json:"sessionId" yaml:"sessionId"`
	CreatedAt     time.Time    `json:"createdAt" yaml:"createdAt"`
	Goal          string       `json:"goal,omitempty" yaml:"goal,omitempty"`
	FlowTags      []string     `json:"flowTags" yaml:"flowTags"`
	Tags          []string     `json:"tags" yaml:"tags"`
	Launch        LaunchConfig `json:"launch" yaml:"launch"`
	Git           *GitInfo     `json:"git,omitempty" yaml:"git,omitempty"`
}

// LaunchConfig records how the application under test was started
type LaunchConfig struct {
	StateMode     string         `json:"stateMode" yaml:"stateMode"` // "default", "onboarding", "custom"
	FixturePreset string         `json:"fixturePreset,omitempty" yaml:"fixturePreset,omitempty"`
	Ports         map[string]int `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// GitInfo is the repository state at write time
type GitInfo struct {
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Dirty  *bool  `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// EnvironmentInfo is the host environment at write time
type EnvironmentInfo struct {
	Platform  string `json:"platform" yaml:"platform"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

// StepRecord is one recorded tool invocation
type StepRecord struct {
	SchemaVersion int              `json:"schemaVersion" yaml:"schemaVersion"`
	Timestamp     time.Time        `json:"timestamp" yaml:"timestamp"`
	SessionID     string           `json:"sessionId" yaml:"sessionId"`
	Environment   *EnvironmentInfo `json:"environment,omitempty" yaml:"environment,omitempty"`
	Git           *GitInfo         `json:"git,omitempty" yaml:"git,omitempty"`
	Tool          StepTool         `json:"tool" yaml:"tool"`
	Timing        StepTiming       `json:"timing" yaml:"timing"`
	Outcome       Outcome          `json:"outcome" yaml:"outcome"`
	Observation   Observation      `json:"observation" yaml:"observation"`
	Labels        []string         `json:"labels" yaml:"labels"`
	Artifacts     *Artifacts       `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// StepTool is the invoked tool with its sanitized input
type StepTool struct {
	Name         string                 `json:"name" yaml:"name"`
	Input        map[string]interface{} `json:"input,omitempty" yaml:"input,omitempty"`
	Target       *Target                `json:"target,omitempty" yaml:"target,omitempty"`
	TextRedacted bool                   `json:"textRedacted,omitempty" yaml:"textRedacted,omitempty"`
	TextLength   *int                   `json:"textLength,omitempty" yaml:"textLength,omitempty"`
}

// StepTiming holds optional timing data
type StepTiming struct {
	DurationMs *int64 `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
}

// Outcome is the result of a step
type Outcome struct {
	OK    bool          `json:"ok" yaml:"ok"`
	Error *OutcomeError `json:"error,omitempty" yaml:"error,omitempty"`
}

// OutcomeError describes a failed step
type OutcomeError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Succeeded returns a successful outcome
func Succeeded() Outcome { return Outcome{OK: true} }

// Failed returns a failed outcome with the given code and message
func Failed(code, message string) Outcome {
	return Outcome{OK: false, Error: &OutcomeError{Code: code, Message: message}}
}

// Observation is the application state snapshot attached to a step
type Observation struct {
	State   ScreenState  `json:"state" yaml:"state"`
	TestIDs []TestIDItem `json:"testIds" yaml:"testIds"`
	A11y    A11ySnapshot `json:"a11y" yaml:"a11y"`
}

// ScreenState is the high-level state of the application under test
type ScreenState struct {
	IsLoaded      bool                   `json:"isLoaded" yaml:"isLoaded"`
	IsUnlocked    bool                   `json:"isUnlocked" yaml:"isUnlocked"`
	CurrentURL    string                 `json:"currentUrl,omitempty" yaml:"currentUrl,omitempty"`
	CurrentScreen string                 `json:"currentScreen,omitempty" yaml:"currentScreen,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

// TestIDItem is one visible element carrying a data-testid
type TestIDItem struct {
	TestID  string `json:"testId" yaml:"testId"`
	Tag     string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	Visible bool   `json:"visible" yaml:"visible"`
}

// A11ySnapshot holds trimmed accessibility nodes
type A11ySnapshot struct {
	Nodes []A11yNode `json:"nodes" yaml:"nodes"`
}

// A11yNode is a trimmed accessibility-tree node
type A11yNode struct {
	Ref  string   `json:"ref" yaml:"ref"`
	Role string   `json:"role" yaml:"role"`
	Name string   `json:"name" yaml:"name"`
	Path []string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Artifacts are files captured alongside a step
type Artifacts struct {
	Screenshot *Screenshot `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
}

// Screenshot references a captured image
type Screenshot struct {
	Path   string `json:"path" yaml:"path"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// DefaultObservation builds an observation with non-nil slices
func DefaultObservation(state ScreenState, testIDs []TestIDItem, nodes []A11yNode) Observation {
	if testIDs == nil {
		testIDs = []TestIDItem{}
	}
	if nodes == nil {
		nodes = []A11yNode{}
	}
	return Observation{State: state, TestIDs: testIDs, A11y: A11ySnapshot{Nodes: nodes}}
}

// Screen returns the step's observed current screen
func (s *StepRecord) Screen() string {
	return s.Observation.State.CurrentScreen
}

// Failed reports whether the step's outcome was a failure
func (s *StepRecord) Failed() bool {
	return !s.Outcome.OK
}

// LoadedStep is a step record together with the file it was read from
type LoadedStep struct {
	Step *StepRecord
	Path string
}

// SessionSummary is the listing projection of SessionMetadata
type SessionSummary struct {
	SessionID string    `json:"sessionId" yaml:"sessionId"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Goal      string    `json:"goal,omitempty" yaml:"goal,omitempty"`
	FlowTags  []string  `json:"flowTags" yaml:"flowTags"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Git       *GitInfo  `json:"git,omitempty" yaml:"git,omitempty"`
}

// StepSummary is the one-line projection of a step returned by queries
type StepSummary struct {
	SessionID string    `json:"sessionId" yaml:"sessionId"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Tool      string    `json:"tool" yaml:"tool"`
	Screen    string    `json:"screen" yaml:"screen"`
	Snippet   string    `json:"snippet" yaml:"snippet"`
}

// RecipeStep is one numbered entry of a session recipe
type RecipeStep struct {
	StepNumber int    `json:"stepNumber" yaml:"stepNumber"`
	Tool       string `json:"tool" yaml:"tool"`
	Notes      string `json:"notes" yaml:"notes"`
}

// SessionRecipe is the summarized form of a session
type SessionRecipe struct {
	SessionID string       `json:"sessionId" yaml:"sessionId"`
	StepCount int          `json:"stepCount" yaml:"stepCount"`
	Recipe    []RecipeStep `json:"recipe" yaml:"recipe"`
}
