package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

const (
	sessionMetadataFile = "session.json"
	stepsDirName        = "steps"
	screenshotsDirName  = "screenshots"

	// maxConcurrentLoads bounds parallel per-session step reads
	maxConcurrentLoads = 8
)

// Store is the append-only knowledge store rooted at one directory:
//
//	<root>/<sessionId>/session.json
//	<root>/<sessionId>/steps/<timestamp>-<tool>.json
//	<root>/<sessionId>/screenshots/<timestamp>-<name>.png
//
// Each instance keeps a private metadata cache; a nil entry records that the
// session's metadata is known to be absent or unreadable.
type Store struct {
	root string

	mu        sync.Mutex
	metaCache map[string]*SessionMetadata
	lastStamp time.Time

	now         func() time.Time
	gitInfo     func() *GitInfo
	envInfo     func() *EnvironmentInfo
	priorWindow int
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps and time windows
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithGitInfo overrides git detection for recorded steps
func WithGitInfo(fn func() *GitInfo) StoreOption {
	return func(s *Store) { s.gitInfo = fn }
}

// WithEnvironment overrides the environment attached to recorded steps
func WithEnvironment(fn func() *EnvironmentInfo) StoreOption {
	return func(s *Store) { s.envInfo = fn }
}

// NewStore creates a store rooted at root. Nothing is created on disk until
// the first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root:      root,
		metaCache: make(map[string]*SessionMetadata),
		now:       time.Now,
		gitInfo:   DetectGitInfo,
		envInfo:   CurrentEnvironment,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store's root directory
func (s *Store) Root() string {
	return s.root
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.now()
}

// SessionDir returns the directory holding a session
func (s *Store) SessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// SessionMetadataPath returns the path to a session's metadata file
func (s *Store) SessionMetadataPath(sessionID string) string {
	return filepath.Join(s.root, sessionID, sessionMetadataFile)
}

// StepsDir returns the directory holding a session's step files
func (s *Store) StepsDir(sessionID string) string {
	return filepath.Join(s.root, sessionID, stepsDirName)
}

// WriteSessionMetadata persists metadata (last write wins) and refreshes the
// cache. Missing CreatedAt and SchemaVersion are filled in.
func (s *Store) WriteSessionMetadata(meta *SessionMetadata) (string, error) {
	if meta == nil {
		return "", &ValidationError{Field: "metadata", Reason: "must not be nil"}
	}
	if err := ValidateSessionID(meta.SessionID); err != nil {
		return "", err
	}

	stored := *meta
	if stored.SchemaVersion == 0 {
		stored.SchemaVersion = SchemaVersion
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	if stored.FlowTags == nil {
		stored.FlowTags = []string{}
	}
	if stored.Tags == nil {
		stored.Tags = []string{}
	}

	dir := s.SessionDir(stored.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Path: dir, Op: "mkdir", Err: err}
	}

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return "", &StorageError{Path: stored.SessionID, Op: "marshal", Err: err}
	}

	path := s.SessionMetadataPath(stored.SessionID)
	if err := writeFileSync(path, data, os.O_WRONLY|os.O_CREATE|os.O_TRUNC); err != nil {
		return "", &StorageError{Path: path, Op: "write", Err: err}
	}

	s.mu.Lock()
	s.metaCache[stored.SessionID] = &stored
	s.mu.Unlock()

	LogDebug("wrote session metadata %s", path)
	return path, nil
}

// ReadSessionMetadata returns the session's metadata, serving from the cache
// when possible. Missing or malformed metadata yields (nil, false); that
// result is cached too.
func (s *Store) ReadSessionMetadata(sessionID string) (*SessionMetadata, bool) {
	if ValidateSessionID(sessionID) != nil {
		return nil, false
	}

	s.mu.Lock()
	cached, ok := s.metaCache[sessionID]
	s.mu.Unlock()
	if ok {
		return cached, cached != nil
	}

	meta := s.readMetadataFile(sessionID)

	s.mu.Lock()
	// a concurrent write wins over our read
	if existing, ok := s.metaCache[sessionID]; ok && existing != nil {
		meta = existing
	} else {
		s.metaCache[sessionID] = meta
	}
	s.mu.Unlock()

	return meta, meta != nil
}

func (s *Store) readMetadataFile(sessionID string) *SessionMetadata {
	path := s.SessionMetadataPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			LogWarn("failed to read session metadata %s: %v", path, err)
		}
		return nil
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		LogWarn("skipping malformed session metadata: %v", &ParseError{Source: "session", Key: path, Err: err})
		return nil
	}
	return &meta
}

// GetAllSessionIDs lists session directories under the root in lexicographic
// (creation) order. A missing root yields an empty list.
func (s *Store) GetAllSessionIDs() []string {
	ids := []string{}
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return ids
	}

	matches, err := doublestar.Glob(os.DirFS(s.root), SessionIDPrefix+"*")
	if err != nil {
		LogWarn("failed to list sessions under %s: %v", s.root, err)
		return ids
	}
	for _, name := range matches {
		fi, err := os.Stat(filepath.Join(s.root, name))
		if err != nil || !fi.IsDir() {
			continue
		}
		ids = append(ids, name)
	}
	sort.Strings(ids)
	return ids
}

// MatchSessionIDs returns the session ids matching a glob pattern such as
// "mm-2026-03-*"
func (s *Store) MatchSessionIDs(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, &ValidationError{Field: "pattern", Reason: fmt.Sprintf("%q is not a valid glob", pattern)}
	}
	var matched []string
	for _, id := range s.GetAllSessionIDs() {
		if ok, _ := doublestar.Match(pattern, id); ok {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// ListSessions returns up to limit sessions passing filters, newest first.
// Sessions without readable metadata are left out.
func (s *Store) ListSessions(limit int, filters *Filters) ([]SessionSummary, error) {
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var sessions []SessionSummary
	for _, id := range s.GetAllSessionIDs() {
		meta, ok := s.ReadSessionMetadata(id)
		if !ok || !filters.MatchesSession(meta, now) {
			continue
		}
		sessions = append(sessions, summarizeMetadata(meta))
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func summarizeMetadata(meta *SessionMetadata) SessionSummary {
	summary := SessionSummary{
		SessionID: meta.SessionID,
		CreatedAt: meta.CreatedAt,
		Goal:      meta.Goal,
		FlowTags:  meta.FlowTags,
		Tags:      meta.Tags,
	}
	if meta.Git != nil {
		summary.Git = &GitInfo{Branch: meta.Git.Branch, Commit: meta.Git.Commit}
	}
	return summary
}

// RecordStepParams are the caller-supplied fields of a step
type RecordStepParams struct {
	SessionID   string
	ToolName    string
	Input       map[string]interface{}
	Target      *Target
	Outcome     Outcome
	Observation Observation
	DurationMs  *int64
	Screenshot  *Screenshot
}

// RecordStep sanitizes, labels and persists one step as a new file. It never
// overwrites an existing step file.
func (s *Store) RecordStep(params RecordStepParams) (string, error) {
	if err := ValidateSessionID(params.SessionID); err != nil {
		return "", err
	}
	if strings.TrimSpace(params.ToolName) == "" {
		return "", &ValidationError{Field: "toolName", Reason: "must not be empty"}
	}
	if params.Target != nil && params.Target.IsZero() {
		return "", &ValidationError{Field: "target", Reason: "must name a testId, a11yRef or selector"}
	}

	ts := s.nextTimestamp()
	sanitized := SanitizeInput(params.ToolName, params.Input, params.Target)

	step := &StepRecord{
		SchemaVersion: SchemaVersion,
		Timestamp:     ts,
		SessionID:     params.SessionID,
		Environment:   s.envInfo(),
		Git:           s.gitInfo(),
		Tool: StepTool{
			Name:         params.ToolName,
			Input:        sanitized.Input,
			Target:       params.Target,
			TextRedacted: sanitized.TextRedacted,
			TextLength:   sanitized.TextLength,
		},
		Timing:      StepTiming{DurationMs: params.DurationMs},
		Outcome:     params.Outcome,
		Observation: params.Observation,
		Labels:      ComputeLabels(params.ToolName, params.Target, &params.Outcome),
	}
	if params.Screenshot != nil && params.Screenshot.Path != "" {
		shot := *params.Screenshot
		step.Artifacts = &Artifacts{Screenshot: &shot}
	}

	data, err := json.MarshalIndent(step, "", "  ")
	if err != nil {
		return "", &StorageError{Path: params.SessionID, Op: "marshal", Err: err}
	}

	dir := s.StepsDir(params.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Path: dir, Op: "mkdir", Err: err}
	}

	stamp := FilesafeTimestamp(ts)
	for seq := 0; ; seq++ {
		// the sequence sits before the tool name so that same-instant writes
		// sort in write order whatever tool recorded them
		prefix := fmt.Sprintf("%s-%03d-", stamp, seq)
		if stepPrefixTaken(dir, prefix) {
			continue
		}
		path := filepath.Join(dir, prefix+fileSafeName(params.ToolName)+".json")
		err := writeFileSync(path, data, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
		if err == nil {
			LogDebug("recorded step %s", path)
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", &StorageError{Path: path, Op: "create", Err: err}
		}
	}
}

// stepPrefixTaken reports whether any step file in dir starts with prefix
func stepPrefixTaken(dir, prefix string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			return true
		}
	}
	return false
}

// nextTimestamp returns the current time, bumped so that it is strictly after
// every timestamp this instance handed out before
func (s *Store) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UTC()
	if !ts.After(s.lastStamp) {
		ts = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = ts
	return ts
}

// LoadSessionSteps reads every step file of a session in chronological
// order. Unparsable files are logged and skipped; a missing session yields
// an empty list.
func (s *Store) LoadSessionSteps(sessionID string) ([]LoadedStep, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.loadSteps(sessionID), nil
}

func (s *Store) loadSteps(sessionID string) []LoadedStep {
	steps := []LoadedStep{}
	dir := s.StepsDir(sessionID)
	if _, err := os.Stat(dir); err != nil {
		return steps
	}

	names, err := doublestar.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		LogWarn("failed to list steps in %s: %v", dir, err)
		return steps
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			LogWarn("failed to read step %s: %v", path, err)
			continue
		}
		var step StepRecord
		if err := json.Unmarshal(data, &step); err != nil {
			LogWarn("skipping malformed step: %v", &ParseError{Source: "step", Key: path, Err: err})
			continue
		}
		steps = append(steps, LoadedStep{Step: &step, Path: path})
	}
	return steps
}

// loadManySteps loads the steps of several sessions concurrently. The result
// keeps the order of sessionIDs, then file order within each session.
func (s *Store) loadManySteps(sessionIDs []string) []LoadedStep {
	perSession := make([][]LoadedStep, len(sessionIDs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentLoads)
	for i, id := range sessionIDs {
		g.Go(func() error {
			if ValidateSessionID(id) != nil {
				return nil
			}
			perSession[i] = s.loadSteps(id)
			return nil
		})
	}
	_ = g.Wait()

	var all []LoadedStep
	for _, steps := range perSession {
		all = append(all, steps...)
	}
	return all
}

// ResolveSessionIDs turns a scope into concrete session ids. For the "all"
// scope, sessions whose metadata cannot be read are kept.
func (s *Store) ResolveSessionIDs(scope Scope, currentSessionID string, filters *Filters) ([]string, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	switch scope.Kind {
	case ScopeCurrent:
		if currentSessionID == "" {
			return []string{}, nil
		}
		if err := ValidateSessionID(currentSessionID); err != nil {
			return nil, err
		}
		return []string{currentSessionID}, nil
	case ScopeSession:
		return []string{scope.SessionID}, nil
	}

	all := s.GetAllSessionIDs()
	if !filters.hasSessionConstraints() {
		return all, nil
	}
	now := s.now()
	ids := make([]string, 0, len(all))
	for _, id := range all {
		meta, ok := s.ReadSessionMetadata(id)
		if !ok || filters.MatchesSession(meta, now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SaveScreenshot writes PNG data under the session's screenshots directory
// and returns its path
func (s *Store) SaveScreenshot(sessionID, name string, data []byte) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	dir := filepath.Join(s.SessionDir(sessionID), screenshotsDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Path: dir, Op: "mkdir", Err: err}
	}

	path := filepath.Join(dir, FilesafeTimestamp(s.nextTimestamp())+"-"+fileSafeName(name)+".png")
	if err := writeFileSync(path, data, os.O_WRONLY|os.O_CREATE|os.O_EXCL); err != nil {
		return "", &StorageError{Path: path, Op: "write", Err: err}
	}
	return path, nil
}

// fileSafeName replaces characters that are awkward in file names
func fileSafeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

// writeFileSync writes data and fsyncs before returning
func writeFileSync(path string, data []byte, flag int) error {
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
