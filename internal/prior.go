package internal

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
)

// DefaultPriorWindowHours is the look-back window for prior knowledge
const DefaultPriorWindowHours = 48

// Similarity weights and caps
const (
	similarScreen        = 8
	similarURLToken      = 6
	similarVisibleID     = 3
	similarVisibleIDCap  = 3
	similarA11yName      = 2
	similarA11yNameCap   = 2
	similarActionable    = 2
	similarConfidenceMax = 20.0

	maxRelatedSessions = 5
	maxSimilarSteps    = 10
	maxSuggestions     = 5
	maxFallbacks       = 2
	maxAvoid           = 5
	minAvoidFailures   = 2
)

// actionVerbs maps actionable tools to the verb a caller should perform
var actionVerbs = map[string]string{
	"click":                 "click",
	"type":                  "type",
	"wait_for":              "wait_for",
	"navigate":              "navigate",
	"wait_for_notification": "wait_for_notification",
}

var hexSegment = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

// PriorContext is the caller's live situation
type PriorContext struct {
	CurrentScreen  string     `json:"currentScreen,omitempty" yaml:"currentScreen,omitempty"`
	CurrentURL     string     `json:"currentUrl,omitempty" yaml:"currentUrl,omitempty"`
	VisibleTestIDs []string   `json:"visibleTestIds,omitempty" yaml:"visibleTestIds,omitempty"`
	A11yNodes      []A11yNode `json:"a11yNodes,omitempty" yaml:"a11yNodes,omitempty"`
	FlowTags       []string   `json:"flowTags,omitempty" yaml:"flowTags,omitempty"`
}

// PriorKnowledge is computed per request and never persisted
type PriorKnowledge struct {
	SchemaVersion        int               `json:"schemaVersion" yaml:"schemaVersion"`
	GeneratedAt          time.Time         `json:"generatedAt" yaml:"generatedAt"`
	Query                PriorQuery        `json:"query" yaml:"query"`
	RelatedSessions      []SessionSummary  `json:"relatedSessions" yaml:"relatedSessions"`
	SimilarSteps         []SimilarStep     `json:"similarSteps" yaml:"similarSteps"`
	SuggestedNextActions []SuggestedAction `json:"suggestedNextActions" yaml:"suggestedNextActions"`
	Avoid                []AvoidEntry      `json:"avoid" yaml:"avoid"`
}

// PriorQuery records the parameters a PriorKnowledge result was computed with
type PriorQuery struct {
	WindowHours       int     `json:"windowHours" yaml:"windowHours"`
	Filters           Filters `json:"filters" yaml:"filters"`
	CurrentScreen     string  `json:"currentScreen,omitempty" yaml:"currentScreen,omitempty"`
	CandidateSessions int     `json:"candidateSessions" yaml:"candidateSessions"`
	CandidateSteps    int     `json:"candidateSteps" yaml:"candidateSteps"`
}

// SimilarStep is a historical step ranked against the live context
type SimilarStep struct {
	StepSummary `yaml:",inline"`
	Target      *Target `json:"target,omitempty" yaml:"target,omitempty"`
	OK          bool    `json:"ok" yaml:"ok"`
	Score       int     `json:"score" yaml:"score"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
}

// SuggestedAction is a ranked recommendation for the next step
type SuggestedAction struct {
	Rank            int      `json:"rank" yaml:"rank"`
	Action          string   `json:"action" yaml:"action"`
	PreferredTarget Target   `json:"preferredTarget" yaml:"preferredTarget"`
	FallbackTargets []Target `json:"fallbackTargets,omitempty" yaml:"fallbackTargets,omitempty"`
	Rationale       string   `json:"rationale" yaml:"rationale"`
	Confidence      float64  `json:"confidence" yaml:"confidence"`
}

// AvoidEntry is a target that failed repeatedly on the current screen
type AvoidEntry struct {
	Target    Target `json:"target" yaml:"target"`
	ErrorCode string `json:"errorCode,omitempty" yaml:"errorCode,omitempty"`
	Frequency int    `json:"frequency" yaml:"frequency"`
}

// WithPriorWindow overrides the prior-knowledge look-back window
func WithPriorWindow(hours int) StoreOption {
	return func(s *Store) {
		if hours > 0 {
			s.priorWindow = hours
		}
	}
}

// GeneratePriorKnowledge ranks what happened in other recent sessions against
// pc. It returns nil when there is no history to draw on.
//
// Only the first flow tag narrows the candidate sessions. When pc carries no
// flow tags, those of the current session's metadata are used.
func (s *Store) GeneratePriorKnowledge(pc PriorContext, currentSessionID string) (*PriorKnowledge, error) {
	if currentSessionID != "" {
		if err := ValidateSessionID(currentSessionID); err != nil {
			return nil, err
		}
	}

	flowTags := pc.FlowTags
	if len(flowTags) == 0 && currentSessionID != "" {
		if meta, ok := s.ReadSessionMetadata(currentSessionID); ok {
			flowTags = meta.FlowTags
		}
	}

	filters := Filters{SinceHours: s.priorWindowHours()}
	if len(flowTags) > 0 {
		filters.FlowTag = flowTags[0]
	}

	ids, err := s.ResolveSessionIDs(AllScope(), "", &filters)
	if err != nil {
		return nil, err
	}
	candidates := slices.DeleteFunc(ids, func(id string) bool { return id == currentSessionID })
	if len(candidates) == 0 {
		return nil, nil
	}

	now := s.now()
	related := s.relatedSessions(candidates, &filters, now)
	steps := s.loadManySteps(candidates)
	similar := rankSimilarSteps(steps, pc)
	suggested := suggestActions(similar, pc)
	avoid := avoidList(steps, pc.CurrentScreen)

	if len(related) == 0 && len(similar) == 0 && len(suggested) == 0 {
		return nil, nil
	}

	LogDebug("prior knowledge: %d sessions, %d steps, %d similar", len(candidates), len(steps), len(similar))

	return &PriorKnowledge{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   now.UTC(),
		Query: PriorQuery{
			WindowHours:       filters.SinceHours,
			Filters:           filters,
			CurrentScreen:     pc.CurrentScreen,
			CandidateSessions: len(candidates),
			CandidateSteps:    len(steps),
		},
		RelatedSessions:      related,
		SimilarSteps:         similar,
		SuggestedNextActions: suggested,
		Avoid:                avoid,
	}, nil
}

func (s *Store) priorWindowHours() int {
	if s.priorWindow > 0 {
		return s.priorWindow
	}
	return DefaultPriorWindowHours
}

// relatedSessions projects up to maxRelatedSessions candidates, in store
// order, whose metadata is readable and passes filters
func (s *Store) relatedSessions(candidates []string, filters *Filters, now time.Time) []SessionSummary {
	related := []SessionSummary{}
	for _, id := range candidates {
		if len(related) == maxRelatedSessions {
			break
		}
		meta, ok := s.ReadSessionMetadata(id)
		if !ok || !filters.MatchesSession(meta, now) {
			continue
		}
		related = append(related, summarizeMetadata(meta))
	}
	return related
}

// rankSimilarSteps scores every non-discovery step against pc and keeps the top ones
func rankSimilarSteps(steps []LoadedStep, pc PriorContext) []SimilarStep {
	ctxURLTokens := URLPathTokens(pc.CurrentURL)
	ctxVisible := toSet(pc.VisibleTestIDs)
	ctxNames := make(map[string]struct{}, len(pc.A11yNodes))
	for _, n := range pc.A11yNodes {
		if n.Name != "" {
			ctxNames[strings.ToLower(n.Name)] = struct{}{}
		}
	}

	similar := []SimilarStep{}
	for _, ls := range steps {
		step := ls.Step
		if IsDiscoveryTool(step.Tool.Name) {
			continue
		}
		score := similarityScore(step, pc.CurrentScreen, ctxURLTokens, ctxVisible, ctxNames)
		if score == 0 {
			continue
		}
		similar = append(similar, SimilarStep{
			StepSummary: SummarizeStep(step),
			Target:      step.Tool.Target,
			OK:          step.Outcome.OK,
			Score:       score,
			Confidence:  math.Min(float64(score)/similarConfidenceMax, 1),
		})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Score > similar[j].Score
	})
	if len(similar) > maxSimilarSteps {
		similar = similar[:maxSimilarSteps]
	}
	return similar
}

func similarityScore(step *StepRecord, screen string, urlTokens []string, visible, names map[string]struct{}) int {
	score := 0

	if screen != "" && step.Screen() == screen {
		score += similarScreen
	}

	if len(urlTokens) > 0 {
		for _, tok := range URLPathTokens(step.Observation.State.CurrentURL) {
			if slices.Contains(urlTokens, tok) {
				score += similarURLToken
				break
			}
		}
	}

	matched := 0
	seen := make(map[string]struct{})
	for _, item := range step.Observation.TestIDs {
		if matched == similarVisibleIDCap {
			break
		}
		if _, dup := seen[item.TestID]; dup {
			continue
		}
		seen[item.TestID] = struct{}{}
		if _, ok := visible[item.TestID]; ok {
			score += similarVisibleID
			matched++
		}
	}

	matched = 0
	seen = make(map[string]struct{})
	for _, node := range step.Observation.A11y.Nodes {
		if matched == similarA11yNameCap {
			break
		}
		name := strings.ToLower(node.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := names[name]; ok {
			score += similarA11yName
			matched++
		}
	}

	if _, ok := actionVerbs[canonicalToolName(step.Tool.Name)]; ok {
		score += similarActionable
	}

	return score
}

// URLPathTokens returns the "/"-separated segments of a URL's hash fragment,
// without empty and hex-address segments. "#/send/0xabc/amount?x=1" yields
// [send amount].
func URLPathTokens(rawURL string) []string {
	i := strings.IndexByte(rawURL, '#')
	if i < 0 {
		return nil
	}
	fragment := rawURL[i+1:]
	if q := strings.IndexByte(fragment, '?'); q >= 0 {
		fragment = fragment[:q]
	}

	var tokens []string
	for _, seg := range strings.Split(fragment, "/") {
		if seg == "" || hexSegment.MatchString(seg) {
			continue
		}
		tokens = append(tokens, seg)
	}
	return tokens
}

type actionGroup struct {
	key        string
	target     Target
	tool       string
	count      int
	confidence float64
}

// suggestActions aggregates successful similar steps by target and turns the
// strongest groups into recommendations. Failed steps are left out of the
// groups; they surface through the avoid list instead.
func suggestActions(similar []SimilarStep, pc PriorContext) []SuggestedAction {
	var groups []*actionGroup
	byKey := make(map[string]*actionGroup)
	for _, st := range similar {
		if !st.OK {
			continue
		}
		key := st.Target.Key()
		if key == "" {
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &actionGroup{key: key, target: *st.Target, tool: st.Tool}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.count++
		g.confidence += st.Confidence
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].confidence > groups[j].confidence
	})

	visible := toSet(pc.VisibleTestIDs)
	suggestions := []SuggestedAction{}
	for _, g := range groups {
		if len(suggestions) == maxSuggestions {
			break
		}
		verb, ok := actionVerbs[canonicalToolName(g.tool)]
		if !ok {
			continue
		}

		var preferred Target
		var fallbacks []Target
		switch g.target.Kind() {
		case TargetTestID:
			if _, ok := visible[g.target.Value()]; !ok {
				continue
			}
			preferred = g.target
			fallbacks = fuzzyA11yFallbacks(g.target.Value(), pc.A11yNodes)
		case TargetSelector:
			preferred = g.target
		default:
			continue
		}

		rationale := "most common next step"
		if g.count > 1 {
			rationale = fmt.Sprintf("used %d times successfully", g.count)
		}

		suggestions = append(suggestions, SuggestedAction{
			Rank:            len(suggestions) + 1,
			Action:          verb,
			PreferredTarget: preferred,
			FallbackTargets: fallbacks,
			Rationale:       rationale,
			Confidence:      g.confidence / float64(g.count),
		})
	}
	return suggestions
}

// fuzzyA11yFallbacks finds visible accessibility nodes whose names share a
// word (after synonym expansion) with the testId
func fuzzyA11yFallbacks(testID string, nodes []A11yNode) []Target {
	words := toSet(ExpandWithSynonyms(TokenizeIdentifier(testID)))
	if len(words) == 0 {
		return nil
	}

	var fallbacks []Target
	for _, node := range nodes {
		if len(fallbacks) == maxFallbacks {
			break
		}
		if node.Ref == "" {
			continue
		}
		for _, tok := range Tokenize(node.Name) {
			if _, ok := words[tok]; ok {
				fallbacks = append(fallbacks, A11yRefTarget(node.Ref))
				break
			}
		}
	}
	return fallbacks
}

type avoidGroup struct {
	target    Target
	errorCode string
	count     int
}

// avoidList collects targets that failed at least twice on screen
func avoidList(steps []LoadedStep, screen string) []AvoidEntry {
	avoid := []AvoidEntry{}
	if screen == "" {
		return avoid
	}

	var groups []*avoidGroup
	byKey := make(map[string]*avoidGroup)
	for _, ls := range steps {
		step := ls.Step
		if step.Outcome.OK || IsDiscoveryTool(step.Tool.Name) || step.Screen() != screen {
			continue
		}
		key := step.Tool.Target.Key()
		if key == "" {
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &avoidGroup{target: *step.Tool.Target}
			byKey[key] = g
			groups = append(groups, g)
		}
		if g.errorCode == "" && step.Outcome.Error != nil {
			g.errorCode = step.Outcome.Error.Code
		}
		g.count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})
	for _, g := range groups {
		if g.count < minAvoidFailures {
			continue
		}
		if len(avoid) == maxAvoid {
			break
		}
		avoid = append(avoid, AvoidEntry{Target: g.target, ErrorCode: g.errorCode, Frequency: g.count})
	}
	return avoid
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
