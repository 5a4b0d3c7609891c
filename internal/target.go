package internal

import (
	"encoding/json"
	"fmt"
)

// TargetKind identifies which selection strategy a Target uses
type TargetKind int

const (
	TargetTestID TargetKind = iota + 1
	TargetA11yRef
	TargetSelector
)

func (k TargetKind) String() string {
	switch k {
	case TargetTestID:
		return "testId"
	case TargetA11yRef:
		return "a11yRef"
	case TargetSelector:
		return "selector"
	default:
		return "unknown"
	}
}

// Target is the element a step acted on. Exactly one of testId, a11yRef or
// selector is set; the zero value is not a valid target.
type Target struct {
	kind  TargetKind
	value string
}

// NewTarget builds a target of the given kind, rejecting empty values
func NewTarget(kind TargetKind, value string) (Target, error) {
	if kind < TargetTestID || kind > TargetSelector {
		return Target{}, &ValidationError{Field: "target", Reason: fmt.Sprintf("unknown kind %d", kind)}
	}
	if value == "" {
		return Target{}, &ValidationError{Field: "target." + kind.String(), Reason: "must not be empty"}
	}
	return Target{kind: kind, value: value}, nil
}

// TestIDTarget returns a data-testid target
func TestIDTarget(testID string) Target { return Target{kind: TargetTestID, value: testID} }

// A11yRefTarget returns an accessibility-tree reference target
func A11yRefTarget(ref string) Target { return Target{kind: TargetA11yRef, value: ref} }

// SelectorTarget returns a raw CSS selector target
func SelectorTarget(selector string) Target { return Target{kind: TargetSelector, value: selector} }

// TargetFromFields builds a target from three optional fields, as supplied by
// flag- or argument-based callers. Nil is returned when all are empty.
func TargetFromFields(testID, a11yRef, selector string) (*Target, error) {
	set := 0
	var t Target
	if testID != "" {
		set++
		t = TestIDTarget(testID)
	}
	if a11yRef != "" {
		set++
		t = A11yRefTarget(a11yRef)
	}
	if selector != "" {
		set++
		t = SelectorTarget(selector)
	}
	switch set {
	case 0:
		return nil, nil
	case 1:
		return &t, nil
	default:
		return nil, &ValidationError{Field: "target", Reason: "exactly one of testId, a11yRef, selector may be set"}
	}
}

func (t Target) Kind() TargetKind { return t.kind }
func (t Target) Value() string    { return t.value }
func (t Target) IsZero() bool     { return t.kind == 0 }

// TestID returns the testId, or "" for other kinds
func (t Target) TestID() string {
	if t.kind == TargetTestID {
		return t.value
	}
	return ""
}

// A11yRef returns the accessibility ref, or "" for other kinds
func (t Target) A11yRef() string {
	if t.kind == TargetA11yRef {
		return t.value
	}
	return ""
}

// Selector returns the selector, or "" for other kinds
func (t Target) Selector() string {
	if t.kind == TargetSelector {
		return t.value
	}
	return ""
}

// Key is the grouping key used to aggregate steps across sessions: the testId
// when present, otherwise the selector. Accessibility refs are snapshot-local
// and yield "".
func (t *Target) Key() string {
	if t == nil {
		return ""
	}
	switch t.kind {
	case TargetTestID, TargetSelector:
		return t.value
	default:
		return ""
	}
}

func (t Target) String() string {
	return fmt.Sprintf("%s=%s", t.kind, t.value)
}

type targetJSON struct {
	TestID   string `json:"testId,omitempty" yaml:"testId,omitempty"`
	A11yRef  string `json:"a11yRef,omitempty" yaml:"a11yRef,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
}

func (t Target) wire() targetJSON {
	return targetJSON{TestID: t.TestID(), A11yRef: t.A11yRef(), Selector: t.Selector()}
}

// MarshalJSON encodes the target as a single-field object
func (t Target) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.wire())
}

// UnmarshalJSON decodes a single-field object, rejecting zero or multiple fields
func (t *Target) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var w targetJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := TargetFromFields(w.TestID, w.A11yRef, w.Selector)
	if err != nil {
		return err
	}
	if parsed == nil {
		return &ValidationError{Field: "target", Reason: "no selection field set"}
	}
	*t = *parsed
	return nil
}

// MarshalYAML encodes the target the same way as JSON
func (t Target) MarshalYAML() (interface{}, error) {
	return t.wire(), nil
}
