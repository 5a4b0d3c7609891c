package internal

import "strings"

// ScopeKind selects which sessions a query considers
type ScopeKind int

const (
	ScopeCurrent ScopeKind = iota + 1
	ScopeAll
	ScopeSession
)

// Scope is "current", "all", or one named session
type Scope struct {
	Kind      ScopeKind
	SessionID string
}

// CurrentScope is the active session only
func CurrentScope() Scope { return Scope{Kind: ScopeCurrent} }

// AllScope is every session in the store
func AllScope() Scope { return Scope{Kind: ScopeAll} }

// SessionScope is one specific session
func SessionScope(id string) Scope { return Scope{Kind: ScopeSession, SessionID: id} }

// ParseScope accepts "current", "all", or a session id
func ParseScope(s string) (Scope, error) {
	switch strings.TrimSpace(s) {
	case "", "current":
		return CurrentScope(), nil
	case "all":
		return AllScope(), nil
	default:
		sc := SessionScope(strings.TrimSpace(s))
		return sc, sc.Validate()
	}
}

// Validate rejects unknown kinds and session scopes with unsafe ids
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeCurrent, ScopeAll:
		return nil
	case ScopeSession:
		return ValidateSessionID(s.SessionID)
	default:
		return &ValidationError{Field: "scope", Reason: "must be current, all, or a session id"}
	}
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopeCurrent:
		return "current"
	case ScopeAll:
		return "all"
	case ScopeSession:
		return s.SessionID
	default:
		return "invalid"
	}
}
