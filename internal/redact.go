package internal

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// RedactedMarker replaces sensitive values in persisted step input
const RedactedMarker = "[REDACTED]"

// SensitiveFieldPatterns match field names and element identifiers that hold secrets
var SensitiveFieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password`),
	regexp.MustCompile(`(?i)passphrase`),
	regexp.MustCompile(`(?i)passcode`),
	regexp.MustCompile(`(?i)seed`),
	regexp.MustCompile(`(?i)mnemonic`),
	regexp.MustCompile(`(?i)private[\s_-]?key`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)recovery[\s_-]?phrase`),
	regexp.MustCompile(`(?i)(^|[^a-z])srp([^a-z]|$)`),
	regexp.MustCompile(`(?i)api[\s_-]?key`),
}

// IsSensitiveField reports whether a field name or identifier looks like it holds a secret
func IsSensitiveField(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range SensitiveFieldPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// SanitizedInput is the result of SanitizeInput
type SanitizedInput struct {
	Input        map[string]interface{}
	TextRedacted bool
	TextLength   *int
}

// SanitizeInput redacts sensitive values from a tool's input before it is
// persisted. For the text-entry tool the "text" value is redacted when the
// element being typed into looks sensitive, keeping only its length. Any
// other key whose name looks sensitive is redacted outright.
func SanitizeInput(toolName string, input map[string]interface{}, target *Target) SanitizedInput {
	if input == nil {
		return SanitizedInput{}
	}

	out := SanitizedInput{Input: make(map[string]interface{}, len(input))}
	textEntry := canonicalToolName(toolName) == "type"

	for key, value := range input {
		switch {
		case textEntry && key == "text":
			if textTargetSensitive(key, input, target) {
				text := fmt.Sprint(value)
				n := utf8.RuneCountInString(text)
				out.Input[key] = RedactedMarker
				out.TextRedacted = true
				out.TextLength = &n
			} else {
				out.Input[key] = value
			}
		case IsSensitiveField(key):
			out.Input[key] = RedactedMarker
		default:
			out.Input[key] = value
		}
	}

	return out
}

func textTargetSensitive(key string, input map[string]interface{}, target *Target) bool {
	if s, ok := input["testId"].(string); ok && IsSensitiveField(s) {
		return true
	}
	if s, ok := input["selector"].(string); ok && IsSensitiveField(s) {
		return true
	}
	if target != nil && IsSensitiveField(target.Value()) {
		return true
	}
	return IsSensitiveField(key)
}
