// Package redact provides utilities for redacting sensitive information from
// strings before they are logged. It prevents connection strings, signed
// tokens, and credentials embedded in wrapped errors from leaking into log
// output or error responses.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
)

// Precompiled patterns for the things this service can actually leak:
// store/broker URLs with inline credentials, signed bearer tokens, and
// secret-looking key=value fragments.
var (
	connURLRegex = regexp.MustCompile(`(?i)(postgres|postgresql|nats|redis|amqp)://[^@\s]+@`)
	jwtRegex     = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
	secretRegex  = regexp.MustCompile(`(?i)(secret|password|token|api[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`)
	hostRegex    = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}:\d{1,5}\b`)
)

var placeholders = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{connURLRegex, RedactedCredentialPlaceholder},
	{jwtRegex, RedactedTokenPlaceholder},
	{secretRegex, RedactedCredentialPlaceholder},
	{hostRegex, RedactedHostPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range placeholders {
		result = p.pattern.ReplaceAllString(result, p.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
