package services

import (
	"strings"
	"unicode"
)

// noDataSentinel is what the classifier answers when no fetch is needed.
const noDataSentinel = "NO_API"

const maxEndpointLength = 256

var allowedEndpointPrefixes = []string{"/competitions/", "/matches"}

type IntentKind int

const (
	IntentNoData IntentKind = iota
	IntentEndpoint
)

func (k IntentKind) String() string {
	if k == IntentEndpoint {
		return "endpoint"
	}
	return "no_data"
}

// Intent is the parsed classifier answer. Path is only set for IntentEndpoint.
type Intent struct {
	Kind IntentKind
	Path string
}

// ParseIntent turns the classifier's raw line into an Intent. Anything other
// than the sentinel is taken as an endpoint path and still needs ValidateEndpoint.
func ParseIntent(raw string) Intent {
	text := strings.TrimSpace(raw)
	if text == noDataSentinel {
		return Intent{Kind: IntentNoData}
	}
	return Intent{Kind: IntentEndpoint, Path: text}
}

// ValidateEndpoint reports whether a model-written path may be sent to football-data.org.
func ValidateEndpoint(p string) bool {
	if p == "" || len(p) > maxEndpointLength {
		return false
	}

	allowed := false
	for _, prefix := range allowedEndpointPrefixes {
		if strings.HasPrefix(p, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	if strings.Contains(p, "..") ||
		strings.Contains(p, "://") || strings.Contains(p, `\`) {
		return false
	}
	for _, r := range p {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
