package analysis

import (
	"strings"
	"unicode"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// Severity ranks how much damage replaying a mutation could do.
type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Risk describes why a mutation is worth a second look before it is replayed.
type Risk struct {
	Reason     string   `json:"reason"`
	Indicators []string `json:"indicators"`
	Severity   Severity `json:"severity"`
}

// dangerousPatterns maps mutation name words to their risk descriptions.
// Names are split on camelCase and underscore boundaries and a keyword must
// equal one word, or a run of adjacent words, with an optional plural "s".
// "deleteUser", "delete_user" and "DELETE_USER" all match "delete" and
// "resetPassword" matches "resetpassword", but "drawShape" does not match
// "raw".
var dangerousPatterns = []struct {
	keywords []string
	reason   string
	severity Severity
}{
	{[]string{"drop", "truncate", "wipe", "purge"}, "bulk data removal", SeverityCritical},
	{[]string{"delete", "remove", "destroy"}, "data deletion", SeverityHigh},
	{[]string{"admin", "superuser", "impersonate"}, "administrative operation", SeverityCritical},
	{[]string{"updaterole", "setrole", "assignrole", "changerole", "grant", "revoke", "permission"}, "authorization change", SeverityCritical},
	{[]string{"resetpassword", "changepassword", "setpassword", "forgotpassword"}, "credential change", SeverityHigh},
	{[]string{"transfer", "withdraw", "refund", "payout"}, "financial operation", SeverityHigh},
	{[]string{"execute", "eval", "runquery", "raw"}, "code or query execution", SeverityCritical},
	{[]string{"disable", "deactivate", "suspend", "ban", "block"}, "account or service control", SeverityHigh},
	{[]string{"send", "invite", "notify", "email"}, "outbound messaging", SeverityMedium},
	{[]string{"config", "configuration", "setting"}, "configuration change", SeverityMedium},
	{[]string{"upload", "import"}, "file or bulk import", SeverityMedium},
}

// ClassifyMutation reports whether a mutation looks destructive or
// privileged, based on its name. Only the first matching pattern is used.
func ClassifyMutation(f schema.Field) (Risk, bool) {
	words := splitWords(f.Name)

	for _, pattern := range dangerousPatterns {
		var matched []string
		for _, kw := range pattern.keywords {
			if containsWord(words, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			return Risk{
				Reason:     pattern.reason,
				Indicators: matched,
				Severity:   pattern.severity,
			}, true
		}
	}

	return Risk{}, false
}

// splitWords lowercases name and breaks it into words at underscores,
// hyphens, lower-to-upper transitions and the end of an acronym, so
// "resetHTTPPassword_now" yields reset, http, password, now.
func splitWords(name string) []string {
	runes := []rune(name)
	var words []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, strings.ToLower(string(runes[start:end])))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush(i)
				start = i
			}
		}
	}
	flush(len(runes))
	return words
}

// containsWord reports whether kw equals a run of adjacent words, allowing a
// trailing "s" on the last one.
func containsWord(words []string, kw string) bool {
	for i := range words {
		joined := ""
		for _, w := range words[i:] {
			joined += w
			if joined == kw || joined == kw+"s" {
				return true
			}
			if len(joined) >= len(kw) {
				break
			}
		}
	}
	return false
}

// String renders the risk for console output.
func (r Risk) String() string {
	return string(r.Severity) + ": " + r.Reason + " (" + strings.Join(r.Indicators, ", ") + ")"
}
