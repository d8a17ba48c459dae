package ai

import "regexp"

var (
	reEmail  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reToken  = regexp.MustCompile(`(?i)(api|secret|token|key)[=:]\s*[A-Za-z0-9-_]{8,}`)
	reBearer = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9-_.]{8,}`)
)

// RedactPII scrubs emails, credential-looking pairs and bearer tokens from
// a line before it is sent to the API.
func RedactPII(s string) string {
	s = reEmail.ReplaceAllString(s, "[redacted-email]")
	s = reToken.ReplaceAllString(s, "$1=[redacted]")
	s = reBearer.ReplaceAllString(s, "bearer [redacted]")
	return s
}
