package embedding

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeToken brings a token into the form embedding tables are keyed by:
// trimmed, NFKC-normalized and lower-cased.
func NormalizeToken(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}
