package sanitize

import (
	"github.com/dlclark/regexp2"
)

// rule is one ordered text replacement.
type rule struct {
	re   *regexp2.Regexp
	repl string
}

// Phrase rules run before word rules so "acabamentos de luxo" is rewritten as a
// whole instead of leaving "acabamentos de exclusivo".
// \b is Unicode-aware in regexp2, so accented letters count as word characters.
var rules = []rule{
	{regexp2.MustCompile(`acabamentos de luxo`, regexp2.None), "acabamentos exclusivos"},
	{regexp2.MustCompile(`Acabamentos de luxo`, regexp2.None), "Acabamentos exclusivos"},

	{regexp2.MustCompile(`\bluxo\b`, regexp2.None), "exclusivo"},
	{regexp2.MustCompile(`\bLuxo\b`, regexp2.None), "Exclusivo"},
	{regexp2.MustCompile(`\bLUXO\b`, regexp2.None), "EXCLUSIVO"},

	{regexp2.MustCompile(`\bpremium\b`, regexp2.None), "superior"},
	{regexp2.MustCompile(`\bPremium\b`, regexp2.None), "Superior"},
	{regexp2.MustCompile(`\bPREMIUM\b`, regexp2.None), "SUPERIOR"},

	{regexp2.MustCompile(`\bluxury\b`, regexp2.None), "exclusive"},
	{regexp2.MustCompile(`\bLuxury\b`, regexp2.None), "Exclusive"},
	{regexp2.MustCompile(`\bLUXURY\b`, regexp2.None), "EXCLUSIVE"},
}

// CleanText applies every replacement rule to s, in order.
func CleanText(s string) string {
	for _, r := range rules {
		out, err := r.re.Replace(s, r.repl, -1, -1)
		if err != nil {
			// Only a match timeout fails, and no timeout is set
			continue
		}
		s = out
	}
	return s
}
