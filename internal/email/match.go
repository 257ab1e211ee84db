// Package email finds contact addresses in scraped text, including
// obfuscated spellings like "foo (at) example (dot) com" or the Spanish
// "foo arroba example punto com".
package email

import (
	"regexp"
	"sort"
	"strings"
)

var (
	plainRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// local (at|arroba) domain (dot|punto) tld, with optional wrapping
	// parens or brackets around the keywords.
	obfuscatedRe = regexp.MustCompile(`(?i)([a-zA-Z0-9._%+\-]+)\s*(?:\(|\[)?\s*(?:at|arroba)\s*(?:\)|\])?\s*([a-zA-Z0-9.\-]+)\s*(?:\(|\[)?\s*(?:dot|punto)\s*(?:\)|\])?\s*([a-zA-Z]{2,})`)
)

// Valid reports whether s is, in its entirety, a well-formed address.
func Valid(s string) bool {
	m := plainRe.FindString(s)
	return m == s && s != ""
}

// Extract returns every address found in text, plain or obfuscated,
// deduplicated. Obfuscated matches are reconstructed as local@domain.tld.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for _, m := range plainRe.FindAllString(text, -1) {
		seen[m] = struct{}{}
	}
	for _, m := range obfuscatedRe.FindAllStringSubmatch(text, -1) {
		seen[m[1]+"@"+m[2]+"."+m[3]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Pick chooses one address from candidates: the lexicographically
// smallest, so the result does not depend on which source or worker
// matched first. Returns "" for an empty set.
func Pick(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c < best {
			best = c
		}
	}
	return best
}

// FromMailto strips a mailto: href down to the bare address, dropping
// any query suffix. Returns "" when the payload is not a valid address.
func FromMailto(href string) string {
	addr := strings.TrimPrefix(href, "mailto:")
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	addr = strings.TrimSpace(addr)
	if !Valid(addr) {
		return ""
	}
	return addr
}
