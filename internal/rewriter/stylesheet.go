package rewriter

import (
	"regexp"
	"strings"
)

var (
	// url(...) with double, single or no quotes; payload in groups 1..3
	cssURLRe = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^"'()\s]*))\s*\)`)
	// @import "file.css" string form
	cssImportRe = regexp.MustCompile(`(?i)@import\s+(?:"([^"]*)"|'([^']*)')`)
)

// StylesheetTransformer rewrites url() and @import references in CSS text.
type StylesheetTransformer struct {
	resolver *Resolver
}

// NewStylesheetTransformer creates a transformer using resolver for lookups
func NewStylesheetTransformer(resolver *Resolver) *StylesheetTransformer {
	return &StylesheetTransformer{resolver: resolver}
}

// Transform rewrites a whole stylesheet resource.
func (t *StylesheetTransformer) Transform(ctx RewriteContext, data []byte) []byte {
	return []byte(t.Rewrite(ctx, string(data)))
}

// Rewrite relocates every reference in css. Quoting is preserved and
// unresolved references are left as they are.
func (t *StylesheetTransformer) Rewrite(ctx RewriteContext, css string) string {
	if !strings.Contains(css, "(") && !strings.Contains(css, "@") {
		return css
	}
	rewrite := func(payload string) string {
		out, _ := t.resolver.Resolve(ctx, payload)
		return out
	}
	css = replacePayloads(cssURLRe, css, rewrite)
	return replacePayloads(cssImportRe, css, rewrite)
}

// replacePayloads substitutes the first participating capture group of every
// match of re, leaving the rest of the match untouched.
func replacePayloads(re *regexp.Regexp, s string, fn func(string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		for g := 1; g*2 < len(m); g++ {
			start, end := m[g*2], m[g*2+1]
			if start < 0 {
				continue
			}
			b.WriteString(s[last:start])
			b.WriteString(fn(s[start:end]))
			last = end
			break
		}
	}
	b.WriteString(s[last:])
	return b.String()
}
