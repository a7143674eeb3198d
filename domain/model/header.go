// Package model provides the domain model for sheetsql.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChar   = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// SanitizeHeaders converts raw column labels into a unique namespace of
// identifier-safe tokens. The output has the same length and order as
// the input. Empty or placeholder labels become col_<1-based-position>,
// tokens that would not start with a letter gain a c_ prefix, and later
// duplicates of a token are suffixed with an occurrence counter
// starting at 2. Sanitizing an already sanitized header is a no-op.
func SanitizeHeaders(labels []string) []string {
	out := make([]string, 0, len(labels))
	// used maps an emitted token to the occurrence count of its base
	// form, so suffixed tokens stay unique even when the input already
	// contains a name like token_2.
	used := make(map[string]int, len(labels))
	for i, label := range labels {
		token := sanitizeLabel(label, i+1)
		if n, ok := used[token]; ok {
			next := n + 1
			candidate := fmt.Sprintf("%s_%d", token, next)
			for {
				if _, taken := used[candidate]; !taken {
					break
				}
				next++
				candidate = fmt.Sprintf("%s_%d", token, next)
			}
			used[token] = next
			token = candidate
		}
		used[token] = 1
		out = append(out, token)
	}
	return out
}

// sanitizeLabel normalizes a single raw label. position is the 1-based
// column index used for placeholder substitution.
func sanitizeLabel(label string, position int) string {
	label = strings.TrimSpace(label)
	if isMissingValue(label) {
		return fmt.Sprintf("col_%d", position)
	}
	label = whitespaceRun.ReplaceAllString(label, "_")
	label = invalidChar.ReplaceAllString(label, "")
	if label == "" {
		return fmt.Sprintf("col_%d", position)
	}
	if c := label[0]; c == '_' || (c >= '0' && c <= '9') {
		label = "c_" + label
	}
	return strings.ToLower(label)
}
