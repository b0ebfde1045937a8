package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeCode canonicalizes a permission code for storage and comparison.
// Codes are compared case-insensitively everywhere, so folding happens once at
// ingestion and internal comparisons are plain equality.
func NormalizeCode(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}

// NormalizeScopeType canonicalizes a scope type the same way as codes.
func NormalizeScopeType(scopeType string) string {
	return cases.Fold().String(strings.TrimSpace(scopeType))
}

// NormalizeCodes folds, trims, and de-duplicates a list of codes, dropping
// blanks. Order of first appearance is preserved.
func NormalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized := NormalizeCode(code)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
