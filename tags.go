package gelbooru

import (
	"strings"

	"github.com/samber/lo"
)

// normalizeTag rewrites a raw tag into the form the API indexes: trimmed,
// lowercase, with internal spaces replaced by underscores.
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.ReplaceAll(tag, " ", "_")
}

// FormatTags builds the value of a tags search parameter from an include
// and an exclude list. Every tag is normalized, excluded tags get a
// single "-" prefix, and the tokens are joined in insertion order without
// deduplication. Tags that normalize to nothing are dropped.
func FormatTags(include, exclude []string) string {
	tokens := lo.Map(include, func(tag string, _ int) string {
		return normalizeTag(tag)
	})

	tokens = append(tokens, lo.Map(exclude, func(tag string, _ int) string {
		return "-" + normalizeTag(strings.TrimLeft(strings.TrimSpace(tag), "-"))
	})...)

	tokens = lo.Filter(tokens, func(token string, _ int) bool {
		return token != "" && token != "-"
	})

	return strings.Join(tokens, " ")
}
