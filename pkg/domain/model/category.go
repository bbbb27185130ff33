package model

import (
	"strings"

	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// CategoryRule assigns a category to a new thread when any of its keywords
// appears in the opening message. Loaded from the category rule file.
type CategoryRule struct {
	ID       types.CategoryID `toml:"id"`
	Keywords []string         `toml:"keywords"`
}

// Categorize returns the categories whose rules match the text. Matching is
// case-insensitive substring; rule order is preserved and each category
// appears at most once.
func Categorize(rules []CategoryRule, text string) []types.CategoryID {
	lowered := strings.ToLower(text)

	var matched []types.CategoryID
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(kw)) {
				matched = append(matched, rule.ID)
				break
			}
		}
	}
	return matched
}
