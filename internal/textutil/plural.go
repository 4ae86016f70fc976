// Package textutil provides the wording helpers used by narrative functions:
// pluralization, counts, measurements and ranges.
package textutil

import "strings"

// PluralRule overrides orthographic pluralization for one word.
type PluralRule struct {
	Plural string
	// Threshold is the count at which Plural is used. Zero means 2.
	Threshold float64
}

var defaultPluralRules = map[string]PluralRule{
	// clinical nouns
	"polyp":   {Plural: "polyps"},
	"mass":    {Plural: "masses"},
	"lesion":  {Plural: "lesions"},
	"ulcer":   {Plural: "ulcers"},
	"erosion": {Plural: "erosions"},
	"nodule":  {Plural: "nodules"},

	// copulas and demonstratives
	"was":  {Plural: "were", Threshold: 2},
	"is":   {Plural: "are", Threshold: 2},
	"this": {Plural: "these", Threshold: 2},
	"that": {Plural: "those", Threshold: 2},
}

// DefaultPluralRules returns a copy of the built-in rule table.
func DefaultPluralRules() map[string]PluralRule {
	out := make(map[string]PluralRule, len(defaultPluralRules))
	for word, rule := range defaultPluralRules {
		out[word] = rule
	}
	return out
}

// Pluralize returns the form of word that agrees with count. Rule table
// entries (matched case-insensitively) switch at their threshold; other words
// follow English spelling rules and stay singular only for a count of 1.
func Pluralize(word string, count float64, customRules map[string]PluralRule) string {
	key := strings.ToLower(word)
	rule, ok := customRules[key]
	if !ok {
		rule, ok = defaultPluralRules[key]
	}
	if ok {
		threshold := rule.Threshold
		if threshold == 0 {
			threshold = 2
		}
		if count >= threshold {
			return rule.Plural
		}
		return word
	}

	if count == 1 {
		return word
	}

	if strings.HasSuffix(word, "y") {
		if len(word) >= 2 && strings.ContainsRune("aeiouAEIOU", rune(word[len(word)-2])) {
			return word + "s"
		}
		return word[:len(word)-1] + "ies"
	}

	if strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") || strings.HasSuffix(word, "z") ||
		strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "sh") {
		return word + "es"
	}

	return word + "s"
}

// Plural picks between singular and an explicit plural form, falling back to
// Pluralize when no plural form is given.
func Plural(count float64, singular, pluralForm string) string {
	if pluralForm != "" {
		if count == 1 {
			return singular
		}
		return pluralForm
	}
	return Pluralize(singular, count, nil)
}
