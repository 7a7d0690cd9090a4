package utils

import "strings"

// NormalizeLanguage maps common misspellings and aliases of a declared
// submission language onto its canonical name.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))

	languageMap := map[string]string{
		"js":         "javascript",
		"javascript": "javascript",
		"javscript":  "javascript",
		"javascipt":  "javascript",
		"node":       "javascript",
		"nodejs":     "javascript",

		"py":     "python",
		"python": "python",
		"pyton":  "python",
		"phyton": "python",

		"go":     "go",
		"golang": "go",

		"c++": "cpp",
		"cpp": "cpp",
		"cxx": "cpp",
		"cc":  "cpp",

		"java": "java",

		"c": "c",
	}

	if normalized, ok := languageMap[lang]; ok {
		return normalized
	}
	return lang
}

// NormalizeCategory maps loose category spellings onto the fixed category
// enum used by challenges.
func NormalizeCategory(cat string) string {
	cat = strings.TrimSpace(strings.ToLower(cat))
	cat = strings.ReplaceAll(cat, " ", "-")
	cat = strings.ReplaceAll(cat, "_", "-")

	categoryMap := map[string]string{
		"dsa":                "dsa",
		"data-structures":    "dsa",
		"algorithms":         "dsa",
		"aptitude":           "aptitude",
		"programming":        "programming",
		"coding":             "programming",
		"web":                "web-development",
		"web-dev":            "web-development",
		"web-development":    "web-development",
		"mobile":             "mobile-development",
		"mobile-dev":         "mobile-development",
		"mobile-development": "mobile-development",
		"ai":                 "ai-ml",
		"ml":                 "ai-ml",
		"ai-ml":              "ai-ml",
		"machine-learning":   "ai-ml",
	}

	if normalized, ok := categoryMap[cat]; ok {
		return normalized
	}
	return cat
}
