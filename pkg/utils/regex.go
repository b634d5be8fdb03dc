package utils

import (
	"regexp"
)

// CompileRegexPatterns compiles regex strings into usable *regexp.Regexp objects.
// Returns an error if any pattern is invalid.
func CompileRegexPatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" { // Skip empty patterns silently
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, WrapErrorf(ErrConfigValidation, "invalid regex pattern #%d ('%s'): %v", i+1, pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// MatchesAny reports whether s matches at least one of the compiled patterns.
func MatchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
