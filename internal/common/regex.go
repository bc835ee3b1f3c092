package common

import "regexp"

// ValidateRegex checks that a user-supplied pattern compiles and reports its
// capture-group count. Used when authoring templates, before a pattern ever
// reaches the extraction engine.
func ValidateRegex(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	return re.NumSubexp(), nil
}

// MatchRegex compiles and matches a regex pattern against a string.
// Returns true if the pattern matches, false otherwise.
// Returns an error if the pattern is invalid.
func MatchRegex(pattern, text string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}
