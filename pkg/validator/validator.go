package validator

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// All returns the first non-nil error.
func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

// MapDict applies f to every entry of items in key order.
func MapDict[T any](items map[string]T, f func(string, T) error, description string) error {
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := f(key, items[key]); err != nil {
			return fmt.Errorf("%s[%q]: %w", description, key, err)
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// Identifier checks that field can be used as a template variable name.
func Identifier(field, description string) error {
	if err := NotEmpty(field, description); err != nil {
		return err
	}
	for i, r := range field {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return fmt.Errorf("%s must be an identifier, got %q", description, field)
		}
	}
	return nil
}

// HasNoPlaceholder rejects values that would be read as template syntax.
func HasNoPlaceholder(field string, description string) error {
	if strings.Contains(field, "${") {
		return fmt.Errorf("%s must not contain placeholders", description)
	}
	return nil
}
