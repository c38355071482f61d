package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const minProfileAge = 18

var displayNameRegex = regexp.MustCompile(`^[\p{L}\p{N} .'\-]{2,40}$`)

var allowedGenders = map[string]struct{}{
	"male":       {},
	"female":     {},
	"non_binary": {},
	"other":      {},
}

// ValidateDisplayName validates public profile name format.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if !displayNameRegex.MatchString(name) {
		return fmt.Errorf("display name must be 2-40 characters of letters, numbers, spaces, and basic punctuation")
	}
	return nil
}

// ValidateBirthDate enforces the minimum age requirement.
func ValidateBirthDate(birthDate, now time.Time) error {
	if birthDate.IsZero() {
		return fmt.Errorf("birth date is required")
	}
	if birthDate.After(now) {
		return fmt.Errorf("birth date cannot be in the future")
	}
	cutoff := now.AddDate(-minProfileAge, 0, 0)
	if birthDate.After(cutoff) {
		return fmt.Errorf("must be at least %d years old", minProfileAge)
	}
	return nil
}

// ValidateGender checks the gender value against the accepted set.
func ValidateGender(gender string) error {
	if _, ok := allowedGenders[gender]; !ok {
		return fmt.Errorf("gender must be one of: male, female, non_binary, other")
	}
	return nil
}

// ValidateBio caps bio length at 500 characters.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > 500 {
		return fmt.Errorf("bio must not exceed 500 characters")
	}
	return nil
}
