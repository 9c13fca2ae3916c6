package engine

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinPurposeLength is the minimum trimmed length of a stated purpose.
const MinPurposeLength = 10

// evasivePhrases are matched case-insensitively as substrings. This is a
// soft control: it filters lazy justifications, not determined ones.
var evasivePhrases = []string{
	"personal",
	"curious",
	"just checking",
	"test",
	"demo",
	"bored",
	"wondering",
	"hmm",
	"idk",
	"whatever",
}

var (
	ErrPurposeTooShort      = errors.New("a business purpose of at least 10 characters is required")
	ErrPurposeNotAcceptable = errors.New("the stated purpose is not an acceptable business justification")
)

// CheckPurpose returns nil when purpose is an acceptable justification.
func CheckPurpose(purpose string) error {
	trimmed := strings.TrimSpace(purpose)
	if utf8.RuneCountInString(trimmed) < MinPurposeLength {
		return ErrPurposeTooShort
	}
	lower := strings.ToLower(purpose)
	for _, phrase := range evasivePhrases {
		if strings.Contains(lower, phrase) {
			return ErrPurposeNotAcceptable
		}
	}
	return nil
}

// EvasivePhrases returns a copy of the purpose denylist.
func EvasivePhrases() []string {
	out := make([]string, len(evasivePhrases))
	copy(out, evasivePhrases)
	return out
}
