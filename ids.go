package flame

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ApplicationID identifies a registered application.
type ApplicationID string

// SessionID identifies a live session bound to an application.
type SessionID string

// TaskID identifies one unit of work within a session.
type TaskID string

// MaxIDLength is the maximum length accepted for a user-supplied identifier.
const MaxIDLength = 128

// NewID derives a short human-readable identifier from base, appending a
// random suffix drawn from a uuid so concurrent callers never collide.
// base is trimmed, lowercased, and each remaining space is replaced with '-'.
func NewID(base string) string {
	base = strings.ToLower(strings.TrimSpace(base))
	base = strings.ReplaceAll(base, " ", "-")
	suffix := uuid.New().String()[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// ValidateUserID checks a caller-supplied identifier against §3's contract:
// non-empty and at most MaxIDLength characters.
func ValidateUserID(id string) *Error {
	if id == "" {
		return Errorf(CodeInvalidArgument, "identifier must not be empty")
	}
	if utf8.RuneCountInString(id) > MaxIDLength {
		return Errorf(CodeInvalidArgument, "identifier %q exceeds %d characters", id, MaxIDLength)
	}
	return nil
}
