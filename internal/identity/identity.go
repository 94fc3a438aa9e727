// Package identity provides the pure validation and id-generation
// functions shared by every connection: session id minting, display-name
// and chat-body validation, and the private-message prefix grammar.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidName is returned by ValidateName when the input fails the
// length or character-class check.
var ErrInvalidName = errors.New("invalid name")

// ErrInvalidChat is returned by ValidateChat when the input fails the
// length or control-character check.
var ErrInvalidChat = errors.New("invalid chat text")

var nameRe = regexp.MustCompile(`^[A-Za-z0-9 _\-.]+$`)

// NewID returns a freshly generated 12-byte random value rendered as 24
// lowercase hex digits. The randomness source is crypto/rand, so collision
// probability across a process lifetime is negligible.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("identity: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// ValidateName returns the canonical form of s (trimmed) iff its trimmed
// length is between 1 and 32 and it matches the class
// [A-Za-z0-9 _\-.]+. Otherwise it returns ErrInvalidName.
func ValidateName(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 1 || len(trimmed) > 32 {
		return "", ErrInvalidName
	}
	if !nameRe.MatchString(trimmed) {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

// ValidateChat returns the trimmed form of s iff its trimmed length is
// between 1 and 500 and it contains no C0 control characters other than
// line feed and carriage return. Embedded control characters (including
// NUL, vertical/form feed, and DEL) are rejected so that multi-line chat
// text remains possible without opening the door to terminal-escape or
// protocol-confusing payloads.
func ValidateChat(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 1 || len(trimmed) > 500 {
		return "", ErrInvalidChat
	}
	for _, r := range trimmed {
		if isDisallowedControl(r) {
			return "", ErrInvalidChat
		}
	}
	return trimmed, nil
}

func isDisallowedControl(r rune) bool {
	if r == '\n' || r == '\r' {
		return false
	}
	switch {
	case r >= 0x00 && r <= 0x08:
		return true
	case r == 0x0B || r == 0x0C:
		return true
	case r >= 0x0E && r <= 0x1F:
		return true
	case r == 0x7F:
		return true
	}
	return false
}

// ReplyPrefix is the literal prefix that marks a chat message as a reply
// quote rather than a private message, even though it begins with '@'.
const ReplyPrefix = "@reply ["

// ParsePrivatePrefix recognizes the two private-message shapes described
// by the protocol:
//
//	@"<name with spaces>" <body>
//	@<name-without-space> <body>
//
// It returns the addressed name, the message body, and true on a match.
// Text beginning with ReplyPrefix must be excluded by the caller before
// calling this function; ParsePrivatePrefix does not special-case it.
func ParsePrivatePrefix(text string) (name, body string, ok bool) {
	if !strings.HasPrefix(text, "@") {
		return "", "", false
	}

	if len(text) >= 2 && text[1] == '"' {
		closeIdx := strings.Index(text[2:], `"`)
		if closeIdx < 0 {
			return "", "", false
		}
		closeIdx += 2
		if closeIdx+1 >= len(text) || text[closeIdx+1] != ' ' {
			return "", "", false
		}
		candidateName := text[2:closeIdx]
		candidateBody := text[closeIdx+2:]
		if candidateName == "" || candidateBody == "" {
			return "", "", false
		}
		return candidateName, candidateBody, true
	}

	rest := text[1:]
	spaceIdx := strings.IndexByte(rest, ' ')
	if spaceIdx < 0 {
		return "", "", false
	}
	candidateName := rest[:spaceIdx]
	candidateBody := rest[spaceIdx+1:]
	if candidateName == "" || candidateBody == "" {
		return "", "", false
	}
	return candidateName, candidateBody, true
}
