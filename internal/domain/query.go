package domain

import (
	"fmt"
	"strings"
)

// MaxQueryLength is the maximum allowed search query length in runes.
const MaxQueryLength = 500

// Query is a validated free-text search request. Immutable once built.
type Query struct {
	text      string
	channel   string
	userID    string
	sessionID string
}

// NewQuery validates and normalizes search input.
func NewQuery(text, channel, userID, sessionID string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", ErrValidation)
	}
	if len([]rune(text)) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", ErrValidation, MaxQueryLength)
	}
	if channel == "" {
		return Query{}, fmt.Errorf("%w: channel is required", ErrValidation)
	}
	return Query{text: text, channel: channel, userID: userID, sessionID: sessionID}, nil
}

// Text returns the raw query text.
func (q Query) Text() string { return q.text }

// Normalized returns the cache-key form of the text (lowercased, trimmed).
func (q Query) Normalized() string { return strings.ToLower(strings.TrimSpace(q.text)) }

// Channel returns the sales channel identifier.
func (q Query) Channel() string { return q.channel }

// UserID returns the optional user identifier.
func (q Query) UserID() string { return q.userID }

// SessionID returns the optional session identifier.
func (q Query) SessionID() string { return q.sessionID }

// Actor returns the identity charged by the rate limiter: user, else session.
// Transport substitutes the client address when both are empty.
func (q Query) Actor() string {
	if q.userID != "" {
		return q.userID
	}
	return q.sessionID
}
