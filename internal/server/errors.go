package server

import "errors"

var (
	// ErrNotParticipant rejects operations from actors outside the
	// target conversation.
	ErrNotParticipant = errors.New("not a participant of conversation")
	// ErrEmptyMessage rejects messages with neither content nor media.
	ErrEmptyMessage = errors.New("message has no content or media")
	// ErrConversationNotFound wraps store misses on conversation lookup.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrStoryNotFound wraps store misses on story lookup.
	ErrStoryNotFound = errors.New("story not found")
)
