package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jdriscoll/go-social/internal/types"
)

// ClientEvent is the inbound wire format. Exactly one variant pointer
// is set per event; Id correlates responses back to the request.
type ClientEvent struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	JoinConversations *JoinConversations `json:"join_conversations,omitempty"`
	SendMessage       *SendMessage       `json:"send_message,omitempty"`
	Typing            *Typing            `json:"typing,omitempty"`
	StopTyping        *Typing            `json:"stop_typing,omitempty"`
	MarkRead          *MarkRead          `json:"mark_read,omitempty"`
	CallUser          *CallUser          `json:"call_user,omitempty"`
	AnswerCall        *AnswerCall        `json:"answer_call,omitempty"`
	IceCandidate      *IceCandidate      `json:"ice_candidate,omitempty"`
	EndCall           *EndCall           `json:"end_call,omitempty"`

	client *Client
}

type JoinConversations struct{}

type SendMessage struct {
	ConversationId string            `json:"conversation_id"`
	Content        string            `json:"content"`
	Media          []types.MediaItem `json:"media,omitempty"`
}

type Typing struct {
	ConversationId string `json:"conversation_id"`
}

type MarkRead struct {
	ConversationId string `json:"conversation_id"`
	MessageIds     []int  `json:"message_ids"`
}

// Call signaling payloads are forwarded verbatim, so offers, answers
// and candidates stay raw JSON.
type CallUser struct {
	To       int             `json:"to"`
	Offer    json.RawMessage `json:"offer"`
	CallType string          `json:"call_type"`
}

type AnswerCall struct {
	To     int             `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

type IceCandidate struct {
	To        int             `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

type EndCall struct {
	To int `json:"to"`
}

// ServerEvent is the outbound wire format, one variant per event.
type ServerEvent struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Response          *Response           `json:"response,omitempty"`
	NewMessage        *types.Message      `json:"new_message,omitempty"`
	UserTyping        *TypingNotice       `json:"user_typing,omitempty"`
	UserStoppedTyping *TypingNotice       `json:"user_stopped_typing,omitempty"`
	MessagesRead      *MessagesReadNotice `json:"messages_read,omitempty"`
	Notification      *types.Notification `json:"notification,omitempty"`
	NewStory          *StoryNotice        `json:"new_story,omitempty"`
	StoryViewed       *StoryViewedNotice  `json:"story_viewed,omitempty"`
	Presence          *PresenceNotice     `json:"presence,omitempty"`
	IncomingCall      *IncomingCall       `json:"incoming_call,omitempty"`
	CallAnswered      *CallAnswered       `json:"call_answered,omitempty"`
	IceCandidate      *IceCandidateNotice `json:"ice_candidate,omitempty"`
	CallEnded         *CallEnded          `json:"call_ended,omitempty"`

	// SkipClient is excluded from room broadcasts carrying this event.
	SkipClient *Client `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type TypingNotice struct {
	UserId         int    `json:"user_id"`
	ConversationId string `json:"conversation_id"`
}

type MessagesReadNotice struct {
	ConversationId string `json:"conversation_id"`
	UserId         int    `json:"user_id"`
	MessageIds     []int  `json:"message_ids"`
}

type StoryNotice struct {
	StoryId string     `json:"story_id"`
	Author  types.User `json:"author"`
}

type StoryViewedNotice struct {
	StoryId string     `json:"story_id"`
	Viewer  types.User `json:"viewer"`
}

type PresenceNotice struct {
	UserId   int        `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type IncomingCall struct {
	From     int             `json:"from"`
	Offer    json.RawMessage `json:"offer"`
	CallType string          `json:"call_type"`
}

type CallAnswered struct {
	From   int             `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

type IceCandidateNotice struct {
	From      int             `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

type CallEnded struct {
	From int `json:"from"`
}

func NoErrOK(id int, data any) *ServerEvent {
	return &ServerEvent{
		Id:        id,
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerEvent {
	return &ServerEvent{
		Id:        id,
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func ErrNotFoundEvent(id int, what string) *ServerEvent {
	return &ServerEvent{
		Id:        id,
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        what + " not found",
		},
	}
}

func ErrForbiddenEvent(id int) *ServerEvent {
	return &ServerEvent{
		Id:        id,
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        "not a participant",
		},
	}
}

func ErrInternalEvent(id int) *ServerEvent {
	return &ServerEvent{
		Id:        id,
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrInvalidEvent(id int) *ServerEvent {
	evt := &ServerEvent{
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid event format",
		},
	}

	if id > 0 {
		evt.Id = id
	}
	return evt
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
