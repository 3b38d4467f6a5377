package server

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/types"
)

// SendMessage is the single write path for chat messages; the REST
// handler and the websocket handler both land here so the side effects
// cannot diverge. Persisting the message is the only durability point:
// a store failure aborts with no broadcast, everything after it is
// best-effort.
func (s *SocialServer) SendMessage(sender types.User, conversationId, content string, media []types.MediaItem) (*types.Message, error) {
	if content == "" && len(media) == 0 {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.GetConversationByExternalId(conversationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if !hasParticipant(conv, sender.Id) {
		return nil, ErrNotParticipant
	}

	dbMedia := make([]database.Media, len(media))
	for i, m := range media {
		dbMedia[i] = database.Media{Url: m.Url, Type: m.Type}
	}

	dbMsg, err := s.store.CreateMessage(database.CreateMessageParams{
		ConversationId: conv.Id,
		SenderId:       sender.Id,
		Content:        content,
		Media:          dbMedia,
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	// the sender display snapshot rides on the delivery payload only,
	// it is never written to storage
	msg := &types.Message{
		Id:             dbMsg.Id,
		ConversationId: conv.ExternalId,
		Sender: types.User{
			Id:             sender.Id,
			Username:       sender.Username,
			FullName:       sender.FullName,
			ProfilePicture: sender.ProfilePicture,
		},
		Content:   content,
		Media:     media,
		Timestamp: dbMsg.CreatedAt,
	}

	if err := s.store.UpdateConversationOnMessage(conv.Id, dbMsg.Id, sender.Id); err != nil {
		s.log.Println("update conversation on message:", err)
	}

	// fan out to the conversation room, the sender's other connections
	// included
	s.rooms.Broadcast(ConversationRoom(conv.ExternalId), &ServerEvent{
		Timestamp:  msg.Timestamp,
		NewMessage: msg,
	})

	for _, p := range conv.Participants {
		if p.AccountId == sender.Id {
			continue
		}
		if !s.registry.IsOnline(p.AccountId) {
			s.push.Notify(p.AccountId, msg)
		}
	}

	s.stats.Incr(statMessagesSent)

	return msg, nil
}

func (s *SocialServer) handleSendMessage(evt *ClientEvent) {
	c := evt.client
	msg, err := s.SendMessage(c.user, evt.SendMessage.ConversationId, evt.SendMessage.Content, evt.SendMessage.Media)
	if err != nil {
		c.queueEvent(sendErrorEvent(evt.Id, err))
		return
	}

	c.queueEvent(NoErrOK(evt.Id, msg))
}

// sendErrorEvent maps dispatcher errors onto the error events returned
// to the originating connection only.
func sendErrorEvent(id int, err error) *ServerEvent {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		return ErrNotFoundEvent(id, "conversation")
	case errors.Is(err, ErrStoryNotFound):
		return ErrNotFoundEvent(id, "story")
	case errors.Is(err, ErrNotParticipant):
		return ErrForbiddenEvent(id)
	case errors.Is(err, ErrEmptyMessage):
		return ErrInvalidEvent(id)
	default:
		return ErrInternalEvent(id)
	}
}

func hasParticipant(conv database.Conversation, accountId int) bool {
	for _, p := range conv.Participants {
		if p.AccountId == accountId {
			return true
		}
	}
	return false
}
