package server

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jdriscoll/go-social/internal/types"
)

// Typing indicators are never persisted and carry no cross-sender
// ordering guarantee; a single sender's indicators stay ordered because
// they all pass through that sender's read pump.
func (s *SocialServer) handleTyping(evt *ClientEvent, stopped bool) {
	c := evt.client

	payload := evt.Typing
	if stopped {
		payload = evt.StopTyping
	}

	notice := &TypingNotice{
		UserId:         c.user.Id,
		ConversationId: payload.ConversationId,
	}

	out := &ServerEvent{Timestamp: Now(), SkipClient: c}
	if stopped {
		out.UserStoppedTyping = notice
	} else {
		out.UserTyping = notice
	}

	s.rooms.Broadcast(ConversationRoom(payload.ConversationId), out)
}

// MarkMessagesRead bulk-updates read state and tells the room. The
// durable update skips messages the reader authored and re-marking is
// a no-op, but the messages-read notice is broadcast either way.
func (s *SocialServer) MarkMessagesRead(reader types.User, conversationId string, messageIds []int) error {
	conv, err := s.store.GetConversationByExternalId(conversationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("get conversation: %w", err)
	}

	if !hasParticipant(conv, reader.Id) {
		return ErrNotParticipant
	}

	if err := s.store.BulkMarkRead(conv.Id, reader.Id, messageIds); err != nil {
		return fmt.Errorf("bulk mark read: %w", err)
	}

	s.rooms.Broadcast(ConversationRoom(conv.ExternalId), &ServerEvent{
		Timestamp: Now(),
		MessagesRead: &MessagesReadNotice{
			ConversationId: conv.ExternalId,
			UserId:         reader.Id,
			MessageIds:     messageIds,
		},
	})

	return nil
}

func (s *SocialServer) handleMarkRead(evt *ClientEvent) {
	c := evt.client
	if err := s.MarkMessagesRead(c.user, evt.MarkRead.ConversationId, evt.MarkRead.MessageIds); err != nil {
		s.log.Println("mark read:", err)
		c.queueEvent(sendErrorEvent(evt.Id, err))
		return
	}

	c.queueEvent(NoErrOK(evt.Id, nil))
}

// RecordStoryView appends a (viewer, time) pair to the story's view
// list iff the viewer has not seen it before, then pings the author's
// personal room. The author's own views are recorded like any other
// but never announced; repeat views do neither.
func (s *SocialServer) RecordStoryView(viewer types.User, storyExternalId string) error {
	story, err := s.store.GetStoryByExternalId(storyExternalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStoryNotFound
		}
		return fmt.Errorf("get story: %w", err)
	}

	added, err := s.store.AppendStoryView(story.Id, viewer.Id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append story view: %w", err)
	}
	if !added || story.AuthorId == viewer.Id {
		return nil
	}

	s.rooms.Broadcast(PersonalRoom(story.AuthorId), &ServerEvent{
		Timestamp: Now(),
		StoryViewed: &StoryViewedNotice{
			StoryId: story.ExternalId,
			Viewer: types.User{
				Id:             viewer.Id,
				Username:       viewer.Username,
				FullName:       viewer.FullName,
				ProfilePicture: viewer.ProfilePicture,
			},
		},
	})

	return nil
}

// AnnounceStory pushes a new-story notice to each follower's personal
// room. Only followers with live connections hear it; the rest catch
// up from the story feed.
func (s *SocialServer) AnnounceStory(author types.User, storyExternalId string, followerIds []int) {
	notice := &StoryNotice{
		StoryId: storyExternalId,
		Author: types.User{
			Id:             author.Id,
			Username:       author.Username,
			FullName:       author.FullName,
			ProfilePicture: author.ProfilePicture,
		},
	}

	for _, followerId := range followerIds {
		s.rooms.Broadcast(PersonalRoom(followerId), &ServerEvent{
			Timestamp: Now(),
			NewStory:  notice,
		})
	}
}
