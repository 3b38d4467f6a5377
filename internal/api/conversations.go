package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/types"
)

type CreateConversationRequest struct {
	ParticipantId int `json:"participant_id"`
}

type CreateGroupConversationRequest struct {
	GroupName      string `json:"group_name"`
	ParticipantIds []int  `json:"participant_ids"`
}

type AddParticipantsRequest struct {
	ParticipantIds []int `json:"participant_ids"`
}

// toApiConversation shapes a conversation for one viewer: their unread
// counter, the populated last message if there is one.
func (s *SocialApp) toApiConversation(conv database.Conversation, viewerId int) types.Conversation {
	out := types.Conversation{
		Id:           conv.Id,
		ExternalId:   conv.ExternalId,
		IsGroup:      conv.IsGroup,
		GroupName:    conv.GroupName,
		GroupAdminId: conv.GroupAdminId,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}

	for _, p := range conv.Participants {
		out.Participants = append(out.Participants, types.User{
			Id:             p.AccountId,
			Username:       p.Username,
			FullName:       p.FullName,
			ProfilePicture: p.ProfilePicture,
		})
		if p.AccountId == viewerId {
			out.UnreadCount = p.UnreadCount
		}
	}

	if conv.LastMessageId != 0 {
		if msg, err := s.db.GetMessageById(conv.LastMessageId); err == nil {
			apiMsg := toApiMessage(msg, conv)
			out.LastMessage = &apiMsg
		} else if !errors.Is(err, sql.ErrNoRows) {
			s.log.Println("get last message:", err)
		}
	}

	return out
}

func toApiMessage(msg database.Message, conv database.Conversation) types.Message {
	out := types.Message{
		Id:             msg.Id,
		ConversationId: conv.ExternalId,
		Sender:         types.User{Id: msg.SenderId},
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		Timestamp:      msg.CreatedAt,
	}

	for _, p := range conv.Participants {
		if p.AccountId == msg.SenderId {
			out.Sender.Username = p.Username
			out.Sender.FullName = p.FullName
			out.Sender.ProfilePicture = p.ProfilePicture
			break
		}
	}

	for _, m := range msg.Media {
		out.Media = append(out.Media, types.MediaItem{Url: m.Url, Type: m.Type})
	}
	for _, rm := range msg.ReadBy {
		out.ReadBy = append(out.ReadBy, types.ReadMark{UserId: rm.AccountId, ReadAt: rm.ReadAt})
	}

	return out
}

func (s *SocialApp) createConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ParticipantId == 0 || req.ParticipantId == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetAccountById(req.ParticipantId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, created, err := s.db.GetOrCreateDirectConversation(userId, req.ParticipantId, sid)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if created {
		s.cs.JoinUserToConversation(userId, conv.ExternalId)
		s.cs.JoinUserToConversation(req.ParticipantId, conv.ExternalId)
	}

	statusCode := http.StatusOK
	if created {
		statusCode = http.StatusCreated
	}
	s.writeJson(w, statusCode, s.toApiConversation(conv, userId))
}

func (s *SocialApp) createGroupConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateGroupConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupName == "" || len(req.ParticipantIds) == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, err := s.db.CreateGroupConversation(database.CreateGroupConversationParams{
		ExternalId:     sid,
		GroupName:      req.GroupName,
		AdminId:        userId,
		ParticipantIds: req.ParticipantIds,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	for _, p := range conv.Participants {
		s.cs.JoinUserToConversation(p.AccountId, conv.ExternalId)
	}

	s.writeJson(w, http.StatusCreated, s.toApiConversation(conv, userId))
}

func (s *SocialApp) getConversations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbConvs, err := s.db.ListConversationsByParticipant(userId)
	if err != nil {
		s.log.Println("list conversations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conversations := make([]types.Conversation, 0, len(dbConvs))
	for _, conv := range dbConvs {
		conversations = append(conversations, s.toApiConversation(conv, userId))
	}

	s.writeJson(w, http.StatusOK, conversations)
}

// lookupConversation loads the conversation from the path and checks
// the caller is a participant.
func (s *SocialApp) lookupConversation(r *http.Request, userId int) (database.Conversation, *ApiError) {
	externalId := r.PathValue("id")
	if externalId == "" {
		return database.Conversation{}, NewBadRequestError()
	}

	conv, err := s.db.GetConversationByExternalId(externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Conversation{}, NewNotFoundError()
		}
		return database.Conversation{}, NewInternalServerError(err)
	}

	for _, p := range conv.Participants {
		if p.AccountId == userId {
			return conv, nil
		}
	}

	return database.Conversation{}, NewForbiddenError()
}

func (s *SocialApp) getConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, errResp := s.lookupConversation(r, userId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, s.toApiConversation(conv, userId))
}

func (s *SocialApp) addParticipants(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, errResp := s.lookupConversation(r, userId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// only the group admin can add members
	if !conv.IsGroup || conv.GroupAdminId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req AddParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ParticipantIds) == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.AddParticipants(conv.Id, req.ParticipantIds); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	for _, participantId := range req.ParticipantIds {
		s.cs.JoinUserToConversation(participantId, conv.ExternalId)
	}

	conv, err := s.db.GetConversationByExternalId(conv.ExternalId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, s.toApiConversation(conv, userId))
}

func (s *SocialApp) removeParticipant(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, errResp := s.lookupConversation(r, userId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !conv.IsGroup || conv.GroupAdminId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	memberId, err := strconv.Atoi(r.PathValue("userId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.RemoveParticipant(conv.Id, memberId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.RemoveUserFromConversation(memberId, conv.ExternalId)

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *SocialApp) leaveConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, errResp := s.lookupConversation(r, userId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !conv.IsGroup {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.RemoveParticipant(conv.Id, userId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// the departing admin hands the group to the first remaining
	// participant in join order
	if conv.GroupAdminId == userId {
		for _, p := range conv.Participants {
			if p.AccountId == userId {
				continue
			}
			if err := s.db.SetGroupAdmin(conv.Id, p.AccountId); err != nil {
				s.log.Println("reassign group admin:", err)
			}
			break
		}
	}

	s.cs.RemoveUserFromConversation(userId, conv.ExternalId)

	s.writeJson(w, http.StatusNoContent, nil)
}
