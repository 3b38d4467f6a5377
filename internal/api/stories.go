package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/server"
	"github.com/jdriscoll/go-social/internal/types"
)

// Stories expire a day after posting.
const storyTTL = 24 * time.Hour

type CreateStoryRequest struct {
	MediaUrl  string `json:"media_url"`
	MediaType string `json:"media_type"`
	Caption   string `json:"caption,omitempty"`
}

func toApiStory(story database.Story, author types.User) types.Story {
	out := types.Story{
		Id:         story.Id,
		ExternalId: story.ExternalId,
		Author:     author,
		Media:      types.MediaItem{Url: story.MediaUrl, Type: story.MediaType},
		Caption:    story.Caption,
		CreatedAt:  story.CreatedAt,
		ExpiresAt:  story.ExpiresAt,
	}

	for _, v := range story.Views {
		out.Views = append(out.Views, types.StoryView{UserId: v.AccountId, ViewedAt: v.ViewedAt})
	}

	return out
}

func (s *SocialApp) createStory(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MediaUrl == "" || req.MediaType == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountById(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	story, err := s.db.CreateStory(database.CreateStoryParams{
		ExternalId: sid,
		AuthorId:   userId,
		MediaUrl:   req.MediaUrl,
		MediaType:  req.MediaType,
		Caption:    req.Caption,
		ExpiresAt:  time.Now().UTC().Add(storyTTL),
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	followers, err := s.db.GetFollowers(userId)
	if err != nil {
		s.log.Println("get followers:", err)
	} else {
		followerIds := make([]int, 0, len(followers))
		for _, f := range followers {
			followerIds = append(followerIds, f.Id)
		}
		s.cs.AnnounceStory(toApiUser(account), story.ExternalId, followerIds)
	}

	s.writeJson(w, http.StatusCreated, toApiStory(story, toApiUser(account)))
}

func (s *SocialApp) viewStory(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountById(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.cs.RecordStoryView(toApiUser(account), r.PathValue("id")); err != nil {
		var errResp *ApiError
		if errors.Is(err, server.ErrStoryNotFound) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// expired stories are swept by the cleanup job, but a direct fetch of
// an expired story should already read as gone
func (s *SocialApp) getStory(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserId(r.Context()); !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	story, err := s.db.GetStoryByExternalId(r.PathValue("id"))
	if err != nil || story.ExpiresAt.Before(time.Now().UTC()) {
		var errResp *ApiError
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			errResp = NewInternalServerError(err)
		} else {
			errResp = NewNotFoundError()
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	author, err := s.db.GetAccountById(story.AuthorId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toApiStory(story, toApiUser(author)))
}
