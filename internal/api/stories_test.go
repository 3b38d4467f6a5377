package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateStoryHandler(t *testing.T) {
	author := database.User{Id: 1, Username: "alice"}

	t.Run("creates a story expiring in a day", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 1).Return(author, nil).Once()
		db.On("CreateStory", mock.MatchedBy(func(p database.CreateStoryParams) bool {
			ttl := time.Until(p.ExpiresAt)
			return p.ExternalId == "story-ext" && p.AuthorId == 1 &&
				p.MediaUrl == "https://cdn/clip.mp4" &&
				ttl > 23*time.Hour && ttl <= 24*time.Hour
		})).Return(database.Story{
			Id:         5,
			ExternalId: "story-ext",
			AuthorId:   1,
			MediaUrl:   "https://cdn/clip.mp4",
			MediaType:  "video",
			ExpiresAt:  time.Now().UTC().Add(storyTTL),
		}, nil).Once()
		db.On("GetFollowers", 1).Return([]database.User{{Id: 2}, {Id: 3}}, nil).Once()

		app := newTestSocialApp(t, db)
		app.generateShortId = func() (string, error) { return "story-ext", nil }

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, CreateStoryRequest{
			MediaUrl:  "https://cdn/clip.mp4",
			MediaType: "video",
		}))
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.createStory(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var story types.Story
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&story))
		assert.Equal(t, "story-ext", story.ExternalId)
		assert.Equal(t, "alice", story.Author.Username)
		assert.Equal(t, "video", story.Media.Type)
	})

	t.Run("rejects a story without media", func(t *testing.T) {
		app := newTestSocialApp(t, &database.MockSocialRepository{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, CreateStoryRequest{Caption: "no media"}))
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.createStory(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestViewStoryHandler(t *testing.T) {
	viewer := database.User{Id: 2, Username: "bob"}
	story := database.Story{Id: 5, ExternalId: "story-ext", AuthorId: 1}

	t.Run("records the view", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 2).Return(viewer, nil).Once()
		db.On("GetStoryByExternalId", "story-ext").Return(story, nil).Once()
		db.On("AppendStoryView", 5, 2, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/stories/story-ext/view", nil)
		req.SetPathValue("id", "story-ext")
		req = req.WithContext(WithUserId(req.Context(), 2))

		app.viewStory(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("unknown story", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 2).Return(viewer, nil).Once()
		db.On("GetStoryByExternalId", "nope").Return(database.Story{}, sql.ErrNoRows).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/stories/nope/view", nil)
		req.SetPathValue("id", "nope")
		req = req.WithContext(WithUserId(req.Context(), 2))

		app.viewStory(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetStoryHandler(t *testing.T) {
	t.Run("returns a live story with views", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		db.On("GetStoryByExternalId", "story-ext").Return(database.Story{
			Id:         5,
			ExternalId: "story-ext",
			AuthorId:   1,
			MediaUrl:   "https://cdn/clip.mp4",
			MediaType:  "video",
			Views:      []database.StoryView{{AccountId: 2, ViewedAt: time.Now().UTC()}},
			ExpiresAt:  time.Now().UTC().Add(time.Hour),
		}, nil).Once()
		db.On("GetAccountById", 1).Return(database.User{Id: 1, Username: "alice"}, nil).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/stories/story-ext", nil)
		req.SetPathValue("id", "story-ext")
		req = req.WithContext(WithUserId(req.Context(), 2))

		app.getStory(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var story types.Story
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&story))
		require.Len(t, story.Views, 1)
		assert.Equal(t, 2, story.Views[0].UserId)
	})

	t.Run("expired story reads as gone", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		db.On("GetStoryByExternalId", "story-ext").Return(database.Story{
			Id:         5,
			ExternalId: "story-ext",
			AuthorId:   1,
			ExpiresAt:  time.Now().UTC().Add(-time.Minute),
		}, nil).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/stories/story-ext", nil)
		req.SetPathValue("id", "story-ext")
		req = req.WithContext(WithUserId(req.Context(), 2))

		app.getStory(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
