package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetNotificationsHandler(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)

	db.On("ListNotifications", 1, defaultNotificationPageSize).Return([]database.Notification{
		{Id: 3, RecipientId: 1, SenderId: 2, Type: types.NotificationFollow, Message: "bob started following you"},
		{Id: 2, RecipientId: 1, SenderId: 2, Type: types.NotificationLike, RelatedId: "post-7", Message: "bob liked your post"},
		{Id: 1, RecipientId: 1, SenderId: 3, Type: types.NotificationComment, RelatedId: "post-5", Message: "carol commented on your post", IsRead: true},
	}, nil).Once()
	// repeated senders resolve once
	db.On("GetAccountById", 2).Return(database.User{Id: 2, Username: "bob"}, nil).Once()
	db.On("GetAccountById", 3).Return(database.User{Id: 3, Username: "carol"}, nil).Once()

	app := newTestSocialApp(t, db)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req = req.WithContext(WithUserId(req.Context(), 1))

	app.getNotifications(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []types.Notification
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got, 3)
	assert.Equal(t, "bob", got[0].Sender.Username)
	assert.Equal(t, "bob", got[1].Sender.Username)
	assert.Equal(t, "carol", got[2].Sender.Username)
	assert.True(t, got[2].IsRead)
}

func TestMarkNotificationReadHandler(t *testing.T) {
	t.Run("marks the recipient's notification", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("MarkNotificationRead", 9, 1).Return(nil).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/notifications/9/read", nil)
		req.SetPathValue("id", "9")
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.markNotificationRead(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("unknown or foreign notification", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		// the store reports no rows whether the id is unknown or
		// belongs to someone else
		db.On("MarkNotificationRead", 9, 1).Return(sql.ErrNoRows).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/notifications/9/read", nil)
		req.SetPathValue("id", "9")
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.markNotificationRead(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestFollowUserHandler(t *testing.T) {
	t.Run("follows and notifies the target", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 2).Return(database.User{Id: 2, Username: "bob"}, nil).Once()
		db.On("FollowAccount", 1, 2).Return(nil).Once()
		db.On("GetAccountById", 1).Return(database.User{Id: 1, Username: "alice"}, nil).Once()
		db.On("CreateNotification", database.CreateNotificationParams{
			RecipientId: 2,
			SenderId:    1,
			Type:        types.NotificationFollow,
			Message:     "alice started following you",
		}).Return(database.Notification{Id: 9, RecipientId: 2, SenderId: 1}, nil).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/users/2/follow", nil)
		req.SetPathValue("id", "2")
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.followUser(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("cannot follow yourself", func(t *testing.T) {
		app := newTestSocialApp(t, &database.MockSocialRepository{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/users/1/follow", nil)
		req.SetPathValue("id", "1")
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.followUser(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 99).Return(database.User{}, sql.ErrNoRows).Once()

		app := newTestSocialApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/users/99/follow", nil)
		req.SetPathValue("id", "99")
		req = req.WithContext(WithUserId(req.Context(), 1))

		app.followUser(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		db.AssertNotCalled(t, "FollowAccount", mock.Anything, mock.Anything)
	})
}

func TestUnfollowUserHandler(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)
	db.On("UnfollowAccount", 1, 2).Return(nil).Once()

	app := newTestSocialApp(t, db)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/2/follow", nil)
	req.SetPathValue("id", "2")
	req = req.WithContext(WithUserId(req.Context(), 1))

	app.unfollowUser(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}
