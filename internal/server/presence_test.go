package server

import (
	"testing"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/testutil"
	"github.com/jdriscoll/go-social/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPresenceTracker_ClientConnected(t *testing.T) {
	t.Run("first connection persists and notifies", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		rt := NewRoomTable(testutil.TestLogger(t))
		p := NewPresenceTracker(testutil.TestLogger(t), db, rt)

		alice := &Client{user: types.User{Id: 1, Username: "alice"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}
		bob := &Client{user: types.User{Id: 2, Username: "bob"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}

		rt.Join(alice, PersonalRoom(1))
		rt.Join(alice, ConversationRoom("abc"))
		rt.Join(bob, ConversationRoom("abc"))
		rt.Join(bob, PersonalRoom(2))

		db.On("UpdateAccountPresence", 1, true, mock.AnythingOfType("time.Time")).Return(nil).Once()

		p.ClientConnected(alice, true)

		evt := <-bob.send
		assert.NotNil(t, evt.Presence, "expected a presence notice")
		assert.Equal(t, 1, evt.Presence.UserId)
		assert.True(t, evt.Presence.IsOnline)
		assert.Nil(t, evt.Presence.LastSeen, "expected no last-seen on an online notice")

		// the connecting client itself hears nothing
		assert.Empty(t, alice.send)
	})

	t.Run("second connection is invisible", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		rt := NewRoomTable(testutil.TestLogger(t))
		p := NewPresenceTracker(testutil.TestLogger(t), db, rt)

		alice := &Client{user: types.User{Id: 1, Username: "alice"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}
		rt.Join(alice, ConversationRoom("abc"))

		p.ClientConnected(alice, false)
	})
}

func TestPresenceTracker_ClientDisconnected(t *testing.T) {
	t.Run("last connection persists last-seen and notifies", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		rt := NewRoomTable(testutil.TestLogger(t))
		p := NewPresenceTracker(testutil.TestLogger(t), db, rt)

		alice := &Client{user: types.User{Id: 1, Username: "alice"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}
		bob := &Client{user: types.User{Id: 2, Username: "bob"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}

		rt.Join(bob, ConversationRoom("abc"))

		db.On("UpdateAccountPresence", 1, false, mock.AnythingOfType("time.Time")).Return(nil).Once()

		// room ids are captured before membership teardown; the
		// personal room is filtered out of the notice fan-out
		p.ClientDisconnected(alice, []string{PersonalRoom(1), ConversationRoom("abc")}, true)

		evt := <-bob.send
		assert.NotNil(t, evt.Presence)
		assert.Equal(t, 1, evt.Presence.UserId)
		assert.False(t, evt.Presence.IsOnline)
		assert.NotNil(t, evt.Presence.LastSeen, "expected last-seen on an offline notice")
	})

	t.Run("remaining connections suppress the notice", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)

		rt := NewRoomTable(testutil.TestLogger(t))
		p := NewPresenceTracker(testutil.TestLogger(t), db, rt)

		alice := &Client{user: types.User{Id: 1, Username: "alice"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}
		bob := &Client{user: types.User{Id: 2, Username: "bob"}, log: testutil.TestLogger(t), send: make(chan *ServerEvent, 4), stop: make(chan struct{})}
		rt.Join(bob, ConversationRoom("abc"))

		p.ClientDisconnected(alice, []string{ConversationRoom("abc")}, false)

		assert.Empty(t, bob.send)
	})
}
