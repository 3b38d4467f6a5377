package server

import (
	"context"
	"testing"
	"time"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/stats"
	"github.com/jdriscoll/go-social/internal/testutil"
	"github.com/jdriscoll/go-social/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// newTestSocialServer creates a SocialServer for testing purposes
func newTestSocialServer(t *testing.T, db database.SocialRepository, push OfflinePushNotifier, su *stats.MockStatsUpdater) *SocialServer {
	su.On("RegisterMetric", mock.Anything).Times(4)

	logger := testutil.TestLogger(t)
	if push == nil {
		push = NewLogPushNotifier(logger)
	}

	s, err := NewSocialServer(logger, db, push, su)
	if err != nil {
		t.Fatalf("failed to create test SocialServer: %v", err)
	}
	return s
}

// newTestClient creates a Client with no underlying connection. Events
// queued for it land in c.send where tests can read them.
func newTestClient(t *testing.T, s *SocialServer, user types.User) *Client {
	return &Client{
		server: s,
		log:    testutil.TestLogger(t),
		user:   user,
		send:   make(chan *ServerEvent, 256),
		stop:   make(chan struct{}),
	}
}

// receiveEvent pops the next queued event or fails the test.
func receiveEvent(t *testing.T, c *Client) *ServerEvent {
	t.Helper()
	select {
	case evt := <-c.send:
		return evt
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected a queued event")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case evt := <-c.send:
		t.Fatalf("expected no queued event, got %+v", evt)
	default:
	}
}

func TestNewSocialServer(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Times(4)

	logger := testutil.TestLogger(t)
	s, err := NewSocialServer(logger, db, NewLogPushNotifier(logger), su)
	assert.NoError(t, err, "expected no error creating SocialServer")
	assert.NotNil(t, s, "expected SocialServer to be non-nil")
	assert.Equal(t, logger, s.log, "expected logger to be set")
	assert.Equal(t, db, s.store, "expected repository to be set")
	assert.NotNil(t, s.registry, "expected session registry to be initialized")
	assert.NotNil(t, s.rooms, "expected room table to be initialized")
	assert.NotNil(t, s.presence, "expected presence tracker to be initialized")
	assert.NotNil(t, s.clients, "expected clients map to be initialized")
}

func TestRegisterClient(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	s := newTestSocialServer(t, db, nil, su)
	c := newTestClient(t, s, types.User{Id: 1, Username: "alice"})

	db.On("ListConversationsByParticipant", 1).Return([]database.Conversation{
		{Id: 10, ExternalId: "conv-a"},
		{Id: 11, ExternalId: "conv-b"},
	}, nil).Once()
	db.On("UpdateAccountPresence", 1, true, mock.AnythingOfType("time.Time")).Return(nil).Once()
	su.On("Incr", statActiveConnections).Once()
	su.On("Incr", statOnlineUsers).Once()

	s.RegisterClient(c)

	assert.True(t, s.IsOnline(1), "expected user to be online after registering")
	assert.ElementsMatch(t,
		[]string{PersonalRoom(1), ConversationRoom("conv-a"), ConversationRoom("conv-b")},
		s.rooms.RoomsOf(c),
		"expected client to join its personal room and conversation rooms")
}

func TestRegisterClient_SecondConnection(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	s := newTestSocialServer(t, db, nil, su)
	first := newTestClient(t, s, types.User{Id: 1, Username: "alice"})
	second := newTestClient(t, s, types.User{Id: 1, Username: "alice"})

	db.On("ListConversationsByParticipant", 1).Return(nil, nil).Twice()
	// presence persists only on the first connection
	db.On("UpdateAccountPresence", 1, true, mock.AnythingOfType("time.Time")).Return(nil).Once()
	su.On("Incr", statActiveConnections).Twice()
	su.On("Incr", statOnlineUsers).Once()

	s.RegisterClient(first)
	s.RegisterClient(second)

	assert.True(t, s.IsOnline(1))
}

func TestDeregisterClient(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	s := newTestSocialServer(t, db, nil, su)
	c := newTestClient(t, s, types.User{Id: 1, Username: "alice"})

	db.On("ListConversationsByParticipant", 1).Return(nil, nil).Once()
	db.On("UpdateAccountPresence", 1, true, mock.AnythingOfType("time.Time")).Return(nil).Once()
	db.On("UpdateAccountPresence", 1, false, mock.AnythingOfType("time.Time")).Return(nil).Once()
	su.On("Incr", statActiveConnections).Once()
	su.On("Incr", statOnlineUsers).Once()
	su.On("Decr", statActiveConnections).Once()
	su.On("Decr", statOnlineUsers).Once()

	s.RegisterClient(c)
	s.DeregisterClient(c)

	assert.False(t, s.IsOnline(1), "expected user to be offline after deregistering")
	assert.Empty(t, s.rooms.RoomsOf(c), "expected room membership to be torn down")

	// abrupt closes can race shutdown, cleanup must be idempotent
	s.DeregisterClient(c)
}

func TestJoinUserToConversation(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	s := newTestSocialServer(t, db, nil, su)
	c := newTestClient(t, s, types.User{Id: 1, Username: "alice"})

	db.On("ListConversationsByParticipant", 1).Return(nil, nil).Once()
	db.On("UpdateAccountPresence", 1, true, mock.AnythingOfType("time.Time")).Return(nil).Once()
	su.On("Incr", mock.Anything).Twice()

	s.RegisterClient(c)

	s.JoinUserToConversation(1, "conv-a")
	assert.Contains(t, s.rooms.RoomsOf(c), ConversationRoom("conv-a"))

	// no live connections for an unknown user, nothing happens
	s.JoinUserToConversation(2, "conv-a")
	assert.Len(t, s.rooms.Members(ConversationRoom("conv-a")), 1)

	s.RemoveUserFromConversation(1, "conv-a")
	assert.NotContains(t, s.rooms.RoomsOf(c), ConversationRoom("conv-a"))
}

func TestSocialServerShutdown(t *testing.T) {
	t.Run("no clients", func(t *testing.T) {
		s := newTestSocialServer(t, &database.MockSocialRepository{}, nil, &stats.MockStatsUpdater{})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, s.Shutdown(ctx))
	})

	t.Run("waits for client cleanup", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		su := &stats.MockStatsUpdater{}

		s := newTestSocialServer(t, db, nil, su)
		c := newTestClient(t, s, types.User{Id: 1, Username: "alice"})

		db.On("ListConversationsByParticipant", 1).Return(nil, nil).Once()
		db.On("UpdateAccountPresence", 1, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Twice()
		su.On("Incr", mock.Anything).Twice()
		su.On("Decr", mock.Anything).Twice()

		s.RegisterClient(c)

		// stand in for the read pump: deregister once stopped
		go func() {
			<-c.stop
			s.DeregisterClient(c)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, s.Shutdown(ctx))
		assert.False(t, s.IsOnline(1))
	})

	t.Run("fails with context deadline exceeded", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		su := &stats.MockStatsUpdater{}

		s := newTestSocialServer(t, db, nil, su)
		c := newTestClient(t, s, types.User{Id: 1, Username: "alice"})

		db.On("ListConversationsByParticipant", 1).Return(nil, nil).Once()
		db.On("UpdateAccountPresence", 1, true, mock.AnythingOfType("time.Time")).Return(nil).Once()
		su.On("Incr", mock.Anything).Twice()

		s.RegisterClient(c)
		// nothing deregisters the client, shutdown cannot finish

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)
	})
}
