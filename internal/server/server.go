package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/stats"
)

const (
	statActiveConnections      = "NumActiveConnections"
	statOnlineUsers            = "NumOnlineUsers"
	statMessagesSent           = "NumMessagesSent"
	statNotificationsDelivered = "NumNotificationsDelivered"
)

// SocialServer owns the realtime state: the session registry, the room
// table and the presence tracker. Both the websocket dispatch loop and
// the HTTP layer drive it; all durable writes go through the store
// without holding any in-memory lock.
type SocialServer struct {
	log      *log.Logger
	store    database.SocialRepository
	push     OfflinePushNotifier
	stats    stats.StatsProvider
	registry *SessionRegistry
	rooms    *RoomTable
	presence *PresenceTracker

	clientsLock sync.Mutex
	clients     map[*Client]struct{}
}

func NewSocialServer(logger *log.Logger, store database.SocialRepository, push OfflinePushNotifier, sp stats.StatsProvider) (*SocialServer, error) {
	rooms := NewRoomTable(logger)

	s := &SocialServer{
		log:      logger,
		store:    store,
		push:     push,
		stats:    sp,
		registry: NewSessionRegistry(),
		rooms:    rooms,
		presence: NewPresenceTracker(logger, store, rooms),
		clients:  make(map[*Client]struct{}),
	}

	sp.RegisterMetric(statActiveConnections)
	sp.RegisterMetric(statOnlineUsers)
	sp.RegisterMetric(statMessagesSent)
	sp.RegisterMetric(statNotificationsDelivered)

	return s, nil
}

// RegisterClient wires a freshly upgraded connection into the realtime
// state: registry entry, personal room, conversation rooms, presence.
func (s *SocialServer) RegisterClient(c *Client) {
	s.clientsLock.Lock()
	s.clients[c] = struct{}{}
	s.clientsLock.Unlock()

	first := s.registry.Register(c)

	s.rooms.Join(c, PersonalRoom(c.user.Id))
	s.joinConversationRooms(c)

	s.presence.ClientConnected(c, first)

	s.stats.Incr(statActiveConnections)
	if first {
		s.stats.Incr(statOnlineUsers)
	}

	s.log.Printf("connection registered for %q", c.user.Username)
}

// DeregisterClient is disconnect cleanup; it is idempotent because
// abrupt closes can race shutdown.
func (s *SocialServer) DeregisterClient(c *Client) {
	s.clientsLock.Lock()
	_, known := s.clients[c]
	delete(s.clients, c)
	s.clientsLock.Unlock()
	if !known {
		return
	}

	roomIds := s.rooms.RoomsOf(c)
	last := s.registry.Unregister(c)
	s.rooms.LeaveAll(c)

	s.presence.ClientDisconnected(c, roomIds, last)

	s.stats.Decr(statActiveConnections)
	if last {
		s.stats.Decr(statOnlineUsers)
	}

	s.log.Printf("connection removed for %q", c.user.Username)
}

// joinConversationRooms re-derives room membership from the durable
// participant lists.
func (s *SocialServer) joinConversationRooms(c *Client) {
	conversations, err := s.store.ListConversationsByParticipant(c.user.Id)
	if err != nil {
		s.log.Println("list conversations on connect:", err)
		return
	}

	for _, conv := range conversations {
		s.rooms.Join(c, ConversationRoom(conv.ExternalId))
	}
}

func (s *SocialServer) handleJoinConversations(evt *ClientEvent) {
	s.joinConversationRooms(evt.client)
	evt.client.queueEvent(NoErrOK(evt.Id, nil))
}

// JoinUserToConversation subscribes every live connection of the user
// to the conversation's room. Called when a conversation is created or
// a participant added while the user is connected.
func (s *SocialServer) JoinUserToConversation(userId int, conversationExternalId string) {
	roomId := ConversationRoom(conversationExternalId)
	for _, c := range s.registry.ConnectionsFor(userId) {
		s.rooms.Join(c, roomId)
	}
}

// RemoveUserFromConversation unsubscribes every live connection of the
// user from the conversation's room.
func (s *SocialServer) RemoveUserFromConversation(userId int, conversationExternalId string) {
	roomId := ConversationRoom(conversationExternalId)
	for _, c := range s.registry.ConnectionsFor(userId) {
		s.rooms.Leave(c, roomId)
	}
}

func (s *SocialServer) IsOnline(userId int) bool {
	return s.registry.IsOnline(userId)
}

// Shutdown stops every client pump and waits for their cleanup to
// finish or the context to expire.
func (s *SocialServer) Shutdown(ctx context.Context) error {
	s.clientsLock.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsLock.Unlock()

	for _, c := range clients {
		c.stopClient()
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		s.clientsLock.Lock()
		remaining := len(s.clients)
		s.clientsLock.Unlock()
		if remaining == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
