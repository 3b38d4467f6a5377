package server

import (
	"log"
	"strconv"
	"sync"
)

// Room ids. Every user has a personal room for notifications and
// direct notices; every conversation has one room for fan-out.
func PersonalRoom(userId int) string {
	return "user:" + strconv.Itoa(userId)
}

func ConversationRoom(externalId string) string {
	return "conv:" + externalId
}

// RoomTable tracks which connections are subscribed to which rooms.
// Membership is derived state: it is rebuilt from the durable
// participant lists on connect and never persisted.
type RoomTable struct {
	log *log.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	// reverse index, so disconnect cleanup doesn't walk every room
	joined map[*Client]map[string]struct{}
}

func NewRoomTable(logger *log.Logger) *RoomTable {
	return &RoomTable{
		log:    logger,
		rooms:  make(map[string]map[*Client]struct{}),
		joined: make(map[*Client]map[string]struct{}),
	}
}

func (rt *RoomTable) Join(c *Client, roomId string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.rooms[roomId] == nil {
		rt.rooms[roomId] = make(map[*Client]struct{})
	}
	rt.rooms[roomId][c] = struct{}{}

	if rt.joined[c] == nil {
		rt.joined[c] = make(map[string]struct{})
	}
	rt.joined[c][roomId] = struct{}{}
}

func (rt *RoomTable) Leave(c *Client, roomId string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.leaveLocked(c, roomId)
}

func (rt *RoomTable) leaveLocked(c *Client, roomId string) {
	if members, ok := rt.rooms[roomId]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(rt.rooms, roomId)
		}
	}
	if roomIds, ok := rt.joined[c]; ok {
		delete(roomIds, roomId)
		if len(roomIds) == 0 {
			delete(rt.joined, c)
		}
	}
}

func (rt *RoomTable) LeaveAll(c *Client) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for roomId := range rt.joined[c] {
		rt.leaveLocked(c, roomId)
	}
}

// RoomsOf returns a snapshot of the room ids the connection has joined.
func (rt *RoomTable) RoomsOf(c *Client) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	roomIds := make([]string, 0, len(rt.joined[c]))
	for roomId := range rt.joined[c] {
		roomIds = append(roomIds, roomId)
	}
	return roomIds
}

// Members returns a snapshot of the room's current connections.
func (rt *RoomTable) Members(roomId string) []*Client {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	members := make([]*Client, 0, len(rt.rooms[roomId]))
	for c := range rt.rooms[roomId] {
		members = append(members, c)
	}
	return members
}

// Broadcast queues the event to every connection currently in the
// room, except evt.SkipClient. Delivery is independent per connection:
// the membership snapshot is taken before fan-out and a slow or dead
// connection only drops its own copy.
func (rt *RoomTable) Broadcast(roomId string, evt *ServerEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = Now()
	}

	for _, c := range rt.Members(roomId) {
		if c == evt.SkipClient {
			continue
		}
		if !c.queueEvent(evt) {
			rt.log.Printf("dropped event for %q in room %q", c.user.Username, roomId)
		}
	}
}
