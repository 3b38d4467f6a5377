package server

import (
	"log"
	"strings"
	"time"

	"github.com/jdriscoll/go-social/internal/database"
)

// PresenceTracker derives online/offline state from session registry
// occupancy. Only the 0-to-1 and 1-to-0 transitions persist anything
// or notify anyone; a second device connecting is invisible.
type PresenceTracker struct {
	log   *log.Logger
	store database.SocialRepository
	rooms *RoomTable
}

func NewPresenceTracker(logger *log.Logger, store database.SocialRepository, rooms *RoomTable) *PresenceTracker {
	return &PresenceTracker{
		log:   logger,
		store: store,
		rooms: rooms,
	}
}

// ClientConnected handles a registry transition for a freshly
// registered connection. Called after the connection has joined its
// rooms so the presence notice reaches its conversations.
func (p *PresenceTracker) ClientConnected(c *Client, first bool) {
	if !first {
		return
	}

	if err := p.store.UpdateAccountPresence(c.user.Id, true, time.Now().UTC()); err != nil {
		p.log.Println("persist online status:", err)
	}

	p.notify(c, p.rooms.RoomsOf(c), &PresenceNotice{
		UserId:   c.user.Id,
		IsOnline: true,
	})
}

// ClientDisconnected persists last-seen and notifies the rooms the
// connection occupied before its membership was torn down.
func (p *PresenceTracker) ClientDisconnected(c *Client, roomIds []string, last bool) {
	if !last {
		return
	}

	lastSeen := time.Now().UTC()
	if err := p.store.UpdateAccountPresence(c.user.Id, false, lastSeen); err != nil {
		p.log.Println("persist offline status:", err)
	}

	p.notify(c, roomIds, &PresenceNotice{
		UserId:   c.user.Id,
		IsOnline: false,
		LastSeen: &lastSeen,
	})
}

func (p *PresenceTracker) notify(c *Client, roomIds []string, notice *PresenceNotice) {
	for _, roomId := range roomIds {
		// conversation rooms only; the personal room is the user's own
		if !strings.HasPrefix(roomId, "conv:") {
			continue
		}
		p.rooms.Broadcast(roomId, &ServerEvent{
			Timestamp:  Now(),
			Presence:   notice,
			SkipClient: c,
		})
	}
}
