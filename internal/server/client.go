package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jdriscoll/go-social/internal/types"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// large enough for a message with a handful of media refs or a
	// full SDP offer
	maxEventSize = 16384
)

// Client is one live connection, bound to a single authenticated user
// for its whole lifetime. Inbound events are dispatched sequentially
// from the read pump, so a single sender's events keep their order.
type Client struct {
	conn   *websocket.Conn
	server *SocialServer
	log    *log.Logger
	user   types.User
	send   chan *ServerEvent
	stop   chan struct{}

	stopOnce sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, s *SocialServer, l *log.Logger) *Client {
	return &Client{
		conn:   conn,
		server: s,
		log:    l,
		user:   user,
		send:   make(chan *ServerEvent, 256),
		stop:   make(chan struct{}),
	}
}

func (c *Client) User() types.User {
	return c.user
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(evt)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeFrame(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxEventSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var evt ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.log.Println("error parsing event:", err)
			c.queueEvent(ErrInvalidEvent(-1))
			continue
		}

		evt.client = c
		evt.Timestamp = Now()
		c.dispatch(&evt)
	}
}

func (c *Client) dispatch(evt *ClientEvent) {
	switch {
	case evt.JoinConversations != nil:
		c.server.handleJoinConversations(evt)
	case evt.SendMessage != nil:
		c.server.handleSendMessage(evt)
	case evt.Typing != nil:
		c.server.handleTyping(evt, false)
	case evt.StopTyping != nil:
		c.server.handleTyping(evt, true)
	case evt.MarkRead != nil:
		c.server.handleMarkRead(evt)
	case evt.CallUser != nil:
		c.server.handleCallUser(evt)
	case evt.AnswerCall != nil:
		c.server.handleAnswerCall(evt)
	case evt.IceCandidate != nil:
		c.server.handleIceCandidate(evt)
	case evt.EndCall != nil:
		c.server.handleEndCall(evt)
	default:
		c.queueEvent(ErrInvalidEvent(evt.Id))
	}
}

// queueEvent enqueues without blocking; a full send buffer drops the
// event for this connection only.
func (c *Client) queueEvent(evt *ServerEvent) bool {
	select {
	case c.send <- evt:
	default:
		c.log.Printf("send buffer full for %q, dropping event", c.user.Username)
		return false
	}

	return true
}

func (c *Client) writeFrame(msgType int, data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, data); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write frame: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.server.DeregisterClient(c)
	c.stopClient()
}
