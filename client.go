package main

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client wraps one websocket connection. Its id doubles as the player id
// for the lifetime of the connection.
type client struct {
	id        string
	conn      *websocket.Conn
	send      chan any
	room      *room // set by the read pump once a join succeeds
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, 32),
	}
}

// close shuts the send channel exactly once; the write pump exits and the
// read pump follows when the connection drops.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// reportError queues a private error event, dropping it if the client is
// too far behind to care.
func (c *client) reportError(err error) {
	select {
	case c.send <- ErrorMessage{Type: "error", Message: err.Error()}:
	default:
	}
}

func (c *client) readPump(cfg *Config, dir *directory) {
	defer func() {
		if c.room != nil {
			c.room.enqueue(command{kind: cmdDisconnect, client: c})
		}
		c.close()
		_ = c.conn.Close()
		logf(cfg, "GAMES: Connection %s closed", c.id)
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case msgCreateRoom:
			if c.room != nil || strings.TrimSpace(msg.Nickname) == "" {
				continue
			}
			r := dir.create()
			if _, err := dir.join(r.code, c, msg.Nickname); err != nil {
				c.reportError(err)
				continue
			}
			c.room = r

		case msgJoinRoom:
			if c.room != nil || strings.TrimSpace(msg.Nickname) == "" {
				continue
			}
			r, err := dir.join(strings.ToUpper(msg.RoomCode), c, msg.Nickname)
			if err != nil {
				c.reportError(err)
				continue
			}
			c.room = r

		default:
			if c.room == nil {
				c.reportError(errRoomNotFound)
				continue
			}
			c.room.enqueue(command{kind: cmdMessage, client: c, msg: msg})
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(cfg *Config, dir *directory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: websocket upgrade from %s: %v", realIP(r), err)
			return
		}

		c := newClient(conn)

		logf(cfg, "GAMES: Connection %s opened from %s", c.id, realIP(r))

		go c.writePump()
		c.readPump(cfg, dir)
	}
}
