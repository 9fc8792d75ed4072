package main

import (
	"crypto/rand"
	"sync"
)

// directory is the process-wide room table, keyed by room code. Rooms are
// created here and remove themselves once every player has disconnected.
type directory struct {
	mu    sync.Mutex
	rooms map[string]*room
	cfg   *Config
	cat   *catalog
}

func newDirectory(cfg *Config, cat *catalog) *directory {
	return &directory{
		rooms: make(map[string]*room),
		cfg:   cfg,
		cat:   cat,
	}
}

// newRoomCode generates a crypto-random 5-character code and ensures it
// doesn't collide with a live room. Collisions are practically impossible
// but checked anyway; codes free up for reuse once their room is destroyed.
func (d *directory) newRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const limit = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, roomCodeLength)
		for len(out) < roomCodeLength {
			var b [1]byte
			if _, err := rand.Read(b[:]); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}
			if b[0] > limit {
				continue
			}
			out = append(out, letters[int(b[0])%len(letters)])
		}
		code := string(out)

		d.mu.Lock()
		_, exists := d.rooms[code]
		d.mu.Unlock()

		if !exists {
			return code
		}
	}
}

const roomCodeLength = 5

// create spins up a new empty room actor and returns it; the creator joins
// through the same handshake as everyone else and becomes admin by virtue
// of being first.
func (d *directory) create() *room {
	code := d.newRoomCode()
	r := newRoom(d.cfg, d, d.cat, code)

	d.mu.Lock()
	d.rooms[code] = r
	d.mu.Unlock()

	go r.run()

	logf(d.cfg, "GAMES: Created room %s", code)

	return r
}

// join forwards a join request into the room's actor and waits for its
// verdict. Returns the room on success.
func (d *directory) join(code string, c *client, nickname string) (*room, error) {
	jr := &joinRequest{client: c, nickname: nickname, reply: make(chan error, 1)}

	// Enqueueing while the room is still in the table guarantees the actor
	// either handles the request or answers it while draining on shutdown.
	d.mu.Lock()
	r, exists := d.rooms[code]
	if exists {
		r.commands <- command{kind: cmdJoin, join: jr}
	}
	d.mu.Unlock()

	if !exists {
		return nil, errRoomNotFound
	}

	if err := <-jr.reply; err != nil {
		return nil, err
	}
	return r, nil
}

func (d *directory) lookup(code string) (*room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, exists := d.rooms[code]
	return r, exists
}

// remove is called by a room's own actor as it shuts down.
func (d *directory) remove(code string) {
	d.mu.Lock()
	delete(d.rooms, code)
	d.mu.Unlock()
}
