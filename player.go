package main

// Player holds the data we store server-side for one roster entry. Entries
// are owned by their room and only ever touched from the room's actor.
type Player struct {
	ID           string
	Nickname     string
	Score        int
	IsImpostor   bool // round-scoped
	Eliminated   bool // round-scoped
	Disconnected bool // sticky, never reset
}

func (p *Player) active() bool {
	return !p.Disconnected && !p.Eliminated
}

func (p *Player) state() PlayerState {
	return PlayerState{
		ID:           p.ID,
		Nickname:     p.Nickname,
		Score:        p.Score,
		IsImpostor:   p.IsImpostor,
		Eliminated:   p.Eliminated,
		Disconnected: p.Disconnected,
	}
}

// --- roster queries ---

func (r *room) findPlayer(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// activePlayers returns the non-disconnected, non-eliminated subset in
// join order.
func (r *room) activePlayers() []*Player {
	active := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.active() {
			active = append(active, p)
		}
	}
	return active
}

func (r *room) connectedPlayers() []*Player {
	connected := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if !p.Disconnected {
			connected = append(connected, p)
		}
	}
	return connected
}

// firstConnected returns the admin-failover candidate: the earliest joined
// player still connected.
func (r *room) firstConnected() *Player {
	for _, p := range r.players {
		if !p.Disconnected {
			return p
		}
	}
	return nil
}

func (r *room) allDisconnected() bool {
	for _, p := range r.players {
		if !p.Disconnected {
			return false
		}
	}
	return true
}

func (r *room) roster() []PlayerState {
	states := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		states = append(states, p.state())
	}
	return states
}

func (r *room) isImpostorID(id string) bool {
	for _, impostorID := range r.impostorIDs {
		if impostorID == id {
			return true
		}
	}
	return false
}

func (r *room) impostorNames() []string {
	names := make([]string, 0, len(r.impostorIDs))
	for _, id := range r.impostorIDs {
		if p := r.findPlayer(id); p != nil {
			names = append(names, p.Nickname)
		}
	}
	return names
}

// currentTurnID returns the id addressed by the turn cursor, or "" when the
// cursor has run past the end of the order.
func (r *room) currentTurnID() string {
	if r.turnIndex < 0 || r.turnIndex >= len(r.turnOrder) {
		return ""
	}
	return r.turnOrder[r.turnIndex]
}
