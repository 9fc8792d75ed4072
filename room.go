package main

import (
	"time"
)

type phase string

const (
	phaseLobby    phase = "LOBBY"
	phaseStarting phase = "STARTING"
	phasePlaying  phase = "PLAYING"
	phaseVoting   phase = "VOTING"
	phaseGameOver phase = "GAME_OVER"
)

type commandKind int

const (
	cmdMessage commandKind = iota
	cmdJoin
	cmdDisconnect
	cmdStartTimeout // STARTING-phase auto-finalize fired
	cmdResume       // post-tally delay elapsed
)

type command struct {
	kind   commandKind
	client *client
	msg    ClientMessage
	join   *joinRequest
	gen    int // timer generation, stale firings are dropped
}

type joinRequest struct {
	client   *client
	nickname string
	reply    chan error
}

// room owns all state for one game session. Every mutation happens on the
// actor goroutine draining r.commands, so handlers never lock.
type room struct {
	cfg *Config
	dir *directory
	cat *catalog

	code    string
	adminID string
	players []*Player
	phase   phase

	category        string // resolved, always concrete
	displayCategory string // as requested, may be the random sentinel
	currentWord     string
	turnOrder       []string
	turnIndex       int
	roundCount      int
	gameCount       int
	votes           map[string]string
	impostorIDs     []string
	knowImpostors   bool
	impostorCount   int

	timerGen int
	conns    map[string]*client
	commands chan command
}

func newRoom(cfg *Config, dir *directory, cat *catalog, code string) *room {
	return &room{
		cfg:      cfg,
		dir:      dir,
		cat:      cat,
		code:     code,
		phase:    phaseLobby,
		votes:    make(map[string]string),
		conns:    make(map[string]*client),
		commands: make(chan command, 1024),
	}
}

// enqueue is safe from any goroutine; a full queue drops the command rather
// than blocking the sender.
func (r *room) enqueue(cmd command) {
	select {
	case r.commands <- cmd:
	default:
	}
}

func (r *room) run() {
	for cmd := range r.commands {
		var events []outbound
		stop := false

		switch cmd.kind {
		case cmdJoin:
			events = r.handleJoinRequest(cmd.join)
		case cmdDisconnect:
			events, stop = r.handleDisconnect(cmd.client)
		case cmdMessage:
			events = r.handleMessage(cmd.client, cmd.msg)
		case cmdStartTimeout:
			events = r.handleStartTimeout(cmd.gen)
		case cmdResume:
			events = r.handleResume(cmd.gen)
		}

		r.deliver(events)

		if stop {
			r.drain()
			return
		}
	}
}

func (r *room) handleMessage(c *client, msg ClientMessage) []outbound {
	switch msg.Type {
	case msgStartGame:
		return r.handleStartGame(c, msg)
	case msgChoosePosition:
		return r.handleChoosePosition(c, msg)
	case msgNextTurn:
		return r.handleNextTurn(c)
	case msgPassTurn:
		return r.handlePassTurn(c)
	case msgRequestHint:
		return r.handleRequestHint(c)
	case msgVote:
		return r.handleVote(c, msg)
	case msgAttemptGuess:
		return r.handleAttemptGuess(c, msg)
	case msgPlayAgain:
		return r.handlePlayAgain(c)
	case msgKickPlayer:
		return r.handleKickPlayer(c, msg)
	case msgForceRestart:
		return r.handleForceRestart(c)
	default:
		return nil
	}
}

func (r *room) handleJoinRequest(jr *joinRequest) []outbound {
	var err error
	switch {
	case r.phase != phaseLobby:
		err = errGameAlreadyStarted
	case len(r.players) >= maxPlayers:
		err = errRoomFull
	default:
		for _, p := range r.players {
			if p.Nickname == jr.nickname {
				err = errNicknameTaken
				break
			}
		}
	}

	if err != nil {
		jr.reply <- err
		return nil
	}

	player := &Player{ID: jr.client.id, Nickname: jr.nickname}
	r.players = append(r.players, player)
	r.conns[player.ID] = jr.client

	isAdmin := r.adminID == ""
	if isAdmin {
		r.adminID = player.ID
	}
	jr.reply <- nil

	logf(r.cfg, "GAMES: Player %q joined room %s", jr.nickname, r.code)

	var welcome any
	if isAdmin {
		welcome = RoomCreatedMessage{Type: "roomCreated", RoomCode: r.code, IsAdmin: true}
	} else {
		welcome = RoomJoinedMessage{Type: "roomJoined", RoomCode: r.code, IsAdmin: false}
	}

	return []outbound{
		sendTo(player.ID, welcome),
		broadcast(LobbyMessage{Type: "updateLobby", Players: r.roster()}),
	}
}

// handleDisconnect marks the player, reassigns the admin seat if needed and
// reruns whatever game logic the absence affects. The second return value
// reports that the room is now empty and must shut down.
func (r *room) handleDisconnect(c *client) ([]outbound, bool) {
	player := r.findPlayer(c.id)
	if player == nil || player.Disconnected {
		return nil, false
	}

	player.Disconnected = true
	delete(r.conns, player.ID)

	logf(r.cfg, "GAMES: Player %q disconnected from room %s", player.Nickname, r.code)

	events := []outbound{
		broadcast(LobbyMessage{Type: "updateLobby", Players: r.roster()}),
	}

	if r.adminID == player.ID {
		if next := r.firstConnected(); next != nil {
			r.adminID = next.ID
			events = append(events, sendTo(next.ID, AdminMessage{Type: "youAreAdmin"}))
		}
	}

	if r.allDisconnected() {
		r.timerGen++
		r.dir.remove(r.code)
		logf(r.cfg, "GAMES: Room %s destroyed", r.code)
		return nil, true
	}

	switch r.phase {
	case phaseVoting:
		events = append(events, r.maybeResolveVotes()...)
	case phasePlaying:
		if r.currentTurnID() == player.ID {
			events = append(events, r.advanceTurn()...)
		}
	}

	return events, false
}

// deliver fans events out to their targets. Clients whose send buffer is
// full are dropped; their read pump will notice and report a disconnect.
func (r *room) deliver(events []outbound) {
	for _, event := range events {
		if event.to != "" {
			if c, ok := r.conns[event.to]; ok {
				r.send(c, event.msg)
			}
			continue
		}
		for _, c := range r.conns {
			r.send(c, event.msg)
		}
	}
}

func (r *room) send(c *client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(r.conns, c.id)
		c.close()
	}
}

// drain answers any commands still queued behind a room shutdown so no
// joiner is left waiting on a reply.
func (r *room) drain() {
	for {
		select {
		case cmd := <-r.commands:
			if cmd.kind == cmdJoin {
				cmd.join.reply <- errRoomNotFound
			}
		default:
			return
		}
	}
}

// handleStartTimeout force-starts a round whose impostors never answered the
// position prompt. A firing armed for an earlier round, or one raced by an
// explicit choice, carries a stale generation and is dropped.
func (r *room) handleStartTimeout(gen int) []outbound {
	if gen != r.timerGen || r.phase != phaseStarting {
		return nil
	}
	return r.finalizeGameStart()
}

// handleResume re-enters the turn loop after the post-tally pause, unless
// the game moved on underneath the timer.
func (r *room) handleResume(gen int) []outbound {
	if gen != r.timerGen || r.phase != phasePlaying {
		return nil
	}
	return r.ensureValidTurn()
}

// scheduleStartTimeout arms the STARTING-phase auto-finalize. The extra
// grace on top of the client-facing window absorbs network latency on a
// last-moment choice.
func (r *room) scheduleStartTimeout() {
	r.timerGen++
	gen := r.timerGen
	time.AfterFunc(r.cfg.choiceTimeout+startGrace, func() {
		r.enqueue(command{kind: cmdStartTimeout, gen: gen})
	})
}

func (r *room) scheduleResume() {
	r.timerGen++
	gen := r.timerGen
	time.AfterFunc(r.cfg.resultDelay, func() {
		r.enqueue(command{kind: cmdResume, gen: gen})
	})
}
