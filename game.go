package main

import (
	"math/rand"
	"strings"
	"time"
)

const (
	maxPlayers = 10
	minPlayers = 3

	// Extra time past the client-facing choice window before the round is
	// force-started.
	startGrace = 500 * time.Millisecond

	lastPositionCost = 5  // choosing to speak last
	hintPenalty      = 15 // peeking at the category word list
)

func (r *room) handleStartGame(c *client, msg ClientMessage) []outbound {
	if c.id != r.adminID || r.phase != phaseLobby {
		return nil
	}
	if len(r.players) < minPlayers {
		return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errInsufficientPlayers.Error()})}
	}

	impostorCount := msg.ImpostorCount
	if impostorCount < 1 {
		impostorCount = 1
	}

	return r.startNewRound(msg.Category, impostorCount, msg.KnowImpostors)
}

// startNewRound performs role assignment and enters the STARTING phase,
// where impostors may pick their turn position before play begins.
func (r *room) startNewRound(requestedCategory string, impostorCount int, knowImpostors bool) []outbound {
	r.category = r.cat.resolveCategory(requestedCategory)
	if requestedCategory == categoryRandom || requestedCategory == "" {
		r.displayCategory = categoryRandom
	} else {
		r.displayCategory = r.category
	}

	r.currentWord = r.cat.randomWord(r.category)
	r.roundCount = 1
	r.gameCount++
	r.knowImpostors = knowImpostors

	for _, p := range r.players {
		p.Eliminated = false
		p.IsImpostor = false
	}

	active := r.connectedPlayers()

	count := min(max(1, impostorCount), max(1, len(active)-1))
	r.impostorCount = count

	r.impostorIDs = r.impostorIDs[:0]
	for _, idx := range rand.Perm(len(active))[:count] {
		active[idx].IsImpostor = true
		r.impostorIDs = append(r.impostorIDs, active[idx].ID)
	}

	r.turnOrder = make([]string, 0, len(active))
	for _, p := range active {
		r.turnOrder = append(r.turnOrder, p.ID)
	}
	rand.Shuffle(len(r.turnOrder), func(i, j int) {
		r.turnOrder[i], r.turnOrder[j] = r.turnOrder[j], r.turnOrder[i]
	})

	r.turnIndex = 0
	r.phase = phaseStarting

	logf(r.cfg, "GAMES: Room %s game %d starting, category %q, %d impostor(s)",
		r.code, r.gameCount, r.category, count)

	duration := r.cfg.choiceTimeout.Milliseconds()
	events := make([]outbound, 0, len(active))
	for _, p := range active {
		if p.IsImpostor {
			events = append(events, sendTo(p.ID, ImpostorChoiceMessage{Type: "impostorChoice", Duration: duration}))
		} else {
			events = append(events, sendTo(p.ID, GameStartingMessage{Type: "gameStarting", Duration: duration}))
		}
	}

	r.scheduleStartTimeout()

	return events
}

// handleChoosePosition lets an impostor either hide at the end of the turn
// order (for a point cost) or stay where the shuffle put them. Any valid
// choice finalizes the start for the whole room.
func (r *room) handleChoosePosition(c *client, msg ClientMessage) []outbound {
	if r.phase != phaseStarting || !r.isImpostorID(c.id) {
		return nil
	}

	if msg.Choice == choiceLast {
		if p := r.findPlayer(c.id); p != nil {
			p.Score -= lastPositionCost
		}
		r.moveToEnd(c.id)
	}

	return r.finalizeGameStart()
}

// finalizeGameStart transitions to PLAYING, privately hands out roles and
// publicly announces the turn order. Cancels the auto-finalize timer.
func (r *room) finalizeGameStart() []outbound {
	r.timerGen++
	r.phase = phasePlaying

	var partnerNames []string
	if r.knowImpostors {
		partnerNames = r.impostorNames()
	}

	events := make([]outbound, 0, len(r.players)+2)
	for _, p := range r.players {
		if p.Disconnected {
			continue
		}

		info := RoleInfoMessage{
			Type:       "roleInfo",
			IsImpostor: p.IsImpostor,
			Partners:   []string{},
		}
		if p.IsImpostor {
			// The impostor needs the true category so hints and guesses
			// line up; everyone else sees what was requested.
			info.Word = "???"
			info.Category = r.category
			if r.knowImpostors {
				for _, name := range partnerNames {
					if name != p.Nickname {
						info.Partners = append(info.Partners, name)
					}
				}
			}
		} else {
			info.Word = r.currentWord
			info.Category = r.displayCategory
		}
		events = append(events, sendTo(p.ID, info))
	}

	events = append(events, broadcast(GameStartedMessage{
		Type:      "gameStarted",
		Category:  r.displayCategory,
		TurnOrder: r.turnOrder,
	}))

	return append(events, r.ensureValidTurn()...)
}

func (r *room) handleNextTurn(c *client) []outbound {
	if r.phase != phasePlaying {
		return nil
	}
	if c.id != r.currentTurnID() && c.id != r.adminID {
		return nil
	}
	return r.advanceTurn()
}

func (r *room) advanceTurn() []outbound {
	r.turnIndex++
	return r.ensureValidTurn()
}

// ensureValidTurn skips forward over disconnected or eliminated entries
// until a valid holder is found; running past the end of the order opens
// the voting phase.
func (r *room) ensureValidTurn() []outbound {
	for ; r.turnIndex < len(r.turnOrder); r.turnIndex++ {
		p := r.findPlayer(r.turnOrder[r.turnIndex])
		if p != nil && p.active() {
			return []outbound{broadcast(GameUpdateMessage{
				Type:        "gameUpdate",
				State:       string(phasePlaying),
				CurrentTurn: p.ID,
				TurnOrder:   r.turnOrder,
			})}
		}
	}

	r.phase = phaseVoting
	r.votes = make(map[string]string)
	return []outbound{broadcast(GameUpdateMessage{
		Type:    "gameUpdate",
		State:   string(phaseVoting),
		Players: r.roster(),
	})}
}

// handlePassTurn moves the current holder to the end of the order without
// advancing the cursor, so the next occupant takes over immediately.
// Impostor-only; the final slot cannot pass.
func (r *room) handlePassTurn(c *client) []outbound {
	if r.phase != phasePlaying || c.id != r.currentTurnID() {
		return nil
	}
	if !r.isImpostorID(c.id) {
		return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errNotYourPrivilege.Error()})}
	}
	if r.turnIndex >= len(r.turnOrder)-1 {
		return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errAlreadyLast.Error()})}
	}

	r.moveToEnd(c.id)

	return r.ensureValidTurn()
}

func (r *room) moveToEnd(id string) {
	for i, entry := range r.turnOrder {
		if entry == id {
			r.turnOrder = append(append(r.turnOrder[:i:i], r.turnOrder[i+1:]...), id)
			return
		}
	}
}

// handleRequestHint privately reveals the true category's word list to an
// impostor for a score penalty. No roster update is broadcast here: a
// visible score drop would give the role away.
func (r *room) handleRequestHint(c *client) []outbound {
	if r.phase != phasePlaying {
		return nil
	}

	p := r.findPlayer(c.id)
	if p == nil || !p.IsImpostor {
		return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errNotYourPrivilege.Error()})}
	}

	p.Score -= hintPenalty

	return []outbound{sendTo(c.id, HintRevealMessage{
		Type:     "hintReveal",
		Category: r.category,
		Words:    r.cat.words(r.category),
	})}
}

// handleAttemptGuess compares an impostor's guess against the secret word.
// A hit ends the game on the spot, bypassing any tally in progress; a miss
// only costs the spent opportunity.
func (r *room) handleAttemptGuess(c *client, msg ClientMessage) []outbound {
	if r.phase != phaseVoting {
		return nil
	}

	p := r.findPlayer(c.id)
	if p == nil || !p.IsImpostor {
		return nil
	}

	secret := strings.ToLower(strings.TrimSpace(r.currentWord))
	attempt := strings.ToLower(strings.TrimSpace(msg.Guess))

	if attempt != secret {
		return []outbound{sendTo(c.id, GuessResultMessage{Type: "guessResult", Success: false})}
	}

	logf(r.cfg, "GAMES: Room %s impostor %q guessed the word", r.code, p.Nickname)

	r.distributePoints(winnerImpostor)
	r.timerGen++
	r.phase = phaseGameOver

	return []outbound{
		broadcast(VoteResultMessage{
			Type:          "voteResult",
			Results:       map[string]int{},
			GameEnded:     true,
			Winner:        winnerImpostor,
			ImpostorNames: r.impostorNames(),
			SecretWord:    r.currentWord,
		}),
		broadcast(GameEndedMessage{Type: "gameEnded", Leaderboard: r.roster()}),
	}
}

func (r *room) handlePlayAgain(c *client) []outbound {
	if c.id != r.adminID {
		return nil
	}
	if r.phase != phaseGameOver {
		return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errWrongPhase.Error()})}
	}

	// A game that was requested as random re-rolls its category each rematch.
	return r.startNewRound(r.displayCategory, r.impostorCount, r.knowImpostors)
}

// handleKickPlayer removes a player on the admin's behalf. In the lobby the
// roster entry disappears entirely, freeing the nickname; mid-game the
// target is treated exactly like a disconnect so turn order and votes
// recompute through the usual paths.
func (r *room) handleKickPlayer(c *client, msg ClientMessage) []outbound {
	if c.id != r.adminID || msg.PlayerID == c.id {
		return nil
	}

	target := r.findPlayer(msg.PlayerID)
	if target == nil {
		return nil
	}

	var events []outbound

	// Deliver the notice before the connection goes away.
	if conn, ok := r.conns[target.ID]; ok {
		r.send(conn, ErrorMessage{Type: "error", Message: "you have been removed by the admin"})
		delete(r.conns, target.ID)
		conn.close()
	}

	logf(r.cfg, "GAMES: Player %q kicked from room %s", target.Nickname, r.code)

	if r.phase == phaseLobby {
		for i, p := range r.players {
			if p.ID == target.ID {
				r.players = append(r.players[:i], r.players[i+1:]...)
				break
			}
		}
		return append(events, broadcast(LobbyMessage{Type: "updateLobby", Players: r.roster()}))
	}

	if target.Disconnected {
		return events
	}
	target.Disconnected = true

	events = append(events, broadcast(LobbyMessage{Type: "updateLobby", Players: r.roster()}))

	switch r.phase {
	case phaseVoting:
		events = append(events, r.maybeResolveVotes()...)
	case phasePlaying:
		if r.currentTurnID() == target.ID {
			events = append(events, r.advanceTurn()...)
		}
	}

	return events
}

// handleForceRestart abandons the current game and returns the room to the
// lobby, keeping the roster and scores.
func (r *room) handleForceRestart(c *client) []outbound {
	if c.id != r.adminID || r.phase == phaseLobby {
		return nil
	}

	r.timerGen++
	r.phase = phaseLobby
	r.turnOrder = nil
	r.turnIndex = 0
	r.votes = make(map[string]string)
	r.impostorIDs = nil
	r.currentWord = ""
	for _, p := range r.players {
		p.Eliminated = false
		p.IsImpostor = false
	}

	logf(r.cfg, "GAMES: Room %s force-restarted by admin", r.code)

	return []outbound{
		broadcast(GameUpdateMessage{Type: "gameUpdate", State: string(phaseLobby), Players: r.roster()}),
		broadcast(LobbyMessage{Type: "updateLobby", Players: r.roster()}),
	}
}
