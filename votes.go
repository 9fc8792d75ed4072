package main

const (
	roundImpostorBonus = 10
	roundCrewPenalty   = 5

	impostorWinBonus = 50
	crewBonusBase    = 25
	crewBonusStep    = 5
	crewBonusFloor   = 5
)

type voteOutcome int

const (
	outcomeSkip voteOutcome = iota
	outcomeTie
	outcomeEliminated
)

type tallyResult struct {
	outcome      voteOutcome
	eliminatedID string // set only for outcomeEliminated
	counts       map[string]int
	skips        int
}

// tallyVotes resolves a vote snapshot against the active player set. Only
// votes cast by currently active players count. Precedence: skips beating
// or matching the top target (with at least one skip) is a SKIP; a shared
// top count is a TIE; otherwise the unique top target is eliminated. SKIP
// and TIE are identical downstream, neither eliminates.
func tallyVotes(votes map[string]string, activeIDs []string) tallyResult {
	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	result := tallyResult{counts: make(map[string]int)}

	for voter, target := range votes {
		if !active[voter] {
			continue
		}
		if target == voteSkip {
			result.skips++
		} else {
			result.counts[target]++
		}
	}

	maxVotes := 0
	topID := ""
	tie := false
	for id, count := range result.counts {
		switch {
		case count > maxVotes:
			maxVotes = count
			topID = id
			tie = false
		case count == maxVotes:
			tie = true
		}
	}

	switch {
	case result.skips >= maxVotes && result.skips > 0:
		result.outcome = outcomeSkip
	case tie:
		result.outcome = outcomeTie
	case maxVotes > result.skips:
		result.outcome = outcomeEliminated
		result.eliminatedID = topID
	default:
		result.outcome = outcomeTie
	}

	return result
}

func (r *room) handleVote(c *client, msg ClientMessage) []outbound {
	if r.phase != phaseVoting {
		return nil
	}

	voter := r.findPlayer(c.id)
	if voter == nil || !voter.active() {
		return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errWrongPhase.Error()})}
	}

	if msg.VotedID != voteSkip {
		target := r.findPlayer(msg.VotedID)
		if target == nil || !target.active() {
			return []outbound{sendTo(c.id, ErrorMessage{Type: "error", Message: errWrongPhase.Error()})}
		}
	}

	r.votes[c.id] = msg.VotedID

	return r.maybeResolveVotes()
}

// maybeResolveVotes fires the tally once every active player has voted.
// Called after each vote and after each disconnect, since attrition can
// make the remaining votes irrelevant.
func (r *room) maybeResolveVotes() []outbound {
	if r.phase != phaseVoting {
		return nil
	}

	active := r.activePlayers()
	cast := 0
	for _, p := range active {
		if _, ok := r.votes[p.ID]; ok {
			cast++
		}
	}

	if cast < len(active) {
		return []outbound{broadcast(VoteProgressMessage{
			Type:      "updateVotes",
			VoteCount: cast,
			Total:     len(active),
		})}
	}

	return r.processVotes()
}

// processVotes runs the tally exactly once per round end, applies its
// consequences and either finishes the game or schedules the next round.
func (r *room) processVotes() []outbound {
	activeIDs := make([]string, 0, len(r.players))
	for _, p := range r.activePlayers() {
		activeIDs = append(activeIDs, p.ID)
	}

	tally := tallyVotes(r.votes, activeIDs)

	payload := VoteResultMessage{
		Type:          "voteResult",
		Results:       tally.counts,
		SkipCount:     tally.skips,
		ImpostorNames: r.impostorNames(),
		SecretWord:    r.currentWord,
	}

	if tally.outcome == outcomeEliminated {
		eliminated := r.findPlayer(tally.eliminatedID)
		payload.EliminatedID = tally.eliminatedID
		eliminated.Eliminated = true

		dst := r.turnOrder[:0]
		for _, id := range r.turnOrder {
			if id != tally.eliminatedID {
				dst = append(dst, id)
			}
		}
		r.turnOrder = dst

		logf(r.cfg, "GAMES: Room %s eliminated %q", r.code, eliminated.Nickname)
	} else {
		r.applyRoundScoring()
	}

	impostors, crew := r.activeCounts()

	switch {
	case tally.outcome == outcomeEliminated && impostors == 0:
		payload.GameEnded = true
		payload.Winner = winnerCrew
	case impostors >= crew:
		// Parity or majority. Also covers a skip round where a disconnect
		// shifted the balance.
		payload.GameEnded = true
		payload.Winner = winnerImpostor
	}

	if payload.GameEnded {
		r.distributePoints(payload.Winner)
		r.timerGen++
		r.phase = phaseGameOver

		logf(r.cfg, "GAMES: Room %s game over, %s wins", r.code, payload.Winner)

		return []outbound{
			broadcast(payload),
			broadcast(GameEndedMessage{Type: "gameEnded", Leaderboard: r.roster()}),
		}
	}

	if tally.outcome != outcomeEliminated {
		r.roundCount++
	}
	r.phase = phasePlaying
	r.turnIndex = 0
	r.scheduleResume()

	return []outbound{broadcast(payload)}
}

func (r *room) activeCounts() (impostors, crew int) {
	for _, p := range r.activePlayers() {
		if p.IsImpostor {
			impostors++
		} else {
			crew++
		}
	}
	return impostors, crew
}

// applyRoundScoring rewards impostors for surviving a skipped or tied
// round. The crew penalty floors at zero; bonuses are never clamped.
func (r *room) applyRoundScoring() {
	for _, p := range r.players {
		if p.Disconnected {
			continue
		}
		if p.IsImpostor {
			p.Score += roundImpostorBonus
		} else {
			p.Score = max(0, p.Score-roundCrewPenalty)
		}
	}
}

// distributePoints applies the end-of-game bonus. Every impostor shares the
// flat impostor payout; the crew bonus decays the longer the game dragged on.
func (r *room) distributePoints(winner string) {
	if winner == winnerImpostor {
		for _, p := range r.players {
			if p.IsImpostor {
				p.Score += impostorWinBonus
			}
		}
		return
	}

	bonus := max(crewBonusFloor, crewBonusBase-(r.roundCount-1)*crewBonusStep)
	for _, p := range r.players {
		if !p.IsImpostor && !p.Disconnected {
			p.Score += bonus
		}
	}
}
