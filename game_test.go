package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return &Config{
		choiceTimeout: 3 * time.Second,
		resultDelay:   3 * time.Second,
	}
}

// newTestRoom builds a room with the given players joined, without a
// running actor, so tests can drive handlers directly and inspect the
// events they return.
func newTestRoom(t *testing.T, nicknames ...string) (*room, map[string]*client) {
	t.Helper()

	cfg := newTestConfig()
	cat, err := loadCatalog()
	require.NoError(t, err)

	dir := newDirectory(cfg, cat)
	r := newRoom(cfg, dir, cat, "TEST1")
	dir.rooms[r.code] = r

	clients := make(map[string]*client, len(nicknames))
	for _, nickname := range nicknames {
		c := &client{id: "id-" + nickname, send: make(chan any, 32)}
		jr := &joinRequest{client: c, nickname: nickname, reply: make(chan error, 1)}
		r.handleJoinRequest(jr)
		require.NoError(t, <-jr.reply)
		clients[nickname] = c
	}

	return r, clients
}

// startPlaying puts the room into PLAYING with a fixed turn order and the
// named players as impostors, sidestepping the random draws.
func startPlaying(r *room, turnOrder []string, impostorIDs ...string) {
	r.phase = phasePlaying
	r.category = "animales"
	r.displayCategory = "animales"
	r.currentWord = "Perro"
	r.roundCount = 1
	r.gameCount = 1
	r.turnOrder = append([]string{}, turnOrder...)
	r.turnIndex = 0
	r.votes = make(map[string]string)
	r.impostorIDs = append([]string{}, impostorIDs...)
	for _, p := range r.players {
		p.IsImpostor = r.isImpostorID(p.ID)
	}
}

func findEvent[T any](t *testing.T, events []outbound, match func(T) bool) (T, string) {
	t.Helper()
	for _, event := range events {
		if msg, ok := event.msg.(T); ok && match(msg) {
			return msg, event.to
		}
	}
	var zero T
	t.Fatalf("no matching %T in %+v", zero, events)
	return zero, ""
}

func anyMsg[T any](msg T) bool { return true }

func TestStartNewRoundAssignsRolesAndOrder(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "bea", "carla", "dani", "eva")

	events := r.startNewRound("animales", 3, false)

	assert.Equal(t, phaseStarting, r.phase)
	assert.Equal(t, "animales", r.category)
	assert.Equal(t, "animales", r.displayCategory)
	assert.NotEmpty(t, r.currentWord)
	assert.Contains(t, r.cat.words("animales"), r.currentWord)
	assert.Equal(t, 1, r.roundCount)
	assert.Equal(t, 1, r.gameCount)

	require.Len(t, r.impostorIDs, 3)
	seen := map[string]bool{}
	for _, id := range r.impostorIDs {
		p := r.findPlayer(id)
		require.NotNil(t, p)
		assert.True(t, p.IsImpostor)
		assert.False(t, seen[id], "impostor ids must be distinct")
		seen[id] = true
	}

	// Turn order is a permutation of the active players.
	require.Len(t, r.turnOrder, 5)
	inOrder := map[string]int{}
	for _, id := range r.turnOrder {
		inOrder[id]++
	}
	for _, p := range r.players {
		assert.Equal(t, 1, inOrder[p.ID])
	}

	choices := 0
	starting := 0
	for _, event := range events {
		switch event.msg.(type) {
		case ImpostorChoiceMessage:
			choices++
			assert.True(t, r.isImpostorID(event.to))
		case GameStartingMessage:
			starting++
			assert.False(t, r.isImpostorID(event.to))
		}
	}
	assert.Equal(t, 3, choices)
	assert.Equal(t, 2, starting)
}

func TestStartNewRoundClampsImpostorCount(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		requested int
		expected  int
	}{
		{desc: "too many clamps to players minus one", requested: 99, expected: 3},
		{desc: "exact maximum is kept", requested: 3, expected: 3},
		{desc: "single impostor", requested: 1, expected: 1},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			r, _ := newTestRoom(t, "ana", "bea", "carla", "dani")
			r.startNewRound("comida", tc.requested, false)
			assert.Len(t, r.impostorIDs, tc.expected)
		})
	}
}

func TestStartNewRoundExcludesDisconnected(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "bea", "carla", "dani")
	r.findPlayer("id-dani").Disconnected = true

	r.startNewRound("lugares", 1, false)

	assert.Len(t, r.turnOrder, 3)
	assert.NotContains(t, r.turnOrder, "id-dani")
	assert.False(t, r.findPlayer("id-dani").IsImpostor)
}

func TestStartGameRequiresThreePlayers(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea")

	events := r.handleStartGame(clients["ana"], ClientMessage{Type: msgStartGame, Category: "comida"})

	msg, to := findEvent[ErrorMessage](t, events, anyMsg)
	assert.Equal(t, "id-ana", to)
	assert.Equal(t, errInsufficientPlayers.Error(), msg.Message)
	assert.Equal(t, phaseLobby, r.phase)
}

func TestStartGameAdminOnly(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")

	events := r.handleStartGame(clients["bea"], ClientMessage{Type: msgStartGame, Category: "comida"})

	assert.Empty(t, events)
	assert.Equal(t, phaseLobby, r.phase)
}

func TestChoosePositionLast(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	r.startNewRound("animales", 1, false)

	impostorID := r.impostorIDs[0]
	impostor := r.findPlayer(impostorID)
	impostorClient := clients[impostor.Nickname]

	events := r.handleChoosePosition(impostorClient, ClientMessage{Type: msgChoosePosition, Choice: choiceLast})

	assert.Equal(t, -lastPositionCost, impostor.Score)
	assert.Equal(t, impostorID, r.turnOrder[len(r.turnOrder)-1])
	assert.Equal(t, phasePlaying, r.phase)

	started, _ := findEvent[GameStartedMessage](t, events, anyMsg)
	assert.Equal(t, "animales", started.Category)
	assert.Equal(t, r.turnOrder, started.TurnOrder)

	// Every connected player gets a private role, impostors masked.
	roles := 0
	for _, event := range events {
		if info, ok := event.msg.(RoleInfoMessage); ok {
			roles++
			if event.to == impostorID {
				assert.Equal(t, "???", info.Word)
				assert.True(t, info.IsImpostor)
			} else {
				assert.Equal(t, r.currentWord, info.Word)
				assert.False(t, info.IsImpostor)
			}
		}
	}
	assert.Equal(t, 3, roles)
}

func TestChoosePositionRandomKeepsOrder(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	r.startNewRound("animales", 1, false)

	before := append([]string{}, r.turnOrder...)
	impostor := r.findPlayer(r.impostorIDs[0])

	r.handleChoosePosition(clients[impostor.Nickname], ClientMessage{Type: msgChoosePosition, Choice: choiceRandom})

	assert.Equal(t, before, r.turnOrder)
	assert.Equal(t, 0, impostor.Score)
	assert.Equal(t, phasePlaying, r.phase)
}

func TestRoleInfoPartnersWhenKnown(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "bea", "carla", "dani")
	r.startNewRound("comida", 2, true)

	events := r.finalizeGameStart()

	for _, event := range events {
		info, ok := event.msg.(RoleInfoMessage)
		if !ok || !info.IsImpostor {
			continue
		}
		self := r.findPlayer(event.to)
		require.Len(t, info.Partners, 1)
		assert.NotContains(t, info.Partners, self.Nickname)
	}
}

func TestNextTurnAdvancesAndEntersVoting(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-carla")

	events := r.handleNextTurn(clients["ana"])
	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-bea", update.CurrentTurn)

	events = r.handleNextTurn(clients["bea"])
	update, _ = findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-carla", update.CurrentTurn)

	events = r.handleNextTurn(clients["carla"])
	update, _ = findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, string(phaseVoting), update.State)
	assert.Equal(t, phaseVoting, r.phase)
	assert.Empty(t, r.votes)
}

func TestNextTurnOnlyHolderOrAdmin(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-bea", "id-carla", "id-ana"}, "id-ana")

	// carla holds neither the turn nor the admin seat.
	assert.Empty(t, r.handleNextTurn(clients["carla"]))
	assert.Equal(t, 0, r.turnIndex)

	// ana is admin and may advance on anyone's behalf.
	events := r.handleNextTurn(clients["ana"])
	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-carla", update.CurrentTurn)
}

func TestTurnSkipsInvalidEntries(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla", "dani")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla", "id-dani"}, "id-dani")
	r.findPlayer("id-bea").Disconnected = true
	r.findPlayer("id-carla").Eliminated = true

	events := r.handleNextTurn(clients["ana"])

	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-dani", update.CurrentTurn)
	assert.Equal(t, 3, r.turnIndex)
}

func TestPassTurnMovesHolderToEnd(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-ana")

	events := r.handlePassTurn(clients["ana"])

	assert.Equal(t, []string{"id-bea", "id-carla", "id-ana"}, r.turnOrder)
	assert.Equal(t, 0, r.turnIndex, "cursor must not advance on a pass")

	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-bea", update.CurrentTurn)
}

func TestPassTurnAlreadyLast(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-bea", "id-carla", "id-ana"}, "id-ana")
	r.turnIndex = 2

	before := append([]string{}, r.turnOrder...)
	events := r.handlePassTurn(clients["ana"])

	msg, to := findEvent[ErrorMessage](t, events, anyMsg)
	assert.Equal(t, "id-ana", to)
	assert.Equal(t, errAlreadyLast.Error(), msg.Message)
	assert.Equal(t, before, r.turnOrder, "a failed pass never mutates turn order")
	assert.Equal(t, 2, r.turnIndex)
}

func TestPassTurnImpostorOnly(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-carla")

	events := r.handlePassTurn(clients["ana"])

	msg, _ := findEvent[ErrorMessage](t, events, anyMsg)
	assert.Equal(t, errNotYourPrivilege.Error(), msg.Message)
	assert.Equal(t, []string{"id-ana", "id-bea", "id-carla"}, r.turnOrder)
}

func TestDisconnectCurrentTurnAdvances(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-bea", "id-carla", "id-ana"}, "id-ana")

	events, stop := r.handleDisconnect(clients["bea"])

	assert.False(t, stop)
	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-carla", update.CurrentTurn)
}

func TestDisconnectLastHolderOpensVoting(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-ana")
	r.turnIndex = 2

	events, _ := r.handleDisconnect(clients["carla"])

	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, string(phaseVoting), update.State)
	assert.Equal(t, phaseVoting, r.phase)
}

func TestRequestHint(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")

	events := r.handleRequestHint(clients["bea"])

	hint, to := findEvent[HintRevealMessage](t, events, anyMsg)
	assert.Equal(t, "id-bea", to)
	assert.Equal(t, "animales", hint.Category)
	assert.Equal(t, r.cat.words("animales"), hint.Words)
	assert.Equal(t, -hintPenalty, r.findPlayer("id-bea").Score)

	// The score change must stay private: no roster broadcast alongside.
	for _, event := range events {
		_, isLobby := event.msg.(LobbyMessage)
		assert.False(t, isLobby, "hint must not broadcast scores")
	}

	events = r.handleRequestHint(clients["ana"])
	msg, _ := findEvent[ErrorMessage](t, events, anyMsg)
	assert.Equal(t, errNotYourPrivilege.Error(), msg.Message)
}

func TestAttemptGuessCorrectEndsGame(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")
	r.phase = phaseVoting
	r.votes = map[string]string{"id-ana": "id-bea"}

	events := r.handleAttemptGuess(clients["bea"], ClientMessage{Type: msgAttemptGuess, Guess: "  pErRo "})

	result, _ := findEvent[VoteResultMessage](t, events, anyMsg)
	assert.True(t, result.GameEnded)
	assert.Equal(t, winnerImpostor, result.Winner)
	assert.Equal(t, "Perro", result.SecretWord)
	assert.Equal(t, []string{"bea"}, result.ImpostorNames)

	findEvent[GameEndedMessage](t, events, anyMsg)
	assert.Equal(t, phaseGameOver, r.phase)
	assert.Equal(t, impostorWinBonus, r.findPlayer("id-bea").Score)
}

func TestAttemptGuessWrongIsPrivate(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")
	r.phase = phaseVoting

	events := r.handleAttemptGuess(clients["bea"], ClientMessage{Type: msgAttemptGuess, Guess: "Gato"})

	require.Len(t, events, 1)
	assert.Equal(t, "id-bea", events[0].to)
	result, ok := events[0].msg.(GuessResultMessage)
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Equal(t, phaseVoting, r.phase)
}

func TestAttemptGuessCrewIgnored(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")
	r.phase = phaseVoting

	assert.Empty(t, r.handleAttemptGuess(clients["ana"], ClientMessage{Type: msgAttemptGuess, Guess: "Perro"}))
	assert.Equal(t, phaseVoting, r.phase)
}

func TestPlayAgainRestartsFromScores(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")
	r.phase = phaseGameOver
	r.displayCategory = categoryRandom
	r.impostorCount = 1
	r.findPlayer("id-ana").Score = 25

	r.handlePlayAgain(clients["ana"])

	assert.Equal(t, phaseStarting, r.phase)
	assert.Equal(t, 25, r.findPlayer("id-ana").Score, "scores carry across games")
	assert.Equal(t, categoryRandom, r.displayCategory, "a random game stays random")
	assert.NotEqual(t, categoryJoke, r.category)
	assert.Equal(t, 2, r.gameCount)
}

func TestPlayAgainWrongPhase(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")

	events := r.handlePlayAgain(clients["ana"])

	msg, _ := findEvent[ErrorMessage](t, events, anyMsg)
	assert.Equal(t, errWrongPhase.Error(), msg.Message)
	assert.Equal(t, phasePlaying, r.phase)
}

func TestKickPlayerInLobbyFreesNickname(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")

	r.handleKickPlayer(clients["ana"], ClientMessage{Type: msgKickPlayer, PlayerID: "id-bea"})

	assert.Nil(t, r.findPlayer("id-bea"))
	assert.Len(t, r.players, 2)

	// The seat is free again for a new connection with the same name.
	c := &client{id: "id-bea2", send: make(chan any, 32)}
	jr := &joinRequest{client: c, nickname: "bea", reply: make(chan error, 1)}
	r.handleJoinRequest(jr)
	assert.NoError(t, <-jr.reply)
}

func TestKickPlayerMidGameActsAsDisconnect(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-bea", "id-carla", "id-ana"}, "id-carla")

	events := r.handleKickPlayer(clients["ana"], ClientMessage{Type: msgKickPlayer, PlayerID: "id-bea"})

	kicked := r.findPlayer("id-bea")
	require.NotNil(t, kicked, "mid-game kicks keep the roster entry")
	assert.True(t, kicked.Disconnected)

	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, "id-carla", update.CurrentTurn)
}

func TestKickPlayerNeverSelfOrNonAdmin(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")

	assert.Empty(t, r.handleKickPlayer(clients["ana"], ClientMessage{Type: msgKickPlayer, PlayerID: "id-ana"}))
	assert.Empty(t, r.handleKickPlayer(clients["bea"], ClientMessage{Type: msgKickPlayer, PlayerID: "id-carla"}))
	assert.Len(t, r.players, 3)
}

func TestForceRestartReturnsToLobby(t *testing.T) {
	r, clients := newTestRoom(t, "ana", "bea", "carla")
	startPlaying(r, []string{"id-ana", "id-bea", "id-carla"}, "id-bea")
	r.findPlayer("id-bea").Score = 40
	r.findPlayer("id-carla").Eliminated = true

	events := r.handleForceRestart(clients["ana"])

	assert.Equal(t, phaseLobby, r.phase)
	assert.Empty(t, r.turnOrder)
	assert.Empty(t, r.impostorIDs)
	assert.Equal(t, 40, r.findPlayer("id-bea").Score, "scores survive a restart")
	assert.False(t, r.findPlayer("id-bea").IsImpostor)
	assert.False(t, r.findPlayer("id-carla").Eliminated)

	update, _ := findEvent[GameUpdateMessage](t, events, anyMsg)
	assert.Equal(t, string(phaseLobby), update.State)
}
