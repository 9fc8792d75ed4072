package main

// Messages coming from clients. A single envelope with a type discriminator;
// unused fields are simply absent.
type ClientMessage struct {
	Type          string `json:"type"`                    // see the msg* constants
	Nickname      string `json:"nickname,omitempty"`      // createRoom / joinRoom
	RoomCode      string `json:"roomCode,omitempty"`      // joinRoom
	Category      string `json:"category,omitempty"`      // startGame
	ImpostorCount int    `json:"impostorCount,omitempty"` // startGame
	KnowImpostors bool   `json:"knowImpostors,omitempty"` // startGame
	Choice        string `json:"choice,omitempty"`        // choosePosition: "LAST" or "RANDOM"
	VotedID       string `json:"votedId,omitempty"`       // vote: player id or "SKIP"
	Guess         string `json:"guess,omitempty"`         // attemptGuess
	PlayerID      string `json:"playerId,omitempty"`      // kickPlayer
}

const (
	msgCreateRoom     = "createRoom"
	msgJoinRoom       = "joinRoom"
	msgStartGame      = "startGame"
	msgChoosePosition = "choosePosition"
	msgNextTurn       = "nextTurn"
	msgPassTurn       = "passTurn"
	msgVote           = "vote"
	msgAttemptGuess   = "attemptGuess"
	msgRequestHint    = "requestHint"
	msgPlayAgain      = "playAgain"
	msgKickPlayer     = "kickPlayer"
	msgForceRestart   = "forceRestart"
)

const (
	choiceLast   = "LAST"
	choiceRandom = "RANDOM"
)

// voteSkip is the skip-marker accepted in place of a target player id.
const voteSkip = "SKIP"

// PlayerState is the wire form of a roster entry.
type PlayerState struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	Score        int    `json:"score"`
	IsImpostor   bool   `json:"isImpostor"`
	Eliminated   bool   `json:"eliminated"`
	Disconnected bool   `json:"disconnected"`
}

// Messages sent to clients.

type RoomCreatedMessage struct {
	Type     string `json:"type"` // "roomCreated"
	RoomCode string `json:"roomCode"`
	IsAdmin  bool   `json:"isAdmin"`
}

type RoomJoinedMessage struct {
	Type     string `json:"type"` // "roomJoined"
	RoomCode string `json:"roomCode"`
	IsAdmin  bool   `json:"isAdmin"`
}

type LobbyMessage struct {
	Type    string        `json:"type"` // "updateLobby"
	Players []PlayerState `json:"players"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// ImpostorChoiceMessage prompts an impostor to pick a turn position before
// the round starts. Duration is in milliseconds.
type ImpostorChoiceMessage struct {
	Type     string `json:"type"` // "impostorChoice"
	Duration int64  `json:"duration"`
}

type GameStartingMessage struct {
	Type     string `json:"type"` // "gameStarting"
	Duration int64  `json:"duration"`
}

type GameStartedMessage struct {
	Type      string   `json:"type"`     // "gameStarted"
	Category  string   `json:"category"` // display category, may be "random"
	TurnOrder []string `json:"turnOrder"`
}

// RoleInfoMessage is always player-scoped, never broadcast.
type RoleInfoMessage struct {
	Type       string   `json:"type"` // "roleInfo"
	Word       string   `json:"word"`
	IsImpostor bool     `json:"isImpostor"`
	Category   string   `json:"category"`
	Partners   []string `json:"partners"`
}

type GameUpdateMessage struct {
	Type        string        `json:"type"`  // "gameUpdate"
	State       string        `json:"state"` // phase name
	CurrentTurn string        `json:"currentTurn,omitempty"`
	Players     []PlayerState `json:"players,omitempty"`
	TurnOrder   []string      `json:"turnOrder,omitempty"`
}

// HintRevealMessage is requester-scoped; it names the true category even
// when the room publicly shows the random sentinel.
type HintRevealMessage struct {
	Type     string   `json:"type"` // "hintReveal"
	Category string   `json:"category"`
	Words    []string `json:"words"`
}

type VoteProgressMessage struct {
	Type      string `json:"type"` // "updateVotes"
	VoteCount int    `json:"voteCount"`
	Total     int    `json:"total"`
}

type VoteResultMessage struct {
	Type          string         `json:"type"` // "voteResult"
	Results       map[string]int `json:"results"`
	SkipCount     int            `json:"skipCount"`
	EliminatedID  string         `json:"eliminatedId,omitempty"`
	GameEnded     bool           `json:"gameEnded"`
	Winner        string         `json:"winner,omitempty"` // "IMPOSTOR" or "CREW"
	ImpostorNames []string       `json:"impostorNames"`
	SecretWord    string         `json:"secretWord"`
}

type GameEndedMessage struct {
	Type        string        `json:"type"` // "gameEnded"
	Leaderboard []PlayerState `json:"leaderboard"`
}

type GuessResultMessage struct {
	Type    string `json:"type"` // "guessResult"
	Success bool   `json:"success"`
}

type AdminMessage struct {
	Type string `json:"type"` // "youAreAdmin"
}

const (
	winnerImpostor = "IMPOSTOR"
	winnerCrew     = "CREW"
)

// outbound scopes a single message: an empty target means the whole room,
// otherwise only the named player's connection.
type outbound struct {
	to  string
	msg any
}

func broadcast(msg any) outbound {
	return outbound{msg: msg}
}

func sendTo(playerID string, msg any) outbound {
	return outbound{to: playerID, msg: msg}
}
