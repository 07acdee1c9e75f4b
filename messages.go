/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                 // "join_room", "start_game", "round_complete", "score_update", "request_rematch"
	RoomCode   string `json:"roomCode,omitempty"`   // join_room
	PlayerName string `json:"playerName,omitempty"` // join_room
	Round      int    `json:"round,omitempty"`      // round_complete: the round being finished
	Correct    bool   `json:"correct,omitempty"`    // score_update
}

// SeatInfo is the client-visible view of a seated player.
type SeatInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host"`
}

// Sent to a single client when a join attempt is rejected
type JoinErrorMessage struct {
	Type    string `json:"type"` // "join_error"
	Message string `json:"message"`
}

// Broadcast whenever the seat list grows
type PlayerJoinedMessage struct {
	Type    string         `json:"type"` // "player_joined"
	Players []SeatInfo     `json:"players"`
	Scores  map[string]int `json:"scores"`
}

// Sent only to the host once the room is full
type CanStartGameMessage struct {
	Type string `json:"type"` // "can_start_game"
}

// Broadcast when a game (or rematch) begins
type GameStartedMessage struct {
	Type string `json:"type"` // "game_started"
}

// Sent to a single client when their next round begins
type NewRoundMessage struct {
	Type        string `json:"type"` // "new_round"
	RoundNumber int    `json:"roundNumber"`
	TotalRounds int    `json:"totalRounds"`
}

// Sent to a single client once they have cleared every round
type PlayerFinishedMessage struct {
	Type             string         `json:"type"` // "player_finished"
	OpponentFinished bool           `json:"opponentFinished"`
	OpponentName     string         `json:"opponentName,omitempty"`
	Scores           map[string]int `json:"scores"`
}

// Broadcast after every score report
type ScoresUpdatedMessage struct {
	Type   string         `json:"type"` // "scores_updated"
	Scores map[string]int `json:"scores"`
}

// Broadcast while a rematch vote is still short of unanimous
type RematchRequestedMessage struct {
	Type          string `json:"type"` // "rematch_requested"
	PlayerID      string `json:"id"`
	PlayerName    string `json:"name"`
	TotalRequests int    `json:"totalRequests"`
	TotalPlayers  int    `json:"totalPlayers"`
}

// Broadcast once every seat has finished
type GameOverMessage struct {
	Type          string         `json:"type"` // "game_over"
	Scores        map[string]int `json:"scores"`
	Players       []SeatInfo     `json:"players"`
	FirstToFinish string         `json:"firstToFinish"`
}

// Broadcast whenever a seated player disconnects
type PlayerLeftMessage struct {
	Type    string         `json:"type"` // "player_left"
	Players []SeatInfo     `json:"players"`
	Scores  map[string]int `json:"scores"`
}
