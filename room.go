/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"
)

// Seat is a joined player's slot. The first seat to fill holds start
// authority, tracked explicitly rather than by position.
type Seat struct {
	ID   string
	Name string
	Host bool
}

// Room is a two-seat game session. Every operation takes the room mutex for
// its full duration, so no two operations on the same room ever interleave.
type Room struct {
	code string

	mu            sync.Mutex
	seats         []*Seat
	scores        map[string]int
	rounds        map[string]int // identity -> 1-based round currently being attempted
	started       bool
	firstToFinish string
	rematchVotes  map[string]bool
	clients       map[string]*Client // identity -> connection
}

type roomState int

const (
	stateLobby roomState = iota
	stateReady
	stateInProgress
	stateAwaitingFinish
	stateOver
)

func (s roomState) String() string {
	switch s {
	case stateLobby:
		return "lobby"
	case stateReady:
		return "ready"
	case stateInProgress:
		return "in-progress"
	case stateAwaitingFinish:
		return "awaiting-finish"
	case stateOver:
		return "over"
	default:
		return "unknown"
	}
}

func newRoom(code string) *Room {
	return &Room{
		code:         code,
		scores:       make(map[string]int),
		rounds:       make(map[string]int),
		rematchVotes: make(map[string]bool),
		clients:      make(map[string]*Client),
	}
}

func (r *Room) stateLocked() roomState {
	finished := 0
	for _, s := range r.seats {
		if r.rounds[s.ID] > totalRounds {
			finished++
		}
	}

	switch {
	case r.started && finished == 0:
		return stateInProgress
	case r.started:
		return stateAwaitingFinish
	case finished > 0 && finished == len(r.seats):
		return stateOver
	case len(r.seats) == 2:
		return stateReady
	default:
		return stateLobby
	}
}

func (r *Room) seatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.seats)
}

func (r *Room) seatLocked(identity string) *Seat {
	for _, s := range r.seats {
		if s.ID == identity {
			return s
		}
	}
	return nil
}

func (r *Room) hostLocked() *Seat {
	for _, s := range r.seats {
		if s.Host {
			return s
		}
	}
	return nil
}

// canStartLocked is the sole authority check for starting a fresh game.
func (r *Room) canStartLocked(identity string) bool {
	host := r.hostLocked()
	return host != nil && host.ID == identity && len(r.seats) == 2
}

// scoresLocked snapshots the score map for marshaling outside the lock.
func (r *Room) scoresLocked() map[string]int {
	scores := make(map[string]int, len(r.scores))
	for id, score := range r.scores {
		scores[id] = score
	}
	return scores
}

func (r *Room) seatInfosLocked() []SeatInfo {
	players := make([]SeatInfo, 0, len(r.seats))
	for _, s := range r.seats {
		players = append(players, SeatInfo{
			ID:   s.ID,
			Name: s.Name,
			Host: s.Host,
		})
	}
	return players
}

func (r *Room) broadcastLocked(msg any) {
	for id, c := range r.clients {
		select {
		case c.send <- msg:
		default:
			delete(r.clients, id)
			c.close()
		}
	}
}

func (r *Room) unicastLocked(identity string, msg any) {
	c, ok := r.clients[identity]
	if !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(r.clients, identity)
		c.close()
	}
}

// join seats a new player and broadcasts the updated roster. Once the second
// seat fills, only the host is told the game may begin.
func (r *Room) join(cfg *Config, c *Client, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatLocked(c.id) != nil {
		return errDuplicateSeat
	}
	if len(r.seats) >= 2 {
		return errRoomFull
	}

	r.seats = append(r.seats, &Seat{
		ID:   c.id,
		Name: name,
		Host: len(r.seats) == 0,
	})
	r.scores[c.id] = 0
	r.rounds[c.id] = 0
	r.clients[c.id] = c

	logf(cfg, "DUEL: Player %q joined %s (%s)", name, r.code, r.stateLocked())

	r.broadcastLocked(PlayerJoinedMessage{
		Type:    "player_joined",
		Players: r.seatInfosLocked(),
		Scores:  r.scoresLocked(),
	})

	if len(r.seats) == 2 {
		r.unicastLocked(r.hostLocked().ID, CanStartGameMessage{Type: "can_start_game"})
	}

	return nil
}

// start begins a fresh game. Requests from anyone but the host of a full
// room are ignored without any event.
func (r *Room) start(cfg *Config, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.canStartLocked(identity) {
		return
	}

	r.restartLocked(cfg)
}

// restartLocked resets scores, rounds, votes, and the first-finisher marker,
// then dispatches round 1 to every seat independently.
func (r *Room) restartLocked(cfg *Config) {
	for _, s := range r.seats {
		r.scores[s.ID] = 0
		r.rounds[s.ID] = 0
	}
	r.firstToFinish = ""
	r.rematchVotes = make(map[string]bool)
	r.started = true

	logf(cfg, "DUEL: Game started in %s", r.code)

	r.broadcastLocked(GameStartedMessage{Type: "game_started"})

	for _, s := range r.seats {
		r.advanceLocked(cfg, s.ID)
	}
}

// completeRound finishes the caller's current round without a score change
// (a skip or a client-side timeout). The round token guards against a stray
// completion arriving after a correct answer already advanced the seat.
func (r *Room) completeRound(cfg *Config, identity string, round int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	current, ok := r.rounds[identity]
	if !ok {
		return
	}
	if round != 0 && round != current {
		return
	}

	r.advanceLocked(cfg, identity)
}

// reportScore tallies a client-judged answer. A correct answer advances the
// round immediately; an incorrect one leaves the seat on its current round.
func (r *Room) reportScore(cfg *Config, identity string, correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	if _, ok := r.scores[identity]; !ok {
		return
	}

	if correct {
		r.scores[identity]++
	}

	r.broadcastLocked(ScoresUpdatedMessage{
		Type:   "scores_updated",
		Scores: r.scoresLocked(),
	})

	if correct {
		r.advanceLocked(cfg, identity)
	}
}

// requestRematch records a vote. Unanimity across the current seats restarts
// the game exactly as start does; anything short of that is broadcast as
// progress.
func (r *Room) requestRematch(cfg *Config, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatLocked(identity)
	if seat == nil {
		return
	}

	r.rematchVotes[identity] = true

	if len(r.rematchVotes) == len(r.seats) {
		logf(cfg, "DUEL: Rematch agreed in %s", r.code)
		r.restartLocked(cfg)
		return
	}

	r.broadcastLocked(RematchRequestedMessage{
		Type:          "rematch_requested",
		PlayerID:      identity,
		PlayerName:    seat.Name,
		TotalRequests: len(r.rematchVotes),
		TotalPlayers:  len(r.seats),
	})
}

// leave removes a seat and all of its map entries. The caller destroys the
// room via the registry when true is returned.
func (r *Room) leave(cfg *Config, identity string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, identity)

	seat := r.seatLocked(identity)
	if seat == nil {
		return len(r.seats) == 0
	}

	dst := r.seats[:0]
	for _, s := range r.seats {
		if s.ID == identity {
			continue
		}
		dst = append(dst, s)
	}
	r.seats = dst

	delete(r.scores, identity)
	delete(r.rounds, identity)
	delete(r.rematchVotes, identity)

	logf(cfg, "DUEL: Player %q left %s", seat.Name, r.code)

	if len(r.seats) == 0 {
		return true
	}

	// The remaining seat inherits start authority for the next pairing.
	r.seats[0].Host = true

	r.broadcastLocked(PlayerLeftMessage{
		Type:    "player_left",
		Players: r.seatInfosLocked(),
		Scores:  r.scoresLocked(),
	})

	return false
}
