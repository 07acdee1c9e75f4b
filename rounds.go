/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

const totalRounds = 10

// advanceLocked moves one seat to its next round. Round counters are fully
// independent: a fast player keeps receiving rounds while a slow one is
// still mid-round. The all-seats-finished check runs on every advance, so
// game_over fires exactly once, on whichever advance completes the set.
func (r *Room) advanceLocked(cfg *Config, identity string) {
	r.rounds[identity]++
	round := r.rounds[identity]

	if round <= totalRounds {
		r.unicastLocked(identity, NewRoundMessage{
			Type:        "new_round",
			RoundNumber: round,
			TotalRounds: totalRounds,
		})
		return
	}

	if r.firstToFinish == "" {
		r.firstToFinish = identity
	}

	var opponent *Seat
	for _, s := range r.seats {
		if s.ID != identity {
			opponent = s
			break
		}
	}

	opponentFinished := false
	opponentName := ""
	if opponent != nil {
		opponentFinished = r.rounds[opponent.ID] > totalRounds
		opponentName = opponent.Name
	}

	r.unicastLocked(identity, PlayerFinishedMessage{
		Type:             "player_finished",
		OpponentFinished: opponentFinished,
		OpponentName:     opponentName,
		Scores:           r.scoresLocked(),
	})

	for _, s := range r.seats {
		if r.rounds[s.ID] <= totalRounds {
			return
		}
	}

	logf(cfg, "DUEL: Game over in %s, first to finish was %s", r.code, r.firstToFinish)

	r.broadcastLocked(GameOverMessage{
		Type:          "game_over",
		Scores:        r.scoresLocked(),
		Players:       r.seatInfosLocked(),
		FirstToFinish: r.firstToFinish,
	})
	r.started = false
}
