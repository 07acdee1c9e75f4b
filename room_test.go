package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(id string) *Client {
	return &Client{
		id:   id,
		send: make(chan any, 64),
	}
}

func drain(c *Client) []any {
	var msgs []any
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func ofType[T any](msgs []any) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// seatedRoom returns a room with Alice (host) and Bob seated, with both
// clients drained of lobby traffic.
func seatedRoom(t *testing.T) (*Room, *Client, *Client) {
	t.Helper()

	cfg := &Config{}
	room := newRoom("AB12")
	alice := testClient("alice")
	bob := testClient("bob")

	require.NoError(t, room.join(cfg, alice, "Alice"))
	require.NoError(t, room.join(cfg, bob, "Bob"))
	drain(alice)
	drain(bob)

	return room, alice, bob
}

func startedRoom(t *testing.T) (*Room, *Client, *Client) {
	t.Helper()

	room, alice, bob := seatedRoom(t)
	room.start(&Config{}, alice.id)
	drain(alice)
	drain(bob)

	return room, alice, bob
}

func TestJoinSeatsPlayersAndNotifiesHost(t *testing.T) {
	cfg := &Config{}
	room := newRoom("AB12")
	alice := testClient("alice")
	bob := testClient("bob")

	require.NoError(t, room.join(cfg, alice, "Alice"))

	joined := ofType[PlayerJoinedMessage](drain(alice))
	require.Len(t, joined, 1)
	require.Len(t, joined[0].Players, 1)
	assert.Equal(t, "Alice", joined[0].Players[0].Name)
	assert.True(t, joined[0].Players[0].Host)
	assert.Equal(t, map[string]int{"alice": 0}, joined[0].Scores)

	require.NoError(t, room.join(cfg, bob, "Bob"))

	aliceMsgs := drain(alice)
	bobMsgs := drain(bob)

	joined = ofType[PlayerJoinedMessage](aliceMsgs)
	require.Len(t, joined, 1)
	require.Len(t, joined[0].Players, 2)
	assert.False(t, joined[0].Players[1].Host)

	assert.Len(t, ofType[CanStartGameMessage](aliceMsgs), 1, "host is told the game may start")
	assert.Empty(t, ofType[CanStartGameMessage](bobMsgs), "guest has no start authority")
}

func TestJoinRoomNeverExceedsTwoSeats(t *testing.T) {
	cfg := &Config{}
	room := newRoom("AB12")

	require.NoError(t, room.join(cfg, testClient("p1"), "One"))
	require.NoError(t, room.join(cfg, testClient("p2"), "Two"))

	for i := 3; i < 8; i++ {
		err := room.join(cfg, testClient(fmt.Sprintf("p%d", i)), "Extra")
		assert.ErrorIs(t, err, errRoomFull)
		assert.Equal(t, 2, room.seatCount())
	}
}

func TestJoinDuplicateSeat(t *testing.T) {
	cfg := &Config{}
	room := newRoom("AB12")
	alice := testClient("alice")

	require.NoError(t, room.join(cfg, alice, "Alice"))
	assert.ErrorIs(t, room.join(cfg, alice, "Alice"), errDuplicateSeat)
}

func TestStartRequiresHostAndFullRoom(t *testing.T) {
	cfg := &Config{}
	room := newRoom("AB12")
	alice := testClient("alice")

	require.NoError(t, room.join(cfg, alice, "Alice"))
	drain(alice)

	// Host alone cannot start
	room.start(cfg, alice.id)
	assert.False(t, room.started)
	assert.Empty(t, drain(alice))

	bob := testClient("bob")
	require.NoError(t, room.join(cfg, bob, "Bob"))
	drain(alice)
	drain(bob)

	// Guest start requests are ignored without any event
	room.start(cfg, bob.id)
	assert.False(t, room.started)
	assert.Empty(t, drain(alice))
	assert.Empty(t, drain(bob))

	room.start(cfg, alice.id)
	assert.True(t, room.started)

	aliceMsgs := drain(alice)
	bobMsgs := drain(bob)

	require.Len(t, ofType[GameStartedMessage](aliceMsgs), 1)
	require.Len(t, ofType[GameStartedMessage](bobMsgs), 1)

	for _, msgs := range [][]any{aliceMsgs, bobMsgs} {
		rounds := ofType[NewRoundMessage](msgs)
		require.Len(t, rounds, 1)
		assert.Equal(t, 1, rounds[0].RoundNumber)
		assert.Equal(t, 10, rounds[0].TotalRounds)
	}
}

func TestRoundCountersAreIndependent(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)

	for round := 1; round <= 3; round++ {
		room.completeRound(cfg, alice.id, round)
	}

	rounds := ofType[NewRoundMessage](drain(alice))
	require.Len(t, rounds, 3)
	assert.Equal(t, 4, rounds[2].RoundNumber)

	assert.Equal(t, 4, room.rounds[alice.id])
	assert.Equal(t, 1, room.rounds[bob.id])
	assert.Empty(t, drain(bob), "opponent rounds are unaffected")
}

func TestReportScoreCorrectAdvances(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)

	room.reportScore(cfg, alice.id, true)

	aliceMsgs := drain(alice)
	updates := ofType[ScoresUpdatedMessage](aliceMsgs)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, updates[0].Scores[alice.id])

	rounds := ofType[NewRoundMessage](aliceMsgs)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].RoundNumber)

	assert.Len(t, ofType[ScoresUpdatedMessage](drain(bob)), 1, "score updates are room-wide")
}

func TestReportScoreIncorrectDoesNotAdvance(t *testing.T) {
	cfg := &Config{}
	room, alice, _ := startedRoom(t)

	room.reportScore(cfg, alice.id, false)

	aliceMsgs := drain(alice)
	updates := ofType[ScoresUpdatedMessage](aliceMsgs)
	require.Len(t, updates, 1)
	assert.Equal(t, 0, updates[0].Scores[alice.id])
	assert.Empty(t, ofType[NewRoundMessage](aliceMsgs))
	assert.Equal(t, 1, room.rounds[alice.id])
}

func TestStaleRoundCompleteIsIgnored(t *testing.T) {
	cfg := &Config{}
	room, alice, _ := startedRoom(t)

	// A correct answer already advanced this seat to round 2...
	room.reportScore(cfg, alice.id, true)
	drain(alice)
	require.Equal(t, 2, room.rounds[alice.id])

	// ...so a completion of round 1 that raced it changes nothing.
	room.completeRound(cfg, alice.id, 1)
	assert.Equal(t, 2, room.rounds[alice.id])
	assert.Empty(t, drain(alice))

	// A matching token advances as usual.
	room.completeRound(cfg, alice.id, 2)
	assert.Equal(t, 3, room.rounds[alice.id])

	// Clients that omit the token keep the original skip behavior.
	room.completeRound(cfg, alice.id, 0)
	assert.Equal(t, 4, room.rounds[alice.id])
}

func TestRoundsRequireStartedGame(t *testing.T) {
	cfg := &Config{}
	room, alice, _ := seatedRoom(t)

	room.completeRound(cfg, alice.id, 1)
	room.reportScore(cfg, alice.id, true)

	assert.Equal(t, 0, room.rounds[alice.id])
	assert.Equal(t, 0, room.scores[alice.id])
	assert.Empty(t, drain(alice))
}

func TestPlayerFinishedThenGameOver(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)

	for i := 0; i < totalRounds; i++ {
		room.reportScore(cfg, alice.id, true)
	}

	require.Equal(t, totalRounds+1, room.rounds[alice.id])

	aliceMsgs := drain(alice)
	finishes := ofType[PlayerFinishedMessage](aliceMsgs)
	require.Len(t, finishes, 1)
	assert.False(t, finishes[0].OpponentFinished)
	assert.Equal(t, "Bob", finishes[0].OpponentName)
	assert.Equal(t, totalRounds, finishes[0].Scores[alice.id])

	assert.Empty(t, ofType[GameOverMessage](aliceMsgs), "no game over while a seat is mid-rounds")
	assert.True(t, room.started)
	assert.Equal(t, alice.id, room.firstToFinish)

	for round := 1; round <= totalRounds; round++ {
		room.completeRound(cfg, bob.id, round)
	}

	bobMsgs := drain(bob)
	finishes = ofType[PlayerFinishedMessage](bobMsgs)
	require.Len(t, finishes, 1)
	assert.True(t, finishes[0].OpponentFinished)

	for _, msgs := range [][]any{drain(alice), bobMsgs} {
		over := ofType[GameOverMessage](msgs)
		require.Len(t, over, 1, "game over fires exactly once per client")
		assert.Equal(t, alice.id, over[0].FirstToFinish)
		assert.Equal(t, totalRounds, over[0].Scores[alice.id])
		assert.Equal(t, 0, over[0].Scores[bob.id])
		assert.Len(t, over[0].Players, 2)
	}

	assert.False(t, room.started)
}

func TestRematchRequiresUnanimity(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)
	drainGame(t, room, alice, bob)

	room.requestRematch(cfg, alice.id)
	assert.False(t, room.started)

	progress := ofType[RematchRequestedMessage](drain(bob))
	require.Len(t, progress, 1)
	assert.Equal(t, "Alice", progress[0].PlayerName)
	assert.Equal(t, 1, progress[0].TotalRequests)
	assert.Equal(t, 2, progress[0].TotalPlayers)

	// Repeat votes from the same seat never reach unanimity.
	room.requestRematch(cfg, alice.id)
	assert.False(t, room.started)
	progress = ofType[RematchRequestedMessage](drain(bob))
	require.Len(t, progress, 1)
	assert.Equal(t, 1, progress[0].TotalRequests)

	drain(alice)

	room.requestRematch(cfg, bob.id)
	assert.True(t, room.started)
	assert.Empty(t, room.rematchVotes, "votes are cleared the instant a rematch is agreed")

	for _, c := range []*Client{alice, bob} {
		msgs := drain(c)
		assert.Len(t, ofType[GameStartedMessage](msgs), 1)
		rounds := ofType[NewRoundMessage](msgs)
		require.Len(t, rounds, 1)
		assert.Equal(t, 1, rounds[0].RoundNumber)
	}
}

func TestRematchResetsGameState(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)
	drainGame(t, room, alice, bob)

	require.Equal(t, alice.id, room.firstToFinish)

	room.requestRematch(cfg, alice.id)
	room.requestRematch(cfg, bob.id)

	assert.Empty(t, room.firstToFinish)
	assert.Equal(t, 0, room.scores[alice.id])
	assert.Equal(t, 1, room.rounds[alice.id])
	assert.Equal(t, 1, room.rounds[bob.id])
	assert.True(t, room.started)
}

// drainGame plays alice to ten correct answers and bob to ten skips, then
// empties both mailboxes.
func drainGame(t *testing.T, room *Room, alice, bob *Client) {
	t.Helper()

	cfg := &Config{}
	for i := 0; i < totalRounds; i++ {
		room.reportScore(cfg, alice.id, true)
	}
	for round := 1; round <= totalRounds; round++ {
		room.completeRound(cfg, bob.id, round)
	}

	require.False(t, room.started)
	drain(alice)
	drain(bob)
}

func TestLeaveBroadcastsRemainingRoster(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)

	empty := room.leave(cfg, bob.id)

	assert.False(t, empty)
	assert.Equal(t, 1, room.seatCount())
	assert.NotContains(t, room.scores, bob.id)
	assert.NotContains(t, room.rounds, bob.id)

	left := ofType[PlayerLeftMessage](drain(alice))
	require.Len(t, left, 1)
	require.Len(t, left[0].Players, 1)
	assert.Equal(t, "Alice", left[0].Players[0].Name)
	assert.NotContains(t, left[0].Scores, bob.id)
}

func TestLeaveLastSeatEmptiesRoom(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := seatedRoom(t)

	assert.False(t, room.leave(cfg, bob.id))
	assert.True(t, room.leave(cfg, alice.id))
	assert.Equal(t, 0, room.seatCount())
}

func TestLeaveTransfersStartAuthority(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := seatedRoom(t)

	room.leave(cfg, alice.id)
	drain(bob)

	carol := testClient("carol")
	require.NoError(t, room.join(cfg, carol, "Carol"))

	assert.Len(t, ofType[CanStartGameMessage](drain(bob)), 1, "promoted seat holds start authority")
	assert.Empty(t, ofType[CanStartGameMessage](drain(carol)))

	room.start(cfg, carol.id)
	assert.False(t, room.started)

	room.start(cfg, bob.id)
	assert.True(t, room.started)
}

func TestLeaveDropsRematchVote(t *testing.T) {
	cfg := &Config{}
	room, alice, bob := startedRoom(t)
	drainGame(t, room, alice, bob)

	room.requestRematch(cfg, bob.id)
	room.leave(cfg, bob.id)

	assert.Empty(t, room.rematchVotes)
}

func TestRoomStates(t *testing.T) {
	cfg := &Config{}
	room := newRoom("AB12")
	alice := testClient("alice")
	bob := testClient("bob")

	assert.Equal(t, stateLobby, room.stateLocked())

	require.NoError(t, room.join(cfg, alice, "Alice"))
	assert.Equal(t, stateLobby, room.stateLocked())

	require.NoError(t, room.join(cfg, bob, "Bob"))
	assert.Equal(t, stateReady, room.stateLocked())

	room.start(cfg, alice.id)
	assert.Equal(t, stateInProgress, room.stateLocked())

	for i := 0; i < totalRounds; i++ {
		room.reportScore(cfg, alice.id, true)
	}
	assert.Equal(t, stateAwaitingFinish, room.stateLocked())

	for round := 1; round <= totalRounds; round++ {
		room.completeRound(cfg, bob.id, round)
	}
	assert.Equal(t, stateOver, room.stateLocked())
}
