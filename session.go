/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	conn      *websocket.Conn
	send      chan any
	id        string
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		disconnect(cfg, reg, c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		dispatch(cfg, reg, c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// reply sends directly to a client that may not be in any room yet.
func (c *Client) reply(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

// dispatch maps one inbound message to exactly one room operation. Anything
// referencing a room the caller isn't bound to is a no-op.
func dispatch(cfg *Config, reg *Registry, c *Client, msg ClientMessage) {
	switch msg.Type {
	case "join_room":
		joinRoom(cfg, reg, c, msg)

	case "start_game":
		if room, ok := reg.RoomOf(c.id); ok {
			room.start(cfg, c.id)
		}

	case "round_complete":
		if room, ok := reg.RoomOf(c.id); ok {
			room.completeRound(cfg, c.id, msg.Round)
		}

	case "score_update":
		if room, ok := reg.RoomOf(c.id); ok {
			room.reportScore(cfg, c.id, msg.Correct)
		}

	case "request_rematch":
		if room, ok := reg.RoomOf(c.id); ok {
			room.requestRematch(cfg, c.id)
		}

	default:
		// ignore unknown types
	}
}

func joinRoom(cfg *Config, reg *Registry, c *Client, msg ClientMessage) {
	if msg.RoomCode == "" || msg.PlayerName == "" {
		c.reply(JoinErrorMessage{
			Type:    "join_error",
			Message: "A room code and player name are required.",
		})
		return
	}

	if err := reg.Join(cfg, c, msg.RoomCode, msg.PlayerName); err != nil {
		reason := "Unable to join room."
		switch err {
		case errAlreadySeated:
			reason = "You are already in a room."
		case errRoomFull:
			reason = "Room is full."
		case errDuplicateSeat:
			reason = "You are already in this room."
		}

		c.reply(JoinErrorMessage{
			Type:    "join_error",
			Message: reason,
		})
	}
}

// disconnect is the only cancellation signal: the seat is vacated, the
// remaining player notified, and the room destroyed if no seats remain.
// Idempotent for identities that never joined a room.
func disconnect(cfg *Config, reg *Registry, c *Client) {
	reg.Leave(cfg, c.id)
	c.close()
}
