package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"hanamikoji-server/game"
	"hanamikoji-server/room"
	"hanamikoji-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between one WebSocket connection and the room it
// joins. It holds no game state of its own beyond which room/seat it is
// attached to — all mutation happens inside that room's goroutine.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	Room     *room.Room
	PlayerID string
}

// ReadPump pumps messages from the websocket connection to the client's
// handler. Runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.Log.Warn("websocket read error", "tag", "hub", "err", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket
// connection, interleaved with periodic pings. Runs in its own goroutine
// per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "CREATE_ROOM":
		c.handleCreateRoom(envelope.Raw)
	case "JOIN_ROOM":
		c.handleJoinRoom(envelope.Raw)
	case "CONFIRM_ORDER":
		c.forward(room.Event{Type: room.EventConfirmOrder, PlayerID: c.PlayerID})
	case "READY_CONFIRM":
		c.forward(room.Event{Type: room.EventReadyConfirm, PlayerID: c.PlayerID})
	case "GAME_ACTION":
		c.handleGameAction(envelope.Raw)
	case "REMATCH_REQUEST":
		c.forward(room.Event{Type: room.EventRematchRequest, PlayerID: c.PlayerID})
	case "LEAVE_ROOM":
		c.handleLeaveRoom()
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

// forward delivers ev to the client's current room, if any, without
// blocking the read pump should the room's mailbox be saturated.
func (c *Client) forward(ev room.Event) {
	if c.Room == nil {
		c.sendError("You are not in a room.")
		return
	}
	select {
	case c.Room.Actions <- ev:
	default:
		c.sendError("Room is busy. Try again.")
	}
}

func (c *Client) handleCreateRoom(raw json.RawMessage) {
	if c.Room != nil {
		c.sendError("Already in a room.")
		return
	}
	var msg CreateRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.PlayerID == "" {
		c.sendError("Invalid CREATE_ROOM message.")
		return
	}
	geishaSet := msg.GeishaSet
	if geishaSet == "" {
		geishaSet = c.Hub.Config.DefaultGeishaSet
	}

	r, err := c.Hub.Registry.CreateRoom(msg.PlayerID, geishaSet)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.Room = r
	c.PlayerID = msg.PlayerID

	wsutil.SafeSend(c.Send, encode("ROOM_CREATED", roomCreatedPayload{RoomID: r.ID, PlayerID: msg.PlayerID}))

	r.Actions <- room.Event{Type: room.EventSeatAttach, PlayerID: msg.PlayerID, Send: c.Send}

	if msg.Mode == "npc" {
		if _, ok := c.Hub.Config.AITiers[msg.AIDifficulty]; ok {
			aiID := "ai-" + r.ID
			r.Actions <- room.Event{Type: room.EventSeatAttach, PlayerID: aiID, IsAI: true, AITier: msg.AIDifficulty}
		}
	}
}

func (c *Client) handleJoinRoom(raw json.RawMessage) {
	if c.Room != nil {
		c.sendError("Already in a room.")
		return
	}
	var msg JoinRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.RoomID == "" || msg.PlayerID == "" {
		c.sendError("Invalid JOIN_ROOM message.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := c.Hub.Registry.GetOrRehydrate(ctx, msg.RoomID)
	if err != nil {
		c.sendError("Room not found.")
		return
	}

	c.Room = r
	c.PlayerID = msg.PlayerID
	r.Actions <- room.Event{Type: room.EventSeatAttach, PlayerID: msg.PlayerID, Send: c.Send}
}

func (c *Client) handleGameAction(raw json.RawMessage) {
	if c.Room == nil {
		c.sendError("You are not in a room.")
		return
	}
	var msg GameActionMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Action.Type == "" {
		c.sendError("Invalid GAME_ACTION message.")
		return
	}
	var payload actionPayload
	if len(msg.Action.Payload) > 0 {
		if err := json.Unmarshal(msg.Action.Payload, &payload); err != nil {
			c.sendError("Invalid GAME_ACTION payload.")
			return
		}
	}
	action := game.ActionInput{
		Type:             msg.Action.Type,
		CardID:           payload.CardID,
		CardIDs:          payload.CardIDs,
		ChosenCardID:     payload.ChosenCardID,
		ChosenGroupIndex: payload.ChosenGroupIndex,
		Groups:           payload.Groups,
	}
	c.forward(room.Event{Type: room.EventGameAction, PlayerID: c.PlayerID, Action: action})
}

func (c *Client) handleLeaveRoom() {
	if c.Room == nil {
		c.sendError("You are not in a room.")
		return
	}
	r := c.Room
	playerID := c.PlayerID
	c.Room = nil
	c.PlayerID = ""
	select {
	case r.Actions <- room.Event{Type: room.EventLeaveRoom, PlayerID: playerID}:
	default:
	}
}

// detachFromRoom notifies the client's room of a dropped connection. Called
// by the hub when a connection's read pump exits.
func (c *Client) detachFromRoom() {
	if c.Room == nil {
		return
	}
	select {
	case c.Room.Actions <- room.Event{Type: room.EventDisconnect, PlayerID: c.PlayerID}:
	default:
	}
}

func (c *Client) sendError(message string) {
	wsutil.SafeSend(c.Send, encode("ERROR", errorPayload{Message: message}))
}
