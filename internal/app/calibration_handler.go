// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gait_lock/internal/auth"
	"github.com/relabs-tech/gait_lock/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Controller is the part of the engine exposed to operators.
type Controller interface {
	Toggle() session.Transition
	Status() auth.Status
	Retrain(ctx context.Context) error
}

// WebSocket message types
type WSMessage struct {
	Action string `json:"action"` // toggle, status, retrain
}

type WSResponse struct {
	Type       string              `json:"type"` // outcome, status, transition, error
	Outcome    *auth.Outcome       `json:"outcome,omitempty"`
	Status     *auth.Status        `json:"status,omitempty"`
	Transition *session.Transition `json:"transition,omitempty"`
	Message    string              `json:"message,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(r WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(r)
}

// Hub fans tick outcomes out to every connected dashboard.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[*wsClient]struct{}{}}
}

// Broadcast sends r to every client, dropping clients whose write fails.
func (h *Hub) Broadcast(r WSResponse) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(r); err != nil {
			log.Printf("control: websocket write error: %v", err)
			h.remove(c)
			c.conn.Close()
		}
	}
}

// PublishOutcome broadcasts one tick.
func (h *Hub) PublishOutcome(o auth.Outcome) {
	h.Broadcast(WSResponse{Type: "outcome", Outcome: &o})
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Clients returns the number of connected dashboards.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWS upgrades the connection, sends the current status and then
// serves toggle/status/retrain actions until the client goes away.
func (h *Hub) HandleWS(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("control: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		c := &wsClient{conn: conn}
		st := ctrl.Status()
		if err := c.send(WSResponse{Type: "status", Status: &st}); err != nil {
			return
		}
		h.add(c)
		defer h.remove(c)

		// Main message loop
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("control: websocket read error: %v", err)
				}
				return
			}

			switch msg.Action {
			case "toggle":
				tr := ctrl.Toggle()
				h.Broadcast(WSResponse{Type: "transition", Transition: &tr})
			case "status":
				st := ctrl.Status()
				c.send(WSResponse{Type: "status", Status: &st})
			case "retrain":
				if err := ctrl.Retrain(r.Context()); err != nil {
					c.send(WSResponse{Type: "error", Message: err.Error()})
					continue
				}
				st := ctrl.Status()
				c.send(WSResponse{Type: "status", Status: &st})
			default:
				c.send(WSResponse{Type: "error", Message: "unknown action " + msg.Action})
			}
		}
	}
}
