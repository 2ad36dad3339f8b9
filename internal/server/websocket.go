package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub fans session changes out to every connected client of a game.
// Delivery is at-least-once per connected subscriber; there is no
// replay, so clients joining late get a full snapshot first.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(gameID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[gameID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(gameID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, gameID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(gameID string, payload any) {
	h.mu.Lock()
	group := h.groups[gameID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(gameID, conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	gameIDOrCode, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	game, exists := s.store.GetGame(gameIDOrCode)
	if !exists {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected game_id=%s remote=%s", game.ID, r.RemoteAddr)
	s.ws.Add(game.ID, conn)
	if game, ok := s.store.GetGame(game.ID); ok {
		s.ws.Send(conn, s.snapshotMessage(game))
	}
	go s.readWS(game.ID, conn)
}

func (s *Server) readWS(gameID string, conn *websocket.Conn) {
	defer s.ws.Remove(gameID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected game_id=%s error=%v", gameID, err)
			return
		}
	}
}

func (s *Server) snapshotMessage(game *Game) map[string]any {
	payload := snapshot(game)
	payload["type"] = "snapshot"
	return payload
}

// broadcastGameUpdate pushes a full snapshot: session-phase and field
// changes are reconciled by replacing the client's cached copy.
func (s *Server) broadcastGameUpdate(game *Game) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(game.ID, s.snapshotMessage(game))
}

// broadcastTeamUpdate pushes a single roster insert/update.
func (s *Server) broadcastTeamUpdate(game *Game, team *Team, event string) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(game.ID, map[string]any{
		"type":  "team",
		"event": event,
		"team":  teamPayload(team),
	})
}

// broadcastAnswerUpdate pushes an answer insert. The seq field is the
// ledger position at insert time; clients reconcile by id and may use
// seq to restore insertion order. Authoritative ranking never comes
// from this stream.
func (s *Server) broadcastAnswerUpdate(game *Game, entry *AnswerEntry, seq int) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(game.ID, map[string]any{
		"type":   "answer",
		"seq":    seq,
		"answer": answerPayload(entry),
	})
}
