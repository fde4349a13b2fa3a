package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type              string `json:"type"` // "ask"
	ID                string `json:"id"`   // echoed on every reply
	Question          string `json:"question"`
	Conversation      string `json:"conversation"`
	EnableAuditor     *bool  `json:"enable_auditor"`
	IncludeReferences *bool  `json:"include_references"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type    string           `json:"type"` // "delta", "result" or "error"
	ID      string           `json:"id,omitempty"`
	Content string           `json:"content,omitempty"`
	Result  *pipeline.Result `json:"result,omitempty"`
}

// wsConn serialises writes; deltas and results share one connection.
type wsConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *zap.Logger
}

func (c *wsConn) send(resp wsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		c.logger.Debug("websocket write", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	c := &wsConn{conn: conn, logger: s.logger}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			c.send(wsResponse{Type: "error", Content: "invalid message format"})
			continue
		}
		if req.Type != "ask" {
			c.send(wsResponse{Type: "error", ID: req.ID, Content: "unknown message type: " + req.Type})
			continue
		}
		if strings.TrimSpace(req.Question) == "" {
			c.send(wsResponse{Type: "error", ID: req.ID, Content: "question is required"})
			continue
		}
		s.askOverWebSocket(r, c, req)
	}
}

func (s *Server) askOverWebSocket(r *http.Request, c *wsConn, req wsRequest) {
	if s.deps.Asker == nil {
		c.send(wsResponse{Type: "error", ID: req.ID, Content: "question pipeline not configured"})
		return
	}

	opts := s.runOptions(askRequest{EnableAuditor: req.EnableAuditor, IncludeReferences: req.IncludeReferences})
	opts.OnDelta = func(delta string) {
		c.send(wsResponse{Type: "delta", ID: req.ID, Content: delta})
	}

	res, err := s.deps.Asker.Run(r.Context(), strings.TrimSpace(req.Question), req.Conversation, opts)
	if err != nil {
		c.send(wsResponse{Type: "error", ID: req.ID, Content: err.Error()})
		return
	}
	c.send(wsResponse{Type: "result", ID: req.ID, Result: res})
}
