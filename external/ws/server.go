package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lingoroom/captiond/internal/auth"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/session"
)

// Audio packets arrive base64-encoded inside JSON frames; a 60ms Opus
// packet stays well under this even with padding.
const maxMessageSize = 1 << 20

// Server terminates room websockets. Each accepted connection is verified
// against the auth oracle, joined to its room, and pumped until disconnect.
type Server struct {
	verifier auth.Verifier
	manager  *session.Manager
	upgrader websocket.Upgrader
	srv      *http.Server
}

func NewServer(cfg *config.Config, verifier auth.Verifier, manager *session.Manager) *Server {
	s := &Server{
		verifier: verifier,
		manager:  manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers connect straight from room pages; origin policy is
			// enforced at the edge proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /rooms/{roomID}", s.handleRoom)

	s.srv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	slog.Info("websocket server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if roomID == "" {
		http.Error(w, "room id required", http.StatusBadRequest)
		return
	}

	identity, err := s.verifier.Verify(r.Context(), bearerToken(r))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		slog.Error("token verification failed", "room_id", roomID, "error", err)
		http.Error(w, "verification unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}

	c := newConn(ws)
	go c.writePump()

	sess, err := s.manager.Connect(roomID, c, identity)
	if err != nil {
		slog.Error("failed to attach session", "room_id", roomID, "user_id", identity.UserID, "error", err)
		_ = c.Close()
		return
	}

	s.readPump(ws, c, sess, roomID, identity.UserID)
}

// readPump decodes client frames until the socket dies, then tears the
// session down. It is the only reader on the socket.
func (s *Server) readPump(ws *websocket.Conn, c *conn, sess *session.Session, roomID, userID string) {
	defer func() {
		sess.Close()
		_ = c.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg session.ControlMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "room_id", roomID, "user_id", userID, "error", err)
			}
			return
		}
		if err := sess.HandleControl(msg); err != nil {
			slog.Debug("rejected client frame", "room_id", roomID, "user_id", userID, "error", err)
		}
	}
}

// bearerToken prefers the Authorization header and falls back to the token
// query parameter, which browsers need since the websocket API cannot set
// headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
