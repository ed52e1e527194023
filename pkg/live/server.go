package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/render"
)

// DefaultPath is where the websocket endpoint is mounted
const DefaultPath = "/flowkit/live/"

const (
	writeWait  = 10 * time.Second
	pongWait   = 300 * time.Second
	pingPeriod = 54 * time.Second
)

// Config configures a live server
type Config struct {
	// Path prefix of the endpoint; the session id follows it
	Path string
	// Source returns the source new sessions start from
	Source func() string
	// Renderer draws every session's diagram
	Renderer render.Renderer
	// Editor options applied to every session
	Editor flowchart.Options
	// OnSave persists a session's source; nil disables saving
	OnSave SaveFunc
	// CheckOrigin overrides the upgrader's origin check
	CheckOrigin func(r *http.Request) bool
}

// Server handles WebSocket connections for live editing
type Server struct {
	config   Config
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewServer creates a new live editing server
func NewServer(config Config) *Server {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.Source == nil {
		config.Source = func() string { return "" }
	}
	if config.Renderer == nil {
		config.Renderer = render.NewLayoutRenderer(render.LayoutOptions{})
	}
	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Path returns the endpoint prefix
func (s *Server) Path() string {
	return s.config.Path
}

// HandleWebSocket handles WebSocket upgrade and session management
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.Trim(strings.TrimPrefix(r.URL.Path, s.config.Path), "/")
	if sessionID == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Live Server] Failed to upgrade connection: %v", err)
		return
	}

	session := s.getOrCreateSession(sessionID)
	go session.handleConnection(conn)
}

// getOrCreateSession gets an existing session or creates a new one
func (s *Server) getOrCreateSession(sessionID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, exists := s.sessions[sessionID]; exists {
		return session
	}

	session := NewSession(s.ctx, sessionID, s.config.Source(), s.config.Renderer, s.config.Editor, s.config.OnSave)
	s.sessions[sessionID] = session
	log.Printf("[Live Server] Created session %s", sessionID)
	return session
}

// GetSession retrieves a session by ID
func (s *Server) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// Sessions returns how many sessions exist
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RemoveSession closes and removes a session
func (s *Server) RemoveSession(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		session.disconnect()
		session.Close()
	}
}

// Broadcast replaces the source of every session and pushes the new
// render. It returns how many sessions were updated.
func (s *Server) Broadcast(source string) int {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		session.push(session.SetSource(source))
	}
	log.Printf("[Live Server] Broadcast new source to %d sessions", len(sessions))
	return len(sessions)
}

// Close disconnects and closes every session
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.disconnect()
		session.Close()
	}
}

// handleConnection attaches conn to the session and serves frames until
// it closes. A reconnect replaces the previous connection.
func (s *Session) handleConnection(conn *websocket.Conn) {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	select {
	case <-s.closeChan:
	default:
		close(s.closeChan)
	}
	s.closeChan = make(chan struct{})
	s.conn = conn
	closeChan := s.closeChan
	s.connMu.Unlock()

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			conn.Close()
			s.connMu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			select {
			case <-closeChan:
			default:
				close(closeChan)
			}
			s.connMu.Unlock()
		})
	}
	defer cleanup()

	go s.writer(conn, closeChan)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Live Session %s] Unexpected close: %v", s.ID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Live Session %s] Bad frame: %v", s.ID, err)
			s.push(ServerMessage{Type: MsgError, Error: "malformed frame"})
			continue
		}
		s.push(s.Handle(msg))
	}
}

// push queues a frame for the writer, dropping it when the buffer is full
func (s *Session) push(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Live Session %s] Failed to encode frame: %v", s.ID, err)
		return
	}
	select {
	case s.sendChan <- data:
	default:
		log.Printf("[Live Session %s] Send buffer full, dropping frame", s.ID)
	}
}

// writer handles writing messages to the WebSocket
func (s *Session) writer(conn *websocket.Conn, closeChan chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.sendChan:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Live Session %s] Failed to write message: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closeChan:
			return
		}
	}
}

// disconnect closes the attached connection, if any
func (s *Session) disconnect() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

// Connected reports whether a websocket is attached
func (s *Session) Connected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn != nil
}
