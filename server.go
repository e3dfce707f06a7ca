package weft

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/executor"
	"github.com/weftui/weft/internal/session"
)

// actionMessage is a client action in wire form.
type actionMessage struct {
	Action string                 `json:"action" validate:"required"`
	Data   map[string]interface{} `json:"data"`
}

// patchMessage carries one walk's patch operations to the client
// mirror, in application order.
type patchMessage struct {
	Ops   []executor.Op `json:"ops"`
	Error string        `json:"error,omitempty"`
}

// conn is one live WebSocket client: its own component value, its own
// instance and live tree, its session.
type conn struct {
	ws   *websocket.Conn
	inst *Instance
	sess *session.Session
	mu   sync.Mutex // serializes writes and update cycles
}

func (c *conn) send(msg patchMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode patch message: %w", err)
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// Server serves a component over HTTP and keeps WebSocket clients in
// sync by streaming patch operations. Every connection gets its own
// component value and live tree, so per-client state never bleeds
// across connections.
type Server struct {
	ctor     Constructor
	registry *Registry
	sessions session.Store
	upgrader websocket.Upgrader
	validate *validator.Validate

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// ServerOption configures NewServer.
type ServerOption func(*Server)

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store session.Store) ServerOption {
	return func(s *Server) { s.sessions = store }
}

// WithComponentRegistry resolves component references in the served
// component's template.
func WithComponentRegistry(r *Registry) ServerOption {
	return func(s *Server) { s.registry = r }
}

// NewServer creates a sync server for the component built by ctor.
func NewServer(ctor Constructor, opts ...ServerOption) *Server {
	s := &Server{
		ctor:     ctor,
		sessions: session.NewMemoryStore(0),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		validate: validator.New(),
		conns:    make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const sessionCookie = "weft_session"

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWebSocket(w, r)
		return
	}
	s.handleHTTP(w, r)
}

// handleHTTP serves the full rendered document for the initial page
// load; the WebSocket takes over from there.
func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	s.ensureSession(w, r)

	var compileOpts []Option
	if s.registry != nil {
		compileOpts = append(compileOpts, WithRegistry(s.registry))
	}
	comp := s.ctor()
	tmpl, err := Compile(comp.Template(), compileOpts...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body, err := tmpl.Render(comp.Data())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><body>%s</body></html>\n", body)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	c, err := s.connect(ws, sess)
	if err != nil {
		log.Printf("connect failed: %v", err)
		return
	}
	defer s.disconnect(c)

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if err := s.handleAction(c, payload); err != nil {
			c.mu.Lock()
			sendErr := c.send(patchMessage{Error: err.Error()})
			c.mu.Unlock()
			if sendErr != nil {
				return
			}
		}
	}
}

// connect builds the per-connection instance and streams the create
// pass's operations as the first frame.
func (s *Server) connect(ws *websocket.Conn, sess *session.Session) (*conn, error) {
	c := &conn{ws: ws, sess: sess}

	var ops []executor.Op
	sink := func(op executor.Op) { ops = append(ops, op) }

	root := dom.NewElement("body")
	inst, err := Mount(s.registry, s.ctor(), root, nil, WithOpSink(sink))
	if err != nil {
		return nil, err
	}
	c.inst = inst

	if err := c.send(patchMessage{Ops: ops}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	return c, nil
}

func (s *Server) disconnect(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	c.inst.Destroy(nil)
}

// handleAction validates one client action, dispatches it to the
// connection's component and streams the resulting update's patch
// operations back.
func (s *Server) handleAction(c *conn, payload []byte) error {
	var msg actionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parse action: %w", err)
	}
	if err := s.validate.Struct(&msg); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}
	if msg.Data == nil {
		msg.Data = make(map[string]interface{})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.inst.Dispatch(msg.Action, msg.Data); err != nil {
		return err
	}
	return s.pushUpdate(c)
}

// pushUpdate runs an update pass on the connection's instance and
// sends the collected operations. Callers hold c.mu.
func (s *Server) pushUpdate(c *conn) error {
	var ops []executor.Op
	c.inst.ex.Sink = func(op executor.Op) { ops = append(ops, op) }

	var updateErr error
	c.inst.Update(func(err error) { updateErr = err })
	if updateErr != nil {
		return updateErr
	}
	return c.send(patchMessage{Ops: ops})
}

// Broadcast runs an update pass on every connection, for
// server-initiated state changes. Errors are logged, not returned; a
// broken connection is cleaned up by its own read loop.
func (s *Server) Broadcast() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.mu.Lock()
		if err := s.pushUpdate(c); err != nil {
			log.Printf("broadcast update failed: %v", err)
		}
		c.mu.Unlock()
	}
}

// ConnectionCount returns the number of live WebSocket clients.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ensureSession reads the session cookie, minting a session (and
// setting the cookie) when absent or expired.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.Get(cookie.Value); ok {
			return sess
		}
	}
	sess, err := s.sessions.Create()
	if err != nil {
		log.Printf("create session failed: %v", err)
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return sess
}
