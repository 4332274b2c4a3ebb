package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/presence"
	"github.com/dawei41468/CardGameApp/pkg/repositories"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
)

const noticeFlushInterval = 100 * time.Millisecond

type Server struct {
	server     *http.Server
	tls        *TLSConfig
	engine     *engine.Engine
	sessions   *presence.SessionManager
	repository repositories.Repository
	registry   *sessionRegistry

	// baseCtx scopes session subscriptions, which must outlive the
	// request that created them.
	baseCtx context.Context
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewServerOptions struct {
	Port           int
	TLS            *TLSConfig
	Engine         *engine.Engine
	SessionManager *presence.SessionManager
	// Repository serves the room archive endpoints. Optional.
	Repository repositories.Repository
	// BaseContext scopes session subscriptions. Defaults to
	// context.Background().
	BaseContext context.Context
}

// NewServer creates a new http.Server for handling room and session requests
func NewServer(opts NewServerOptions) *Server {
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	s := &Server{
		tls:        opts.TLS,
		engine:     opts.Engine,
		sessions:   opts.SessionManager,
		repository: opts.Repository,
		registry:   newSessionRegistry(),
		baseCtx:    baseCtx,
	}

	r := mux.NewRouter()
	r.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}", s.handleGetRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/join", s.handleJoinRoom).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/actions", s.handleAction).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/leave", s.handleLeave).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/exit", s.handleExit).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/archives", s.handleListArchives).Methods(http.MethodGet)
	r.HandleFunc("/archives/{code}", s.handleGetArchive).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: r,
	}
	return s
}

// Start starts the Server
func (s *Server) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("Gateway listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("Gateway listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Gateway closed")
			return
		}
		log.Error("Gateway error: %v", err)
	}
}

// Stop stops the Server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// forwardEvents drains a session's presence events into its notice queue
// so a client that connects late still sees them.
func (s *Server) forwardEvents(cs *clientSession) {
	for event := range cs.session.Events() {
		if err := cs.notices.Enqueue(event); err != nil {
			log.Warn("dropping event for session %s: %v", cs.id, err)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	cs, err := s.registry.get(mux.Vars(r)["sessionID"])
	if err != nil {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("Failed to accept WebSocket connection: %v", err)
		return
	}
	log.Debug("New WebSocket connection for session %s", cs.id)

	// CloseRead keeps control frames serviced and cancels the context
	// when the client goes away.
	ctx := conn.CloseRead(r.Context())
	s.pushLoop(ctx, conn, cs)
	conn.Close(websocket.StatusNormalClosure, "")
}

// pushLoop streams view state, presence events, and queued notices to a
// connected client until the connection or session ends.
func (s *Server) pushLoop(ctx context.Context, conn *websocket.Conn, cs *clientSession) {
	projector := cs.session.Projector()

	// The client always starts from the current state.
	if err := s.writeMessage(ctx, conn, MessageTypeState, projector.State()); err != nil {
		log.Debug("Failed to write initial state for session %s: %v", cs.id, err)
		return
	}

	ticker := time.NewTicker(noticeFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-projector.Updates():
			if !ok {
				return
			}
			if err := s.writeMessage(ctx, conn, MessageTypeState, state); err != nil {
				log.Debug("Failed to write state for session %s: %v", cs.id, err)
				return
			}
		case err, ok := <-projector.Errors():
			if !ok {
				return
			}
			if writeErr := s.writeMessage(ctx, conn, MessageTypeError, errorPayloadFor(err)); writeErr != nil {
				log.Debug("Failed to write error for session %s: %v", cs.id, writeErr)
				return
			}
		case <-ticker.C:
			if err := s.flushNotices(ctx, conn, cs); err != nil {
				log.Debug("Failed to flush notices for session %s: %v", cs.id, err)
				return
			}
		}
	}
}

func (s *Server) flushNotices(ctx context.Context, conn *websocket.Conn, cs *clientSession) error {
	pending, err := cs.notices.ReadAllMessages()
	if err != nil {
		return fmt.Errorf("failed to read notices: %v", err)
	}
	for _, item := range pending {
		switch payload := item.(type) {
		case presence.Event:
			if err := s.writeMessage(ctx, conn, MessageTypeEvent, payload); err != nil {
				return err
			}
		case NoticePayload:
			if err := s.writeMessage(ctx, conn, MessageTypeNotice, payload); err != nil {
				return err
			}
		default:
			log.Warn("unknown notice type %T for session %s", item, cs.id)
		}
	}
	return nil
}

func (s *Server) writeMessage(ctx context.Context, conn *websocket.Conn, msgType MessageType, payload interface{}) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	b, err := SerializeMessage(msg)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}
	return nil
}

// errorPayloadFor maps a projector error onto a severity the client can
// act on. A missing room cannot be recovered from inside the session.
func errorPayloadFor(err error) ErrorPayload {
	severity := SeverityTransient
	if engine.IsNotFound(err) {
		severity = SeverityCritical
	}
	return ErrorPayload{
		Severity: severity,
		Message:  err.Error(),
	}
}
