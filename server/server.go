package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lazharichir/jpoker/auth"
	"github.com/lazharichir/jpoker/domain"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/lazharichir/jpoker/server/connection"
	"github.com/lazharichir/jpoker/server/handlers"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the protocol carries its own version check and auth
	},
}

// Options configures a Server
type Options struct {
	AuthMode    protocol.AuthMode
	Verifier    auth.Verifier
	MaxClients  int
	SingleLogin bool
	Log         *slog.Logger
}

// Server accepts client connections and hands them to the packet router
type Server struct {
	lobby   *domain.Lobby
	connMgr *connection.Manager
	router  *handlers.PacketRouter
	log     *slog.Logger

	mutex     sync.Mutex
	listeners []net.Listener
	http      []*http.Server
	sessions  sync.WaitGroup
}

// TableResponse represents a table in API responses
type TableResponse struct {
	ID        int    `json:"id"`
	Seats     int    `json:"seats"`
	Occupied  int    `json:"occupied"`
	Connected int    `json:"connected"`
	Stage     string `json:"stage"`
	Pot       int    `json:"pot"`
}

// New creates a server over an existing lobby
func New(lobby *domain.Lobby, opts Options) (*Server, error) {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.AuthMode == protocol.AuthPassword && opts.Verifier == nil {
		return nil, errors.New("password authentication needs a verifier")
	}
	if opts.AuthMode != protocol.AuthNone && opts.AuthMode != protocol.AuthPassword {
		return nil, fmt.Errorf("unsupported auth mode %d", opts.AuthMode)
	}

	connMgr := connection.NewManager(opts.MaxClients)
	router := handlers.NewPacketRouter(lobby, connMgr, opts.AuthMode, opts.Verifier, opts.Log)
	router.SingleLogin = opts.SingleLogin

	return &Server{
		lobby:   lobby,
		connMgr: connMgr,
		router:  router,
		log:     opts.Log,
	}, nil
}

// Lobby returns the table registry
func (s *Server) Lobby() *domain.Lobby { return s.lobby }

// Sessions returns the connection manager
func (s *Server) Sessions() *connection.Manager { return s.connMgr }

// ListenAndServe listens on a TCP address and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln fails.
// Cancelling ctx is not an error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mutex.Lock()
	s.listeners = append(s.listeners, ln)
	s.mutex.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Info("listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}
		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			s.handleConn(ctx, conn, conn.RemoteAddr().String())
		}()
	}
}

// handleConn runs one session from handshake to close
func (s *Server) handleConn(ctx context.Context, conn io.ReadWriteCloser, remote string) {
	sess := connection.NewSession(conn, s.log.With("remote", remote))
	if err := sess.Handshake(); err != nil {
		sess.Logger().Info("handshake failed", "err", err)
		sess.CloseNow()
		return
	}

	if !s.connMgr.Register(sess) {
		sess.Logger().Warn("too many connections")
		sess.Reject(protocol.NewDisconnect(protocol.DisconnectTooManyConnections, "too many connections"))
		return
	}
	sess.OnClose(s.connMgr.Unregister)
	sess.OnClose(s.router.Closed)
	sess.Logger().Info("session opened")

	s.router.Begin(sess)
	sess.Start(func(sess *connection.Session, p protocol.Packet) {
		if err := s.router.HandlePacket(ctx, sess, p); err != nil {
			sess.Logger().Info("packet rejected", "code", p.Code(), "err", err)
		}
	})
	sess.Wait()
}

// Handler serves the websocket endpoint and the table API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/tables", corsMiddleware(s.handleGetTables))
	return mux
}

// ServeHTTP listens on addr for websocket clients until ctx is cancelled
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mutex.Lock()
	s.http = append(s.http, srv)
	s.mutex.Unlock()

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.log.Info("websocket listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket listener: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// handleWebSocket runs a session over an upgraded connection
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.sessions.Add(1)
	defer s.sessions.Done()
	s.handleConn(r.Context(), connection.NewWebsocketConn(ws), r.RemoteAddr)
}

// handleGetTables returns a list of all tables
func (s *Server) handleGetTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tables := s.lobby.GetTables()
	list := make([]TableResponse, 0, len(tables))
	for _, t := range tables {
		summary := t.Summary()
		snap := t.Snapshot()
		list = append(list, TableResponse{
			ID:        t.ID(),
			Seats:     t.MaxSeats(),
			Occupied:  int(summary.Occupied),
			Connected: t.ConnectedCount(),
			Stage:     snap.Stage.String(),
			Pot:       snap.Pot,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		s.log.Info("encoding tables", "err", err)
	}
}

// Close stops accepting, closes every session and waits for them to finish
func (s *Server) Close() error {
	s.mutex.Lock()
	listeners := s.listeners
	servers := s.http
	s.listeners, s.http = nil, nil
	s.mutex.Unlock()

	var errs []error
	for _, ln := range listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	for _, srv := range servers {
		if err := srv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.connMgr.CloseAll()
	s.sessions.Wait()
	return errors.Join(errs...)
}
