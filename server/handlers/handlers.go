package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lazharichir/jpoker/auth"
	"github.com/lazharichir/jpoker/domain"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/lazharichir/jpoker/server/connection"
)

// ErrUnexpectedPacket is returned for packets the session state does not allow
var ErrUnexpectedPacket = errors.New("unexpected packet")

// PacketRouter routes incoming packets to the appropriate handler
type PacketRouter struct {
	lobby    *domain.Lobby
	connMgr  *connection.Manager
	verifier auth.Verifier
	mode     protocol.AuthMode
	log      *slog.Logger

	// SingleLogin refuses a second session for a user already logged in
	SingleLogin bool
}

// NewPacketRouter creates a router. verifier may be nil when mode is AuthNone.
func NewPacketRouter(lobby *domain.Lobby, connMgr *connection.Manager, mode protocol.AuthMode, verifier auth.Verifier, log *slog.Logger) *PacketRouter {
	if log == nil {
		log = logging.Discard()
	}
	return &PacketRouter{
		lobby:    lobby,
		connMgr:  connMgr,
		verifier: verifier,
		mode:     mode,
		log:      log,
	}
}

// Begin starts authentication on a session that finished its handshake
func (r *PacketRouter) Begin(s *connection.Session) {
	s.Send(protocol.NewAuthRequired(r.mode))
	if r.mode == protocol.AuthNone {
		r.authenticated(s)
	}
}

// Closed removes a closed session from every table it was connected to
func (r *PacketRouter) Closed(s *connection.Session) {
	for _, id := range s.Tables() {
		s.RemoveTable(id)
		if t, err := r.lobby.GetTable(id); err == nil {
			t.Leave(s)
		}
	}
}

// HandlePacket processes one packet. Errors are logged by the caller and
// never end the session.
func (r *PacketRouter) HandlePacket(ctx context.Context, s *connection.Session, p protocol.Packet) error {
	if p.Code() == protocol.CodeDisconnect {
		return r.handleDisconnect(s, p)
	}

	switch s.State() {
	case connection.StateAuthPending:
		if p.Code() == protocol.CodeAuthDetails {
			return r.handleAuthDetails(ctx, s, p)
		}
		s.Send(protocol.NewAuthRequired(r.mode))
		return fmt.Errorf("%w: %s before authentication", ErrUnexpectedPacket, p.Code())

	case connection.StateAuthenticated:
		switch p.Code() {
		case protocol.CodeGlobal:
			return r.handleGlobal(s, p)
		case protocol.CodeTableConnect:
			return r.handleTableConnect(s, p)
		case protocol.CodeTableClose:
			return r.handleTableClose(s, p)
		case protocol.CodeTableData:
			return r.handleTableData(s, p)
		}
		var raw byte
		if len(p) > 0 {
			raw = p[0]
		}
		s.Send(protocol.NewUnimplemented(raw))
		return fmt.Errorf("%w: code %d", ErrUnexpectedPacket, raw)
	}
	return fmt.Errorf("%w: %s in state %s", ErrUnexpectedPacket, p.Code(), s.State())
}

func (r *PacketRouter) handleDisconnect(s *connection.Session, p protocol.Packet) error {
	d, err := protocol.DecodeDisconnect(p)
	if err != nil {
		r.log.Debug("malformed disconnect", "session", s.ID(), "err", err)
	}
	s.Logger().Info("client disconnected", "reason", d.Reason, "message", d.Message)
	s.Close()
	return nil
}

func (r *PacketRouter) handleAuthDetails(ctx context.Context, s *connection.Session, p protocol.Packet) error {
	d, err := protocol.DecodeAuthDetails(p)
	if err != nil {
		s.Send(protocol.NewAuthRequired(r.mode))
		return fmt.Errorf("auth details: %w", err)
	}

	if d.Mode != r.mode {
		s.Send(protocol.NewAuthFail(protocol.AuthFail{
			Mode:         d.Mode,
			User:         d.User,
			CanContinue:  true,
			ContinueMode: r.mode,
		}))
		return nil
	}
	if r.mode == protocol.AuthNone {
		r.authenticated(s)
		return nil
	}

	fail := protocol.NewAuthFail(protocol.AuthFail{
		Mode:         protocol.AuthPassword,
		User:         d.User,
		CanContinue:  true,
		ContinueMode: protocol.AuthPassword,
	})

	ok, err := r.verifier.Verify(ctx, d.User, d.Pass)
	if err != nil {
		s.Send(fail)
		return fmt.Errorf("verify %s: %w", d.User, err)
	}
	if !ok {
		s.Logger().Info("login failed", "user", d.User)
		s.Send(fail)
		return nil
	}
	if r.SingleLogin && r.connMgr.HasUser(d.User) {
		s.Logger().Info("user already logged in", "user", d.User)
		s.Send(fail)
		return nil
	}

	s.SetUser(d.User)
	r.authenticated(s)
	return nil
}

// authenticated completes the login and sends the table list
func (r *PacketRouter) authenticated(s *connection.Session) {
	s.SetState(connection.StateAuthenticated)
	s.Send(protocol.NewAuthSuccess())
	s.Send(protocol.NewTableList(r.lobby.Snapshot()))
	s.Logger().Info("session authenticated", "user", s.User())
}

func (r *PacketRouter) handleGlobal(s *connection.Session, p protocol.Packet) error {
	switch protocol.GlobalSub(p) {
	case protocol.GlobalGetTables:
		s.Send(protocol.NewTableList(r.lobby.Snapshot()))
		return nil
	}
	s.Send(protocol.NewUnimplemented(byte(protocol.CodeGlobal)))
	return fmt.Errorf("%w: global sub-code %d", ErrUnexpectedPacket, protocol.GlobalSub(p))
}

func (r *PacketRouter) handleTableConnect(s *connection.Session, p protocol.Packet) error {
	id := p.TableID()
	t, err := r.lobby.GetTable(id)
	if err != nil {
		s.Send(protocol.NewTableConnectFail(protocol.TableConnectFail{
			TableID: id,
			Reason:  protocol.ConnectFailDoesNotExist,
			Message: fmt.Sprintf("table %d does not exist", id),
		}))
		return nil
	}
	if s.HasTable(id) || !t.AddConnected(s) {
		s.Send(protocol.NewTableConnectFail(protocol.TableConnectFail{
			TableID: id,
			Reason:  protocol.ConnectFailAlreadyConnected,
			Message: fmt.Sprintf("already connected to table %d", id),
		}))
		return nil
	}

	s.AddTable(id)
	if s.State() == connection.StateClosed {
		// Closed may already have walked the session's tables
		s.RemoveTable(id)
		t.Leave(s)
		return nil
	}
	s.Send(protocol.NewTableConnectSuccess(id))
	s.Logger().Info("table connected", "table", id)
	return nil
}

func (r *PacketRouter) handleTableClose(s *connection.Session, p protocol.Packet) error {
	id := p.TableID()
	if !r.leaveTable(s, id) {
		s.Send(protocol.NewTableCloseFail(id))
		return nil
	}
	s.Send(protocol.NewTableCloseSuccess(id))
	return nil
}

func (r *PacketRouter) leaveTable(s *connection.Session, id int) bool {
	if !s.RemoveTable(id) {
		return false
	}
	if t, err := r.lobby.GetTable(id); err == nil {
		t.Leave(s)
	}
	s.Logger().Info("table closed", "table", id)
	return true
}

// handleTableData forwards a table message to the engine. "quit" is handled
// here so the session forgets the table too.
func (r *PacketRouter) handleTableData(s *connection.Session, p protocol.Packet) error {
	id := p.TableID()
	if !s.HasTable(id) {
		return fmt.Errorf("%w: table data for unconnected table %d", ErrUnexpectedPacket, id)
	}
	if d, err := protocol.DecodeTableData(p); err == nil && d.Message == "quit" {
		r.leaveTable(s, id)
		return nil
	}
	t, err := r.lobby.GetTable(id)
	if err != nil {
		return err
	}
	if !t.Enqueue(s, p) {
		return fmt.Errorf("table %d did not accept the packet", id)
	}
	return nil
}
