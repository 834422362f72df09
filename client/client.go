// Package client is the client side of the protocol: it dials a server,
// follows the authentication exchange and mirrors the tables it joins.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/lazharichir/jpoker/server/connection"
)

// ErrDisconnected is returned by Run when the server sent DISCONNECT
var ErrDisconnected = errors.New("disconnected by server")

// Handlers are the callbacks a Client invokes from Run. All are optional
// except AuthRequired against a server that wants a password.
type Handlers struct {
	// AuthRequired supplies credentials for the mode the server asks for
	AuthRequired func(mode protocol.AuthMode) (protocol.AuthDetails, error)
	AuthFailed   func(protocol.AuthFail)
	Authorized   func()
	TableList    func([]protocol.TableSummary)
	TableJoined  func(view *TableView)
	TableFailed  func(protocol.TableConnectFail)
	TableMessage func(tableID int, msg string)
	TableClosed  func(tableID int)
	Disconnected func(protocol.Disconnect)
}

// Client is one connection to a server
type Client struct {
	conn     io.ReadWriteCloser
	handlers Handlers
	log      *slog.Logger

	writeMu sync.Mutex
	state   atomic.Int32

	mutex  sync.RWMutex
	tables []protocol.TableSummary
	views  map[int]*TableView
}

// NormalizeAddr accepts "host" or "host:port" and fills in the default port
func NormalizeAddr(addr string) (string, error) {
	if addr == "" {
		return "", errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, strconv.Itoa(protocol.DefaultPort)), nil
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}

// Dial connects to a TCP server and performs the version handshake
func Dial(ctx context.Context, addr string, h Handlers, log *slog.Logger) (*Client, error) {
	addr, err := NormalizeAddr(addr)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn, h, log)
}

// DialWebsocket connects to a server's websocket endpoint, e.g. ws://host:8080/ws
func DialWebsocket(ctx context.Context, url string, h Handlers, log *slog.Logger) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return New(connection.NewWebsocketConn(ws), h, log)
}

// New performs the version handshake over conn. conn is closed on failure.
func New(conn io.ReadWriteCloser, h Handlers, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = logging.Discard()
	}
	c := &Client{
		conn:     conn,
		handlers: h,
		log:      log,
		views:    make(map[int]*TableView),
	}

	line, err := protocol.ClientHandshake(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	c.log.Debug("server version", "version", line)
	c.state.Store(int32(connection.StateAuthPending))
	return c, nil
}

// State mirrors the server side session state
func (c *Client) State() connection.State { return connection.State(c.state.Load()) }

// Run reads packets until the connection fails, ctx is cancelled or the
// server disconnects. Cancelling ctx is not an error.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()
	defer c.state.Store(int32(connection.StateClosed))

	for {
		p, err := protocol.ReadFrame(c.conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := c.handle(p); err != nil {
			return err
		}
	}
}

func (c *Client) send(p protocol.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteFrame(c.conn, p)
}

func (c *Client) handle(p protocol.Packet) error {
	c.log.Debug("packet in", "code", p.Code(), "packet", logging.Dump(p))

	switch p.Code() {
	case protocol.CodeDisconnect:
		d, _ := protocol.DecodeDisconnect(p)
		if c.handlers.Disconnected != nil {
			c.handlers.Disconnected(d)
		}
		return fmt.Errorf("%w: %s %s", ErrDisconnected, d.Reason, d.Message)

	case protocol.CodeAuthRequired:
		mode, err := protocol.DecodeAuthRequired(p)
		if err != nil {
			return err
		}
		c.state.Store(int32(connection.StateAuthPending))
		if mode == protocol.AuthNone {
			return nil
		}
		return c.authenticate(mode)

	case protocol.CodeAuthFail:
		f, err := protocol.DecodeAuthFail(p)
		if err != nil {
			return err
		}
		if c.handlers.AuthFailed != nil {
			c.handlers.AuthFailed(f)
		}
		if !f.CanContinue {
			return errors.New("authentication refused")
		}
		return c.authenticate(f.ContinueMode)

	case protocol.CodeAuthSuccess:
		c.state.Store(int32(connection.StateAuthenticated))
		if c.handlers.Authorized != nil {
			c.handlers.Authorized()
		}

	case protocol.CodeGlobal:
		if protocol.GlobalSub(p) != protocol.GlobalTableList {
			c.log.Warn("unexpected global packet", "sub", protocol.GlobalSub(p))
			return nil
		}
		list, err := protocol.DecodeTableList(p)
		if err != nil {
			return err
		}
		c.mutex.Lock()
		c.tables = list
		c.mutex.Unlock()
		if c.handlers.TableList != nil {
			c.handlers.TableList(list)
		}

	case protocol.CodeTableConnectSuccess:
		view := c.join(p.TableID())
		if c.handlers.TableJoined != nil {
			c.handlers.TableJoined(view)
		}

	case protocol.CodeTableConnectFail:
		f, err := protocol.DecodeTableConnectFail(p)
		if err != nil {
			return err
		}
		c.log.Info("table connect failed", "table", f.TableID, "reason", f.Reason, "message", f.Message)
		if c.handlers.TableFailed != nil {
			c.handlers.TableFailed(f)
		}

	case protocol.CodeTableData:
		d, err := protocol.DecodeTableData(p)
		if err != nil {
			return err
		}
		if view, ok := c.Table(d.TableID); ok {
			if err := view.Apply(d.Message); err != nil {
				c.log.Warn("table message not understood", "err", err)
			}
		}
		if c.handlers.TableMessage != nil {
			c.handlers.TableMessage(d.TableID, d.Message)
		}

	case protocol.CodeTableCloseSuccess:
		id := p.TableID()
		c.mutex.Lock()
		delete(c.views, id)
		c.mutex.Unlock()
		if c.handlers.TableClosed != nil {
			c.handlers.TableClosed(id)
		}

	case protocol.CodeTableCloseFail:
		c.log.Info("table close failed", "table", p.TableID())

	case protocol.CodeUnimplemented:
		code, _ := p.Byte(1)
		c.log.Warn("server does not implement packet", "code", code)

	default:
		c.log.Warn("unexpected packet", "code", p.Code())
	}
	return nil
}

func (c *Client) authenticate(mode protocol.AuthMode) error {
	if c.handlers.AuthRequired == nil {
		return fmt.Errorf("server requires %s authentication", mode)
	}
	details, err := c.handlers.AuthRequired(mode)
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	details.Mode = mode
	return c.send(protocol.NewAuthDetails(details))
}

// join creates the view of a table, sized from the cached table list
func (c *Client) join(id int) *TableView {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	seats := poker.ValidSeatCounts[len(poker.ValidSeatCounts)-1]
	for _, t := range c.tables {
		if t.ID == id {
			seats = int(t.Seats)
		}
	}
	view := NewTableView(id, seats)
	c.views[id] = view
	return view
}

// Tables returns the last table list received
func (c *Client) Tables() []protocol.TableSummary {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return append([]protocol.TableSummary(nil), c.tables...)
}

// Table returns the view of a connected table
func (c *Client) Table(id int) (*TableView, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	v, ok := c.views[id]
	return v, ok
}

func (c *Client) RequestTables() error { return c.send(protocol.NewGetTables()) }

func (c *Client) ConnectTable(id int) error { return c.send(protocol.NewTableConnect(id)) }

func (c *Client) CloseTable(id int) error { return c.send(protocol.NewTableClose(id)) }

// SendTable sends a raw table message such as "sit:3" or "update"
func (c *Client) SendTable(id int, msg string) error {
	return c.send(protocol.NewTableData(id, msg))
}

func (c *Client) Sit(id, seat int) error { return c.SendTable(id, protocol.Msg("sit", seat)) }

func (c *Client) Standup(id, seat int) error { return c.SendTable(id, protocol.Msg("standup", seat)) }

// Act sends a betting decision for seat. raise is ignored unless action is RAISE.
func (c *Client) Act(id, seat int, action poker.Action, raise int) error {
	if action == poker.ActionRaise {
		return c.SendTable(id, protocol.Msg("game", "raise", seat, raise))
	}
	return c.SendTable(id, protocol.Msg("game", strings.ToLower(action.String()), seat))
}

// Close says goodbye to the server and closes the connection
func (c *Client) Close() error {
	if c.State() != connection.StateClosed {
		if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
			_ = d.SetWriteDeadline(time.Now().Add(time.Second))
		}
		_ = c.send(protocol.NewDisconnect(protocol.DisconnectUserExit, ""))
	}
	c.state.Store(int32(connection.StateClosed))
	return c.conn.Close()
}
