package protocol

import "fmt"

// Disconnect is the body of a DISCONNECT packet
type Disconnect struct {
	Reason  DisconnectReason
	Message string
}

// AuthDetails is the body of an AUTH_DETAILS packet
type AuthDetails struct {
	Mode AuthMode
	User string
	Pass string
}

// AuthFail is the body of an AUTH_FAIL packet
type AuthFail struct {
	Mode         AuthMode
	User         string
	CanContinue  bool
	ContinueMode AuthMode
}

// TableConnectFail is the body of a TABLE_CONNECT_FAIL packet
type TableConnectFail struct {
	TableID int
	Reason  TableConnectFailCode
	Message string
}

// TableSummary is one entry of a GLOBAL table list
type TableSummary struct {
	ID       int
	Seats    byte
	Occupied byte
}

// TableData is the body of a TABLE_DATA packet
type TableData struct {
	TableID int
	Message string
}

// NewDisconnect builds DISCONNECT(reason [, message])
func NewDisconnect(reason DisconnectReason, message string) Packet {
	p := NewPacket(CodeDisconnect).AppendByte(byte(reason))
	if message != "" {
		p = p.AppendString(message)
	}
	return p
}

// DecodeDisconnect reads a DISCONNECT packet
func DecodeDisconnect(p Packet) (Disconnect, error) {
	if p.Code() != CodeDisconnect {
		return Disconnect{}, wrongCode(p, CodeDisconnect)
	}
	r := p.Fields()
	d := Disconnect{Reason: DisconnectReason(r.Byte())}
	if r.More() {
		d.Message = r.Text()
	}
	return d, r.Err()
}

// NewUnimplemented builds UNIMPLEMENTED(originalCode)
func NewUnimplemented(original byte) Packet {
	return NewPacket(CodeUnimplemented).AppendByte(original)
}

// NewAuthRequired builds AUTH_REQUIRED(mode)
func NewAuthRequired(mode AuthMode) Packet {
	return NewPacket(CodeAuthRequired).AppendByte(byte(mode))
}

// DecodeAuthRequired reads the mode of an AUTH_REQUIRED packet
func DecodeAuthRequired(p Packet) (AuthMode, error) {
	if p.Code() != CodeAuthRequired {
		return 0, wrongCode(p, CodeAuthRequired)
	}
	r := p.Fields()
	mode := AuthMode(r.Byte())
	return mode, r.Err()
}

// NewAuthDetails builds AUTH_DETAILS(mode [, user, pass]). Credentials are only sent for PASSWORD.
func NewAuthDetails(d AuthDetails) Packet {
	p := NewPacket(CodeAuthDetails).AppendByte(byte(d.Mode))
	if d.Mode == AuthPassword {
		p = p.AppendString(d.User).AppendString(d.Pass)
	}
	return p
}

// DecodeAuthDetails reads an AUTH_DETAILS packet
func DecodeAuthDetails(p Packet) (AuthDetails, error) {
	if p.Code() != CodeAuthDetails {
		return AuthDetails{}, wrongCode(p, CodeAuthDetails)
	}
	r := p.Fields()
	d := AuthDetails{Mode: AuthMode(r.Byte())}
	if d.Mode == AuthPassword {
		d.User = r.Text()
		d.Pass = r.Text()
	}
	return d, r.Err()
}

// NewAuthFail builds AUTH_FAIL(mode [, user], canContinue [, continueMode])
func NewAuthFail(f AuthFail) Packet {
	p := NewPacket(CodeAuthFail).AppendByte(byte(f.Mode))
	if f.Mode == AuthPassword {
		p = p.AppendString(f.User)
	}
	p = p.AppendBool(f.CanContinue)
	if f.CanContinue {
		p = p.AppendByte(byte(f.ContinueMode))
	}
	return p
}

// DecodeAuthFail reads an AUTH_FAIL packet
func DecodeAuthFail(p Packet) (AuthFail, error) {
	if p.Code() != CodeAuthFail {
		return AuthFail{}, wrongCode(p, CodeAuthFail)
	}
	r := p.Fields()
	f := AuthFail{Mode: AuthMode(r.Byte())}
	if f.Mode == AuthPassword {
		f.User = r.Text()
	}
	f.CanContinue = r.Bool()
	if f.CanContinue {
		f.ContinueMode = AuthMode(r.Byte())
	}
	return f, r.Err()
}

// NewAuthSuccess builds AUTH_SUCCESS
func NewAuthSuccess() Packet {
	return NewPacket(CodeAuthSuccess)
}

// NewGetTables builds GLOBAL(GET_TABLES)
func NewGetTables() Packet {
	return NewPacket(CodeGlobal).AppendByte(byte(GlobalGetTables))
}

// NewTableList builds GLOBAL(TABLE_LIST, count, (id, seats, occupied)...)
func NewTableList(tables []TableSummary) Packet {
	p := NewPacket(CodeGlobal).AppendByte(byte(GlobalTableList)).AppendInt(len(tables))
	for _, t := range tables {
		p = p.AppendInt(t.ID).AppendByte(t.Seats).AppendByte(t.Occupied)
	}
	return p
}

// GlobalSub returns the sub-code of a GLOBAL packet
func GlobalSub(p Packet) GlobalCode {
	if p.Code() != CodeGlobal {
		return GlobalNone
	}
	b, _ := p.Byte(1)
	return GlobalCode(b)
}

// DecodeTableList reads a GLOBAL(TABLE_LIST) packet
func DecodeTableList(p Packet) ([]TableSummary, error) {
	if GlobalSub(p) != GlobalTableList {
		return nil, fmt.Errorf("%w: not a table list", ErrMalformedPacket)
	}
	r := p.Fields()
	r.Byte()
	n := r.Int()
	if r.Err() != nil {
		return nil, r.Err()
	}
	tables := make([]TableSummary, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		tables = append(tables, TableSummary{ID: r.Int(), Seats: r.Byte(), Occupied: r.Byte()})
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return tables, nil
}

func newTableIDPacket(code PacketCode, tableID int) Packet {
	return NewPacket(code).AppendInt(tableID)
}

// NewTableConnect builds TABLE_CONNECT(tableId)
func NewTableConnect(tableID int) Packet { return newTableIDPacket(CodeTableConnect, tableID) }

// NewTableConnectSuccess builds TABLE_CONNECT_SUCCESS(tableId)
func NewTableConnectSuccess(tableID int) Packet {
	return newTableIDPacket(CodeTableConnectSuccess, tableID)
}

// NewTableClose builds TABLE_CLOSE(tableId)
func NewTableClose(tableID int) Packet { return newTableIDPacket(CodeTableClose, tableID) }

// NewTableCloseFail builds TABLE_CLOSE_FAIL(tableId)
func NewTableCloseFail(tableID int) Packet { return newTableIDPacket(CodeTableCloseFail, tableID) }

// NewTableCloseSuccess builds TABLE_CLOSE_SUCCESS(tableId)
func NewTableCloseSuccess(tableID int) Packet {
	return newTableIDPacket(CodeTableCloseSuccess, tableID)
}

// NewTableConnectFail builds TABLE_CONNECT_FAIL(tableId, reason, message)
func NewTableConnectFail(f TableConnectFail) Packet {
	return newTableIDPacket(CodeTableConnectFail, f.TableID).
		AppendByte(byte(f.Reason)).
		AppendString(f.Message)
}

// DecodeTableConnectFail reads a TABLE_CONNECT_FAIL packet
func DecodeTableConnectFail(p Packet) (TableConnectFail, error) {
	if p.Code() != CodeTableConnectFail {
		return TableConnectFail{}, wrongCode(p, CodeTableConnectFail)
	}
	r := p.Fields()
	f := TableConnectFail{
		TableID: r.Int(),
		Reason:  TableConnectFailCode(r.Byte()),
	}
	f.Message = r.Text()
	return f, r.Err()
}

// NewTableData builds TABLE_DATA(tableId, message)
func NewTableData(tableID int, message string) Packet {
	return newTableIDPacket(CodeTableData, tableID).AppendString(message)
}

// DecodeTableData reads a TABLE_DATA packet
func DecodeTableData(p Packet) (TableData, error) {
	if p.Code() != CodeTableData {
		return TableData{}, wrongCode(p, CodeTableData)
	}
	r := p.Fields()
	d := TableData{TableID: r.Int()}
	d.Message = r.Text()
	return d, r.Err()
}

func wrongCode(p Packet, want PacketCode) error {
	return fmt.Errorf("%w: got %s, want %s", ErrMalformedPacket, p.Code(), want)
}
