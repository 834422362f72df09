// Package protocol implements the JPoker wire format: a version line exchanged
// on connect, then length-prefixed binary packets. Every packet starts with a
// one byte PacketCode followed by typed big-endian fields.
package protocol

import "fmt"

// PacketCode is the first byte of every packet
type PacketCode byte

const (
	CodeNone                PacketCode = 0
	CodeDisconnect          PacketCode = 1
	CodeUnimplemented       PacketCode = 2
	CodeAuthRequired        PacketCode = 49
	CodeAuthDetails         PacketCode = 50
	CodeAuthFail            PacketCode = 51
	CodeAuthSuccess         PacketCode = 52
	CodeGlobal              PacketCode = 80
	CodeTableConnect        PacketCode = 90
	CodeTableConnectFail    PacketCode = 91
	CodeTableConnectSuccess PacketCode = 92
	CodeTableData           PacketCode = 93
	CodeTableClose          PacketCode = 97
	CodeTableCloseFail      PacketCode = 98
	CodeTableCloseSuccess   PacketCode = 99
)

var codeNames = map[PacketCode]string{
	CodeNone:                "NONE",
	CodeDisconnect:          "DISCONNECT",
	CodeUnimplemented:       "UNIMPLEMENTED",
	CodeAuthRequired:        "AUTH_REQUIRED",
	CodeAuthDetails:         "AUTH_DETAILS",
	CodeAuthFail:            "AUTH_FAIL",
	CodeAuthSuccess:         "AUTH_SUCCESS",
	CodeGlobal:              "GLOBAL",
	CodeTableConnect:        "TABLE_CONNECT",
	CodeTableConnectFail:    "TABLE_CONNECT_FAIL",
	CodeTableConnectSuccess: "TABLE_CONNECT_SUCCESS",
	CodeTableData:           "TABLE_DATA",
	CodeTableClose:          "TABLE_CLOSE",
	CodeTableCloseFail:      "TABLE_CLOSE_FAIL",
	CodeTableCloseSuccess:   "TABLE_CLOSE_SUCCESS",
}

// ParsePacketCode maps a raw byte to its code. Unknown values map to CodeNone.
func ParsePacketCode(b byte) PacketCode {
	if _, ok := codeNames[PacketCode(b)]; ok {
		return PacketCode(b)
	}
	return CodeNone
}

func (c PacketCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("PacketCode(%d)", byte(c))
}

// AuthMode selects how a server authenticates its clients
type AuthMode byte

const (
	AuthNone     AuthMode = 1
	AuthPassword AuthMode = 2
)

func (m AuthMode) String() string {
	switch m {
	case AuthNone:
		return "none"
	case AuthPassword:
		return "password"
	}
	return fmt.Sprintf("AuthMode(%d)", byte(m))
}

// ParseAuthMode reads a mode name as used in configuration
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none", "NONE", "":
		return AuthNone, nil
	case "password", "PASSWORD":
		return AuthPassword, nil
	}
	return 0, fmt.Errorf("unknown auth mode %q", s)
}

// DisconnectReason explains a DISCONNECT packet
type DisconnectReason byte

const (
	DisconnectNone               DisconnectReason = 0
	DisconnectUserExit           DisconnectReason = 1
	DisconnectTooManyConnections DisconnectReason = 2
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectNone:
		return "none"
	case DisconnectUserExit:
		return "user exit"
	case DisconnectTooManyConnections:
		return "too many connections"
	}
	return fmt.Sprintf("DisconnectReason(%d)", byte(r))
}

// GlobalCode is the sub-code of a GLOBAL packet
type GlobalCode byte

const (
	GlobalNone      GlobalCode = 0
	GlobalGetTables GlobalCode = 1
	GlobalTableList GlobalCode = 2
)

// TableConnectFailCode explains a TABLE_CONNECT_FAIL packet
type TableConnectFailCode byte

const (
	ConnectFailGeneric          TableConnectFailCode = 1
	ConnectFailDoesNotExist     TableConnectFailCode = 2
	ConnectFailAlreadyConnected TableConnectFailCode = 3
)

func (c TableConnectFailCode) String() string {
	switch c {
	case ConnectFailGeneric:
		return "generic"
	case ConnectFailDoesNotExist:
		return "does not exist"
	case ConnectFailAlreadyConnected:
		return "already connected"
	}
	return fmt.Sprintf("TableConnectFailCode(%d)", byte(c))
}
