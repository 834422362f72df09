package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Version prefixes both version lines
	Version = "JPoker_0.0.1"

	RoleServer = "server"
	RoleClient = "client"

	ServerVersion = Version + "_" + RoleServer + "\r\n"
	ClientVersion = Version + "_" + RoleClient + "\r\n"

	// DefaultPort is the TCP port servers listen on unless told otherwise
	DefaultPort = 1111

	versionBufferSize = 100
)

// ErrVersionMismatch is returned when the peer's version line is not ours
var ErrVersionMismatch = errors.New("version mismatch")

// ServerHandshake writes the server version line, then reads and checks the client's
func ServerHandshake(rw io.ReadWriter) (string, error) {
	if _, err := io.WriteString(rw, ServerVersion); err != nil {
		return "", fmt.Errorf("writing version: %w", err)
	}
	return readVersion(rw, RoleClient)
}

// ClientHandshake reads and checks the server version line, then writes the client's
func ClientHandshake(rw io.ReadWriter) (string, error) {
	peer, err := readVersion(rw, RoleServer)
	if err != nil {
		return peer, err
	}
	if _, err := io.WriteString(rw, ClientVersion); err != nil {
		return peer, fmt.Errorf("writing version: %w", err)
	}
	return peer, nil
}

// CheckVersion reports whether a peer's line carries our exact version and
// the role we expect on the other end, terminated by CRLF
func CheckVersion(line, role string) bool {
	rest, ok := strings.CutPrefix(line, Version+"_")
	return ok && rest == role+"\r\n"
}

// readVersion reads up to the first newline, at most 100 bytes, one byte at a
// time so that nothing after the line is consumed.
func readVersion(r io.Reader, role string) (string, error) {
	buf := make([]byte, 0, versionBufferSize)
	one := make([]byte, 1)
	for len(buf) < versionBufferSize {
		n, err := r.Read(one)
		if n == 1 {
			buf = append(buf, one[0])
			if one[0] == '\n' {
				break
			}
		}
		if err != nil {
			if len(buf) == 0 {
				return "", fmt.Errorf("reading version: %w", err)
			}
			break
		}
	}

	line := string(buf)
	if !CheckVersion(line, role) {
		return line, fmt.Errorf("%w: %q", ErrVersionMismatch, line)
	}
	return line, nil
}
