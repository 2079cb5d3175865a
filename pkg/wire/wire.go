// Package wire implements the line framing of the chat protocol.
//
// Every protocol line is newline-terminated text. Fields inside a line are
// separated by the reserved Delimiter character; the position of the
// delimiter distinguishes the line shapes (auth request, auth response,
// join notice, leave notice, chat message).
package wire

import (
	"strconv"
	"strings"
)

// Delimiter separates protocol fields within one line. It is reserved:
// user-chosen names must never contain it.
const Delimiter = ":"

// Kind classifies a received protocol line.
type Kind int

const (
	// KindChat is a regular chat message: "sender:text". It is also the
	// fallback for lines that match no other shape.
	KindChat Kind = iota
	// KindJoin is a join notice: ":name".
	KindJoin
	// KindLeave is a leave notice: "::name".
	KindLeave
)

// Classify determines the shape of a received line. The first matching shape
// wins; chat message is the fallback for everything else, including empty
// lines and lines without a delimiter.
func Classify(line string) Kind {
	switch {
	case strings.HasPrefix(line, Delimiter+Delimiter):
		return KindLeave
	case strings.HasPrefix(line, Delimiter):
		return KindJoin
	default:
		return KindChat
	}
}

// AuthRequest builds the line a connecting client sends first: "name:password".
func AuthRequest(name, password string) string {
	return name + Delimiter + password
}

// AuthResponse builds the line the server answers a successful handshake
// with: its own name followed by the names of all already-connected clients,
// in join order.
func AuthResponse(serverName string, clientNames []string) string {
	if len(clientNames) == 0 {
		return serverName
	}
	return serverName + Delimiter + strings.Join(clientNames, Delimiter)
}

// JoinNotice builds the broadcast announcing a newly authenticated client.
func JoinNotice(name string) string {
	return Delimiter + name
}

// LeaveNotice builds the broadcast announcing a departed client.
func LeaveNotice(name string) string {
	return Delimiter + Delimiter + name
}

// ChatMessage builds a regular message line: "sender:text".
func ChatMessage(sender, text string) string {
	return sender + Delimiter + text
}

// JoinedName extracts the client name from a join notice.
func JoinedName(line string) string {
	return strings.TrimPrefix(line, Delimiter)
}

// LeftName extracts the client name from a leave notice.
func LeftName(line string) string {
	return strings.TrimPrefix(line, Delimiter+Delimiter)
}

// SplitChat splits a chat line at its first delimiter. Only the first
// delimiter is significant; the text may contain further delimiters. ok is
// false when the line carries no delimiter at all, in which case the whole
// line is returned as sender and text is empty.
func SplitChat(line string) (sender, text string, ok bool) {
	sender, text, ok = strings.Cut(line, Delimiter)
	return sender, text, ok
}

// ParseAuthRequest splits the first line of a handshake into name and
// password. A line without a delimiter yields the whole line as name and an
// empty password.
func ParseAuthRequest(line string) (name, password string) {
	name, password, _ = strings.Cut(line, Delimiter)
	return name, password
}

// ParseAuthResponse splits a successful handshake answer into the server
// name and the names of the already-connected clients.
func ParseAuthResponse(line string) (serverName string, clientNames []string) {
	fields := strings.Split(line, Delimiter)
	return fields[0], fields[1:]
}

// IsValidName reports whether a user-chosen display name is legal on the
// wire, i.e. free of the reserved delimiter.
func IsValidName(name string) bool {
	return !strings.Contains(name, Delimiter)
}

// ParsePort converts a user-supplied port string, rejecting non-numeric and
// out-of-range values before any connection attempt is made.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrPortMalformed
	}
	if port < 0 || port > 0xFFFF {
		return 0, ErrPortOutOfRange
	}
	return port, nil
}
