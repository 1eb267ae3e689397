// Package hub provides a websocket broadcast hub built on channel fan-out.
// Broadcasting never blocks the caller; slow clients are dropped.
package hub

import "github.com/gofiber/websocket/v2"

// Kind says what a Message carries and so which websocket frame it goes out in.
type Kind uint8

const (
	// Event is a JSON detection event, sent as a text frame.
	Event Kind = iota
	// Frame is an annotated camera frame as JPEG bytes, sent as a binary frame.
	Frame
)

func (k Kind) String() string {
	if k == Frame {
		return "frame"
	}
	return "event"
}

// Message is one payload queued for every client of a hub.
type Message struct {
	Kind Kind
	Data []byte
}

// wsType maps the kind onto the websocket opcode.
func (m Message) wsType() int {
	if m.Kind == Frame {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
