// Package control defines the message type shared between the daemon and
// the net frontend. This is the only contract between them: the daemon
// never writes to a client socket and the net frontend never calls into
// the manager directly.
package control

// Kind tags a Message.
type Kind int

const (
	// Data carries one request/response payload correlated by SID. Sent
	// frontend -> daemon with the request bytes, and daemon -> frontend
	// with the response bytes.
	Data Kind = iota
	// Quit tells the frontend to close every tracked client socket and
	// exit.
	Quit
)

// Message is the single typed value exchanged over the control channel.
type Message struct {
	Kind    Kind
	SID     uint64
	Payload []byte
}
