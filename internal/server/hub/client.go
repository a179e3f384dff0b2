package hub

import "coachlink/messaging/internal/models"

// Client is one active connection to the relay. It abstracts the underlying
// transport so the hub can manage connections uniformly.
type Client interface {
	// ParticipantID returns the authenticated participant behind the
	// connection.
	ParticipantID() string

	// Deliver returns the channel the hub writes outbound messages to. It
	// is a send-only channel consumed by the client's write pump.
	Deliver() chan<- models.WireMessage

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the connection and its pumps.
	Close()
}
